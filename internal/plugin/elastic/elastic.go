// Package elastic implements a notification service kind that indexes
// delivered message bodies into an Elasticsearch index, useful for
// targets that want a searchable audit trail of everything routed
// through a given topic.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin indexes each job as a document in a configured index, using
// one client shared across all targets of this kind.
type Plugin struct {
	client *elasticsearch.Client
}

// New constructs an elastic service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	addresses, ok := sc.Options["addresses"].([]string)
	if !ok || len(addresses) == 0 {
		return fmt.Errorf("elastic plugin: target %s requires an addresses option", sc.ServiceName)
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  sc.StringOption("username", ""),
		Password:  sc.StringOption("password", ""),
	})
	if err != nil {
		return fmt.Errorf("elastic plugin: %w", err)
	}
	p.client = client
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	index := sc.StringOption("index", "")
	if index == "" {
		return false, fmt.Errorf("elastic plugin: target %s has no index option", job.Target)
	}

	doc := map[string]interface{}{
		"topic":     job.Topic,
		"target":    job.Target,
		"body":      job.Body,
		"timestamp": time.Now().UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}

	req := esapi.IndexRequest{
		Index: index,
		Body:  bytes.NewReader(payload),
	}
	resp, err := req.Do(ctx, p.client)
	if err != nil {
		sc.Log.Warn("index request failed", "target", job.Target, "error", err)
		return false, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		sc.Log.Warn("index response error", "target", job.Target, "status", resp.StatusCode)
		return false, nil
	}
	return true, nil
}

func (p *Plugin) Close() error { return nil }
