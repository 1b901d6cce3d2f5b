// Package webhook implements a notification service kind that POSTs
// message bodies to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/worldline-go/klient"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin POSTs each job's rendered body to a configured URL. One
// klient.Client is shared across all targets of this kind; per-target
// URL/headers come from the job's ServiceContext options.
type Plugin struct {
	client *klient.Client
}

// New constructs a webhook service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	opts := []klient.OptionClientFn{
		klient.WithDisableBaseURLCheck(true),
		klient.WithDisableEnvValues(true),
	}
	if sc.IntOption("timeout_seconds", 0) > 0 {
		opts = append(opts, klient.WithTimeout(time.Duration(sc.IntOption("timeout_seconds", 10))*time.Second))
	}
	if sc.BoolOption("insecure_skip_verify", false) {
		opts = append(opts, klient.WithInsecureSkipVerify(true))
	}
	if !sc.BoolOption("retry", true) {
		opts = append(opts, klient.WithDisableRetry(true))
	}

	client, err := klient.New(opts...)
	if err != nil {
		return fmt.Errorf("webhook plugin: %w", err)
	}
	p.client = client
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	url := sc.StringOption("url", "")
	if url == "" {
		return false, fmt.Errorf("webhook plugin: target %s has no url option", job.Target)
	}

	req, err := http.NewRequestWithContext(ctx, sc.StringOption("method", "POST"), url, bytes.NewReader([]byte(job.Body)))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", sc.StringOption("content_type", "text/plain"))

	resp, err := p.client.Do(req)
	if err != nil {
		sc.Log.Warn("request failed", "target", job.Target, "error", err)
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		sc.Log.Warn("non-2xx response", "target", job.Target, "status", resp.StatusCode)
		return false, nil
	}
	return true, nil
}

func (p *Plugin) Close() error { return nil }
