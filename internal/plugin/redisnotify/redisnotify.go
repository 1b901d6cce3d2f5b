// Package redisnotify implements a notification service kind that
// publishes delivered message bodies on a Redis pub/sub channel.
package redisnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin publishes each job as a JSON envelope (topic, body,
// timestamp) onto a Redis channel, using one client shared across all
// targets of this kind.
type Plugin struct {
	client *redis.Client
}

// New constructs a redisnotify service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	addr := sc.StringOption("addr", "")
	if addr == "" {
		return fmt.Errorf("redisnotify plugin: target %s requires an addr option", sc.ServiceName)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: sc.StringOption("password", ""),
		DB:       sc.IntOption("db", 0),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redisnotify plugin: ping: %w", err)
	}

	p.client = client
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	channel := sc.StringOption("channel", "")
	if channel == "" {
		return false, fmt.Errorf("redisnotify plugin: target %s has no channel option", job.Target)
	}

	envelope := map[string]interface{}{
		"topic":     job.Topic,
		"body":      job.Body,
		"timestamp": time.Now().Unix(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return false, err
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		sc.Log.Warn("publish failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
