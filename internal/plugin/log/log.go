// Package log implements the simplest notification service kind:
// writing delivered messages to the structured application logger.
package log

import (
	"context"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin writes each job's body to the shared application logger at a
// configurable level. It is the reference implementation new service
// kinds are modeled after: Init validates options once, Deliver never
// panics and always returns a definitive bool.
type Plugin struct {
	level string
}

// New constructs a log service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	p.level = sc.StringOption("level", "info")
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	fields := []interface{}{"target", job.Target, "topic", job.Topic}
	switch p.level {
	case "debug":
		sc.Log.Debug(job.Body, fields...)
	case "warn":
		sc.Log.Warn(job.Body, fields...)
	case "error":
		sc.Log.Error(job.Body, fields...)
	default:
		sc.Log.Info(job.Body, fields...)
	}
	return true, nil
}

func (p *Plugin) Close() error { return nil }
