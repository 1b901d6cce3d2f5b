// Package plugin defines the notification service contract that every
// concrete service kind (log, file, smtp, webhook, discord, kafka,
// rabbitmq, redis, elastic, s3) implements.
package plugin

import (
	"context"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// ServiceContext is what a plugin receives on Init and on every
// Deliver call: its own configuration section, a logger already
// scoped to the service name, and the engine version for plugins that
// report it upstream (e.g. in a webhook user-agent).
type ServiceContext struct {
	ServiceName    string
	Options        map[string]interface{}
	Log            *logger.Component
	EngineVersion  string
}

// StringOption returns a string-typed option, or the default if the
// key is absent or not a string.
func (c *ServiceContext) StringOption(key, def string) string {
	if v, ok := c.Options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// IntOption returns an int-typed option, or the default if the key is
// absent or not convertible.
func (c *ServiceContext) IntOption(key string, def int) int {
	if v, ok := c.Options[key]; ok {
		switch t := v.(type) {
		case int:
			return t
		case int64:
			return int(t)
		case float64:
			return int(t)
		}
	}
	return def
}

// BoolOption returns a bool-typed option, or the default if the key is
// absent or not a bool.
func (c *ServiceContext) BoolOption(key string, def bool) bool {
	if v, ok := c.Options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Plugin is the contract every notification service kind implements.
// Init is called once per configured service before any
// Deliver call. Deliver returns false for a retryable failure (the
// dispatch worker will retry, then fail over); it returns a non-nil
// error only for conditions worth logging in detail, independent of
// the bool outcome.
type Plugin interface {
	Init(ctx context.Context, sc *ServiceContext) error
	Deliver(ctx context.Context, sc *ServiceContext, job *core.Job) (bool, error)
	Close() error
}

// Factory constructs a new Plugin instance for a service kind. Kept as
// a named type so the service registry's kind table is self-describing.
type Factory func() Plugin
