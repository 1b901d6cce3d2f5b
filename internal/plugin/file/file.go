// Package file implements a notification service kind that appends
// delivered message bodies to a rotating log file.
package file

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin writes each job's body, newline-terminated, to a file managed
// by lumberjack so long-running targets don't grow an unbounded log.
// The destination path is a per-target option, so Deliver re-reads it
// from the freshly merged ServiceContext on every call (same as every
// other multi-target plugin) rather than baking one path in at Init;
// one *lumberjack.Logger is cached per distinct path seen.
type Plugin struct {
	mu      sync.Mutex
	loggers map[string]*lumberjack.Logger
}

// New constructs a file service plugin.
func New() plugin.Plugin {
	return &Plugin{loggers: make(map[string]*lumberjack.Logger)}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	path := sc.StringOption("path", "")
	if path == "" {
		return false, fmt.Errorf("file plugin: target %s requires a path option", job.Target)
	}

	out := p.loggerFor(path, sc)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := out.Write([]byte(job.Body + "\n")); err != nil {
		sc.Log.Warn("write failed", "target", job.Target, "path", path, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) loggerFor(path string, sc *plugin.ServiceContext) *lumberjack.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if out, ok := p.loggers[path]; ok {
		return out
	}
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sc.IntOption("max_size_mb", 100),
		MaxBackups: sc.IntOption("max_backups", 3),
		MaxAge:     sc.IntOption("max_age_days", 28),
		Compress:   sc.BoolOption("compress", false),
	}
	p.loggers[path] = out
	return out
}

func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, out := range p.loggers {
		if err := out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
