// Package service wires configured service kinds to plugin instances
// and exposes a single Dispatch entry point to the dispatch workers.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Config is one configured service namespace: a kind ("log", "file",
// "smtp", ...), its service-wide options (connection settings shared
// by every target), and the named per-target parameter tables under
// it (recipient, path, channel, URL — whatever varies per target).
type Config struct {
	Name    string
	Kind    string
	Options map[string]interface{}
	Targets map[string]map[string]interface{}
}

// Registry initializes one plugin instance per configured service and
// dispatches jobs to it by (service, target) name.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	configs  map[string]Config
	order    []string
	log      *logger.Logger
	version  string
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger, version string) *Registry {
	return &Registry{
		plugins: make(map[string]plugin.Plugin),
		configs: make(map[string]Config),
		log:     log,
		version: version,
	}
}

// Load initializes one plugin per Config using the supplied kind
// factory table. It does not check target references; ValidateTargets
// does that.
func (r *Registry) Load(ctx context.Context, configs []Config, factories map[string]plugin.Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cfg := range configs {
		factory, ok := factories[cfg.Kind]
		if !ok {
			return fmt.Errorf("service %s: unknown kind %q", cfg.Name, cfg.Kind)
		}

		p := factory()
		sc := &plugin.ServiceContext{
			ServiceName:   cfg.Name,
			Options:       cfg.Options,
			EngineVersion: r.version,
			Log:           r.log.Component(cfg.Name),
		}

		if err := p.Init(ctx, sc); err != nil {
			return fmt.Errorf("service %s: init: %w", cfg.Name, err)
		}

		r.plugins[cfg.Name] = p
		r.configs[cfg.Name] = cfg
		r.order = append(r.order, cfg.Name)
		r.log.Info("service initialized", "service", cfg.Name, "kind", cfg.Kind)
	}

	return nil
}

// ValidateTargets checks that every "service:target" reference used by
// routes resolves to a known service and, for services that declare an
// explicit per-target parameter table, a known target within it.
// strict controls whether an invalid reference is a load-time error or
// a logged skip.
func (r *Registry) ValidateTargets(refs []string, strict bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ref := range refs {
		svc, target, ok := splitTarget(ref)
		if !ok {
			if strict {
				return fmt.Errorf("malformed target reference %q", ref)
			}
			r.log.Warn("malformed target reference, skipping", "target", ref)
			continue
		}
		if !r.validTargetLocked(svc, target) {
			if strict {
				return fmt.Errorf("target %q references unknown service or target %q:%q", ref, svc, target)
			}
			r.log.Warn("target references unknown service or target, skipping", "target", ref, "service", svc)
		}
	}
	return nil
}

// ValidTarget reports whether service:target names a configured
// service and, if that service declares an explicit per-target
// parameter table, a target within it. Services with no declared
// targets accept any target name, since the name is then purely a
// dispatch-queue discriminator with no parameter table to look up.
func (r *Registry) ValidTarget(service, target string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validTargetLocked(service, target)
}

func (r *Registry) validTargetLocked(service, target string) bool {
	cfg, exists := r.configs[service]
	if !exists {
		return false
	}
	if len(cfg.Targets) == 0 {
		return true
	}
	_, ok := cfg.Targets[target]
	return ok
}

// Dispatch delivers one job to the service named by job.Service, with
// the target's parameter table merged over the service-wide options as
// the ServiceContext options for the duration of this call. A missing service is reported as an
// error, not a retryable false, since it can never succeed on retry.
func (r *Registry) Dispatch(ctx context.Context, job *core.Job) (bool, error) {
	r.mu.RLock()
	p, ok := r.plugins[job.Service]
	cfg := r.configs[job.Service]
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("dispatch: unknown service %q", job.Service)
	}

	sc := &plugin.ServiceContext{
		ServiceName:   job.Service,
		Options:       mergeOptions(cfg.Options, cfg.Targets[job.Target]),
		EngineVersion: r.version,
		Log:           r.log.Component(job.Service),
	}

	return p.Deliver(ctx, sc, job)
}

func mergeOptions(global, target map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(global)+len(target))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range target {
		merged[k] = v
	}
	return merged
}

// Shutdown closes every plugin in reverse initialization order,
// continuing on error so one misbehaving plugin cannot block the
// shutdown of the rest.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if err := r.plugins[name].Close(); err != nil {
			r.log.Error("service shutdown failed", "service", name, "error", err)
		}
	}
}

func splitTarget(ref string) (service, target string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", "", false
}
