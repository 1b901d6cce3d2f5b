package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/service"
)

// RoutingDocument is the on-disk shape of the YAML routing config: the
// services a message can be delivered to, the routes binding topic
// patterns to a transform pipeline, an optional failover target list,
// and periodic tasks injected back into the pipeline.
type RoutingDocument struct {
	Services []ServiceDoc  `yaml:"services" validate:"required,dive"`
	Routes   []RouteDoc    `yaml:"routes" validate:"required,dive"`
	Failover []string      `yaml:"failover" validate:"dive,contains=:"`
	Tasks    []TaskDoc     `yaml:"tasks" validate:"dive"`
	Strict   bool          `yaml:"strict_targets"`
}

// ServiceDoc configures one named service namespace.
type ServiceDoc struct {
	Name    string                            `yaml:"name" validate:"required,alphanum_underscore"`
	Kind    string                            `yaml:"kind" validate:"required"`
	Options map[string]interface{}            `yaml:"options"`
	Targets map[string]map[string]interface{} `yaml:"targets"`
}

// RouteDoc configures one route.
type RouteDoc struct {
	Name               string   `yaml:"name" validate:"required"`
	Topic              string   `yaml:"topic" validate:"required"`
	SkipRetained       bool     `yaml:"skip_retained"`
	FilterFn           string   `yaml:"filter_fn"`
	DatamapFn          string   `yaml:"datamap_fn"`
	AlldataFn          string   `yaml:"alldata_fn"`
	Format             string   `yaml:"format"`
	FormatFn           string   `yaml:"format_fn"`
	StrictPlaceholders bool     `yaml:"strict_placeholders"`
	Targets            []string `yaml:"targets"`
	TargetsTemplate    string   `yaml:"targets_template"`
	TargetsFn          string   `yaml:"targets_fn"`
	QoS                byte     `yaml:"qos"`
	MaxRetries         int      `yaml:"max_retries"`
	RetryBackoffMS     int      `yaml:"retry_backoff_ms"`
	Priority           int      `yaml:"priority"`
}

// TaskDoc configures one periodic scheduler entry.
type TaskDoc struct {
	Name            string `yaml:"name" validate:"required"`
	IntervalSeconds int    `yaml:"interval_seconds" validate:"required,gt=0"`
	RunImmediately  bool   `yaml:"run_immediately"`
	Helper          string `yaml:"helper" validate:"required"`
	Topic           string `yaml:"topic" validate:"required"`
}

// LoadRoutingDocument reads, parses and validates the YAML routing
// document at path.
func LoadRoutingDocument(path string) (*RoutingDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read routing document: %w", err)
	}

	var doc RoutingDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse routing document: %w", err)
	}

	v := validator.New()
	v.RegisterValidation("alphanum_underscore", validateAlphanumUnderscore)
	if err := v.Struct(&doc); err != nil {
		return nil, fmt.Errorf("config: invalid routing document: %w", err)
	}

	if err := doc.semanticCheck(); err != nil {
		return nil, err
	}

	return &doc, nil
}

func validateAlphanumUnderscore(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// semanticCheck applies business rules the struct tags cannot express:
// each route must set exactly one format source and exactly one
// targets source.
func (d *RoutingDocument) semanticCheck() error {
	for _, r := range d.Routes {
		if r.Format == "" && r.FormatFn == "" {
			return fmt.Errorf("route %q: must set either format or format_fn", r.Name)
		}
		if r.Format != "" && r.FormatFn != "" {
			return fmt.Errorf("route %q: must not set both format and format_fn", r.Name)
		}

		sources := 0
		if len(r.Targets) > 0 {
			sources++
		}
		if r.TargetsTemplate != "" {
			sources++
		}
		if r.TargetsFn != "" {
			sources++
		}
		if sources != 1 {
			return fmt.Errorf("route %q: must set exactly one of targets, targets_template, targets_fn", r.Name)
		}
	}
	return nil
}

// ServiceConfigs translates the document's service entries into the
// shape the service registry expects.
func (d *RoutingDocument) ServiceConfigs() []service.Config {
	out := make([]service.Config, 0, len(d.Services))
	for _, s := range d.Services {
		out = append(out, service.Config{
			Name:    s.Name,
			Kind:    s.Kind,
			Options: s.Options,
			Targets: s.Targets,
		})
	}
	return out
}

// CoreRoutes translates the document's route entries into core.Route
// values ready for the matcher.
func (d *RoutingDocument) CoreRoutes() []*core.Route {
	out := make([]*core.Route, 0, len(d.Routes))
	for _, r := range d.Routes {
		route := &core.Route{
			Name:               r.Name,
			Topic:              r.Topic,
			SkipRetained:       r.SkipRetained,
			FilterFn:           r.FilterFn,
			DatamapFn:          r.DatamapFn,
			AlldataFn:          r.AlldataFn,
			QoS:                r.QoS,
			MaxRetries:         r.MaxRetries,
			RetryBackoff:       r.RetryBackoffMS,
			Priority:           r.Priority,
			StrictPlaceholders: r.StrictPlaceholders,
		}

		if r.FormatFn != "" {
			route.Format = core.FormatSpec{Kind: core.FormatFunction, Helper: r.FormatFn}
		} else {
			route.Format = core.FormatSpec{Kind: core.FormatTemplate, Template: r.Format}
		}

		switch {
		case len(r.Targets) > 0:
			route.Targets = core.TargetsSpec{Kind: core.TargetsStatic, Static: r.Targets}
		case r.TargetsTemplate != "":
			route.Targets = core.TargetsSpec{Kind: core.TargetsTemplate, Template: r.TargetsTemplate}
		case r.TargetsFn != "":
			route.Targets = core.TargetsSpec{Kind: core.TargetsComputed, Helper: r.TargetsFn}
		}

		out = append(out, route)
	}
	return out
}

// PeriodicTasks translates the document's task entries into
// core.PeriodicTask values ready for the scheduler.
func (d *RoutingDocument) PeriodicTasks() []*core.PeriodicTask {
	out := make([]*core.PeriodicTask, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		out = append(out, &core.PeriodicTask{
			Name:            t.Name,
			IntervalSeconds: t.IntervalSeconds,
			RunImmediately:  t.RunImmediately,
			Helper:          t.Helper,
			Topic:           t.Topic,
		})
	}
	return out
}

// AllTargetRefs collects every "service:target" reference used across
// routes and the failover list, for ValidateTargets.
func (d *RoutingDocument) AllTargetRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(ref string) {
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	for _, r := range d.Routes {
		for _, t := range r.Targets {
			add(t)
		}
	}
	for _, f := range d.Failover {
		add(f)
	}
	return refs
}
