package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warnbridge/warnbridge/internal/helper"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// TargetValidator reports whether a service:target pair is a known
// service and, where the service declares one, a known target within
// it. Implemented by the service registry; kept as a narrow interface
// here so core has no import dependency on the service package.
type TargetValidator interface {
	ValidTarget(service, target string) bool
}

// Pipeline runs an inbound Message through a Route's filter, data-map
// and format stages and produces the Jobs that should be enqueued for
// dispatch. It holds no per-message state; every call is independent,
// so one Pipeline is shared across all routes and all workers.
type Pipeline struct {
	helpers   *helper.Registry
	validator TargetValidator
	location  *time.Location
	log       *logger.Component
}

// NewPipeline builds a Pipeline over a shared helper registry. validator
// may be nil, in which case every well-formed target is accepted
// without checking it against a service's configuration. Time fields
// render in the system local time zone unless SetLocation overrides it.
func NewPipeline(helpers *helper.Registry, validator TargetValidator, log *logger.Component) *Pipeline {
	return &Pipeline{helpers: helpers, validator: validator, log: log}
}

// SetLocation overrides the time zone _dt/_dthhmm render in. A nil loc
// restores the default of the system local time zone.
func (p *Pipeline) SetLocation(loc *time.Location) {
	p.location = loc
}

// Run executes the full pipeline for one route against one message and
// returns the Jobs to dispatch. A nil, nil return means the message was
// filtered out; it is not an error.
func (p *Pipeline) Run(route *Route, msg *Message) ([]*Job, error) {
	if route.SkipRetained && msg.Retained {
		return nil, nil
	}

	ctx := p.baseContext(route, msg)

	if route.FilterFn != "" {
		fn, err := p.helpers.Filter(route.FilterFn)
		if err != nil {
			p.log.Warn("filter_fn not found, message kept", "route", route.Name, "filter_fn", route.FilterFn, "error", err)
		} else {
			res := fn(ctx, msg.Topic, msg.Payload)
			switch res.Outcome {
			case helper.Drop:
				return nil, nil
			case helper.Errored:
				// filter_fn failing fails open: the message is kept.
				p.log.Warn("filter_fn failed, message kept", "route", route.Name, "error", res.Err)
			case helper.Keep:
				ctx.Merge(res.Data)
			}
		}
	}

	if route.DatamapFn != "" {
		fn, err := p.helpers.DataMap(route.DatamapFn)
		if err != nil {
			p.log.Warn("datamap_fn not found", "route", route.Name, "datamap_fn", route.DatamapFn, "error", err)
		} else {
			res := fn(ctx, msg.Topic, msg.Payload)
			if res.Outcome == helper.Errored {
				p.log.Warn("datamap_fn failed, continuing without its fields", "route", route.Name, "error", res.Err)
			} else {
				ctx.Merge(res.Data)
			}
		}
	}

	title, body, ok, err := p.format(route, ctx)
	if err != nil {
		return nil, fmt.Errorf("route %s: format stage: %w", route.Name, err)
	}
	if !ok {
		return nil, nil
	}
	ctx.Title, ctx.Body = title, body

	targets, err := p.expandTargets(route, ctx, msg.Topic)
	if err != nil {
		return nil, fmt.Errorf("route %s: target expansion: %w", route.Name, err)
	}

	jobs := make([]*Job, 0, len(targets))
	for _, t := range targets {
		svc, target, ok := strings.Cut(t, ":")
		if !ok {
			p.log.Warn("skipping malformed target, expected service:target", "route", route.Name, "target", t)
			continue
		}
		if p.validator != nil && !p.validator.ValidTarget(svc, target) {
			p.log.Warn("skipping unknown service or target", "route", route.Name, "target", t)
			continue
		}

		jobCtx := ctx
		if route.AlldataFn != "" {
			fn, ferr := p.helpers.AllData(route.AlldataFn)
			if ferr != nil {
				p.log.Warn("alldata_fn not found", "route", route.Name, "alldata_fn", route.AlldataFn, "error", ferr)
			} else {
				res := fn(ctx, t)
				if res.Outcome == helper.Errored {
					p.log.Warn("alldata_fn failed, continuing without its fields", "route", route.Name, "target", t, "error", res.Err)
				} else {
					cp := *ctx
					cp.Data = mergedCopy(ctx.Data, res.Data)
					jobCtx = &cp
				}
			}
		}

		jobs = append(jobs, &Job{
			ID:         uuid.NewString(),
			Target:     target,
			Service:    svc,
			Title:      title,
			Body:       body,
			Context:    jobCtx,
			Topic:      msg.Topic,
			Payload:    msg.Payload,
			EnqueuedAt: time.Now(),
		})
	}

	return jobs, nil
}

func (p *Pipeline) baseContext(route *Route, msg *Message) *TransformContext {
	return &TransformContext{
		Topic:      msg.Topic,
		TopicParts: strings.Split(msg.Topic, "/"),
		Payload:    msg.Payload,
		QoS:        msg.QoS,
		Retained:   msg.Retained,
		ReceivedAt: msg.Received,
		Location:   p.location,
		Decoded:    decodePayload(msg.Payload),
		Data:       make(map[string]interface{}),
	}
}

func (p *Pipeline) format(route *Route, ctx *TransformContext) (title, body string, ok bool, err error) {
	switch route.Format.Kind {
	case FormatFunction:
		fn, ferr := p.helpers.Format(route.Format.Helper)
		if ferr != nil {
			return "", "", false, ferr
		}
		rendered, res := fn(ctx, route.Name)
		if res.Outcome == helper.Drop {
			return "", "", false, nil
		}
		if res.Outcome == helper.Errored {
			return "", "", false, res.Err
		}
		return "", rendered, true, nil
	default:
		return "", renderTemplate(route.Format.Template, ctx, route.StrictPlaceholders), true, nil
	}
}

func (p *Pipeline) expandTargets(route *Route, ctx *TransformContext, topic string) ([]string, error) {
	return expandTargets(p.helpers, route, ctx, topic)
}

func mergedCopy(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
