// Package helper implements the compiled-in name-to-callable registry
// that stands in for dynamic module-function loading: filter_fn,
// datamap_fn, alldata_fn, format functions and scheduled-task
// callables are all registered here under a name and looked up by it
// when used: per message by the pipeline, per tick by the scheduler.
package helper

import "fmt"

// Outcome is the explicit result a filter/datamap/alldata helper can
// return in place of raising an exception or returning a sentinel
// value.
type Outcome int

const (
	Keep Outcome = iota
	Drop
	Errored
)

// Result carries a helper's outcome plus whatever data it produced.
type Result struct {
	Outcome Outcome
	Data    map[string]interface{}
	Err     error
}

// KeepResult returns a successful result that keeps the message,
// optionally merging fields into the transform context.
func KeepResult(data map[string]interface{}) Result {
	return Result{Outcome: Keep, Data: data}
}

// DropResult returns a result that drops the message from further
// processing.
func DropResult() Result {
	return Result{Outcome: Drop}
}

// ErrorResult wraps an error from a failing helper. Callers decide
// per-stage whether an Errored result fails open or closed.
func ErrorResult(err error) Result {
	return Result{Outcome: Errored, Err: err}
}

// Context is the read-only view of the in-flight message a helper
// receives. It is a narrow interface so helpers cannot mutate fields
// they were not given.
type Context interface {
	Value(name string) (interface{}, bool)
}

// FilterFunc decides whether a message should continue through the
// pipeline.
type FilterFunc func(ctx Context, topic string, payload []byte) Result

// DataMapFunc augments the transform context with derived fields.
type DataMapFunc func(ctx Context, topic string, payload []byte) Result

// AllDataFunc augments the transform context once a target has been
// resolved, receiving the target name as well.
type AllDataFunc func(ctx Context, target string) Result

// FormatFunc renders a message body directly, bypassing template
// interpolation. It is called once per route with the route name;
// returning Drop suppresses delivery to every target of that route.
type FormatFunc func(ctx Context, route string) (string, Result)

// TargetsFunc computes a route's target list at dispatch time.
type TargetsFunc func(ctx Context, topic string) ([]string, error)

// TaskFunc is a periodic scheduler callable. It returns the payload to
// re-inject into the pipeline on the configured topic, or nil to skip
// this tick.
type TaskFunc func() ([]byte, error)

// Registry is the compiled-in name -> callable table. It is built once
// at startup from the known helper functions and is read-only after
// that, so it is safe to share across dispatch workers and the
// scheduler without locking.
type Registry struct {
	filters  map[string]FilterFunc
	datamaps map[string]DataMapFunc
	alldatas map[string]AllDataFunc
	formats  map[string]FormatFunc
	targets  map[string]TargetsFunc
	tasks    map[string]TaskFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		filters:  make(map[string]FilterFunc),
		datamaps: make(map[string]DataMapFunc),
		alldatas: make(map[string]AllDataFunc),
		formats:  make(map[string]FormatFunc),
		targets:  make(map[string]TargetsFunc),
		tasks:    make(map[string]TaskFunc),
	}
}

func (r *Registry) RegisterFilter(name string, fn FilterFunc)     { r.filters[name] = fn }
func (r *Registry) RegisterDataMap(name string, fn DataMapFunc)    { r.datamaps[name] = fn }
func (r *Registry) RegisterAllData(name string, fn AllDataFunc)    { r.alldatas[name] = fn }
func (r *Registry) RegisterFormat(name string, fn FormatFunc)      { r.formats[name] = fn }
func (r *Registry) RegisterTargets(name string, fn TargetsFunc)    { r.targets[name] = fn }
func (r *Registry) RegisterTask(name string, fn TaskFunc)          { r.tasks[name] = fn }

func (r *Registry) Filter(name string) (FilterFunc, error) {
	fn, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("helper: no filter_fn registered as %q", name)
	}
	return fn, nil
}

func (r *Registry) DataMap(name string) (DataMapFunc, error) {
	fn, ok := r.datamaps[name]
	if !ok {
		return nil, fmt.Errorf("helper: no datamap_fn registered as %q", name)
	}
	return fn, nil
}

func (r *Registry) AllData(name string) (AllDataFunc, error) {
	fn, ok := r.alldatas[name]
	if !ok {
		return nil, fmt.Errorf("helper: no alldata_fn registered as %q", name)
	}
	return fn, nil
}

func (r *Registry) Format(name string) (FormatFunc, error) {
	fn, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("helper: no format function registered as %q", name)
	}
	return fn, nil
}

func (r *Registry) Targets(name string) (TargetsFunc, error) {
	fn, ok := r.targets[name]
	if !ok {
		return nil, fmt.Errorf("helper: no targets function registered as %q", name)
	}
	return fn, nil
}

func (r *Registry) Task(name string) (TaskFunc, error) {
	fn, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("helper: no task registered as %q", name)
	}
	return fn, nil
}
