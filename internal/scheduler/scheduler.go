// Package scheduler runs configured periodic tasks, re-injecting each
// tick's payload into the transform pipeline as a synthetic message.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/helper"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// Injector is the narrow interface the scheduler needs to feed a
// tick's result back through the pipeline, just like an inbound
// broker message.
type Injector interface {
	Inject(msg *core.Message)
}

// Scheduler runs every configured PeriodicTask on its own ticker. Ticks
// for one task are always serialized: an overrunning tick causes the
// next due tick to be skipped and logged, never queued up, so a single
// slow task cannot build unbounded backlog. Tasks are independent of
// each other and run concurrently.
type Scheduler struct {
	tasks    []*core.PeriodicTask
	helpers  *helper.Registry
	injector Injector
	log      *logger.Component

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a Scheduler over the given tasks. Nothing runs until
// Start is called.
func New(tasks []*core.PeriodicTask, helpers *helper.Registry, injector Injector, log *logger.Component) *Scheduler {
	return &Scheduler{tasks: tasks, helpers: helpers, injector: injector, log: log}
}

// Start launches one goroutine per task.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}
}

// Stop cancels every task goroutine and waits for in-flight ticks to
// finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runTask drives one task off a time.Ticker, whose wall-clock-anchored
// firing doesn't drift with processing time. Each due tick runs on its
// own goroutine behind a TryLock: the ticker loop itself never blocks
// on tick execution, so it keeps draining ticker.C at every interval
// even while a previous tick is still in flight, and an overrunning
// tick causes every due tick behind it to be observed, skipped, and
// logged individually instead of silently dropped.
func (s *Scheduler) runTask(ctx context.Context, task *core.PeriodicTask) {
	defer s.wg.Done()

	interval := time.Duration(task.IntervalSeconds) * time.Second
	if interval <= 0 {
		s.log.Warn("task has non-positive interval, skipping", "task", task.Name)
		return
	}

	var running sync.Mutex
	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	runOnce := func() {
		if !running.TryLock() {
			s.log.Warn("previous tick still running, skipping this tick", "task", task.Name)
			return
		}
		inFlight.Add(1)
		go func() {
			defer inFlight.Done()
			defer running.Unlock()
			s.tick(ctx, task)
		}()
	}

	if task.RunImmediately {
		runOnce()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, task *core.PeriodicTask) {
	fn, err := s.helpers.Task(task.Helper)
	if err != nil {
		s.log.Warn("task helper not found", "task", task.Name, "helper", task.Helper, "error", err)
		return
	}

	payload, err := fn()
	if err != nil {
		s.log.Warn("task failed", "task", task.Name, "error", err)
		return
	}
	if payload == nil {
		return
	}

	s.injector.Inject(&core.Message{
		Topic:    task.Topic,
		Payload:  payload,
		Received: time.Now(),
	})
}
