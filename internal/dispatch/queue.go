// Package dispatch implements the bounded per-target job queues and
// their worker goroutines, with retry and failover.
package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// Deliverer is the narrow interface a queue needs from the service
// registry: attempt delivery of one job.
type Deliverer interface {
	Dispatch(ctx context.Context, job *core.Job) (bool, error)
}

// Queue is one bounded FIFO feeding a single worker goroutine for one
// (service, target) pair. A full queue drops the oldest pending job
// rather than blocking the caller, since the ingest path must never
// stall on a slow or down target.
type Queue struct {
	name      string
	jobs      chan *core.Job
	deliverer Deliverer
	failover  *FailoverRoute
	limiter   *rate.Limiter
	log       *logger.Component
	maxRetries   int
	retryBackoff time.Duration

	mu       sync.Mutex
	dropped  int64
	delivered int64
	failed    int64

	stop chan struct{}
	done chan struct{}
}

// Options configures a Queue.
type Options struct {
	Capacity     int
	MaxRetries   int
	RetryBackoff time.Duration
	RateLimit    float64// jobs/sec, 0 disables
}

// NewQueue creates a bounded queue and starts its worker goroutine.
func NewQueue(name string, deliverer Deliverer, failover *FailoverRoute, opts Options, log *logger.Component) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 100
	}

	q := &Queue{
		name:         name,
		jobs:         make(chan *core.Job, capacity),
		deliverer:    deliverer,
		failover:     failover,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		log:          log,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	if opts.RateLimit > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	go q.run()
	return q
}

// Enqueue adds a job to the queue, dropping the oldest pending job if
// the queue is full. Never blocks.
func (q *Queue) Enqueue(job *core.Job) {
	select {
	case q.jobs <- job:
		return
	default:
	}

	select {
	case dropped := <-q.jobs:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		q.log.Warn("queue full, dropped oldest job", "queue", q.name, "dropped_target", dropped.Target)
	default:
	}

	select {
	case q.jobs <- job:
	default:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		q.log.Warn("queue full, dropping incoming job", "queue", q.name)
	}
}

// Shutdown signals the worker to deliver what is already queued and
// exit, and waits up to grace for it to finish. Enqueue does not check
// for shutdown; a job enqueued afterwards is not delivered.
func (q *Queue) Shutdown(grace time.Duration) {
	close(q.stop)
	select {
	case <-q.done:
	case <-time.After(grace):
		q.log.Warn("queue did not drain within grace period", "queue", q.name)
	}
}

// Stats reports the queue's lifetime counters.
type Stats struct {
	Delivered int64
	Failed    int64
	Dropped   int64
	Pending   int
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Delivered: q.delivered, Failed: q.failed, Dropped: q.dropped, Pending: len(q.jobs)}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-q.stop:
			// drain what's already queued before exiting
			for {
				select {
				case job := <-q.jobs:
					q.process(job)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) process(job *core.Job) {
	if q.limiter != nil {
		_ = q.limiter.Wait(context.Background())
	}

	ctx := context.Background()
	ok := q.attempt(ctx, job)
	for !ok && job.Attempt < q.maxRetries {
		job.Attempt++
		time.Sleep(q.backoffFor(job.Attempt))
		ok = q.attempt(ctx, job)
	}

	q.mu.Lock()
	if ok {
		q.delivered++
	} else {
		q.failed++
	}
	q.mu.Unlock()

	if !ok && q.failover != nil {
		q.failover.Handle(job)
	}
}

func (q *Queue) attempt(ctx context.Context, job *core.Job) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("plugin panicked during delivery, recovered", "queue", q.name, "target", job.Target, "panic", r)
			delivered = false
		}
	}()

	ok, err := q.deliverer.Dispatch(ctx, job)
	if err != nil {
		q.log.Warn("delivery error", "queue", q.name, "target", job.Target, "attempt", job.Attempt, "error", err)
	}
	return ok
}

func (q *Queue) backoffFor(attempt int) time.Duration {
	backoff := q.retryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	d := backoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	maxBackoff := 30 * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
