package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// Dispatcher owns one Queue per (service, target) pair actually
// referenced by a route, creating them lazily on first use so unused
// targets never spin up idle goroutines.
type Dispatcher struct {
	mu        sync.Mutex
	queues    map[string]*Queue
	deliverer Deliverer
	failover  *FailoverRoute
	opts      Options
	log       *logger.Logger
}

// NewDispatcher creates a Dispatcher backed by deliverer for normal
// delivery. Its failover route is set separately via SetFailover,
// since a FailoverRoute needs the Dispatcher itself (as an Enqueuer)
// to construct.
func NewDispatcher(deliverer Deliverer, opts Options, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		queues:    make(map[string]*Queue),
		deliverer: deliverer,
		opts:      opts,
		log:       log,
	}
}

// SetFailover installs the failover route used by every queue created
// from this point on. Must be called before the first Enqueue.
func (d *Dispatcher) SetFailover(failover *FailoverRoute) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failover = failover
}

// Enqueue routes a job to its (service, target) queue, creating the
// queue on first use.
func (d *Dispatcher) Enqueue(job *core.Job) {
	key := fmt.Sprintf("%s:%s", job.Service, job.Target)

	d.mu.Lock()
	q, ok := d.queues[key]
	if !ok {
		q = NewQueue(key, d.deliverer, d.failover, d.opts, d.log.Component(key))
		d.queues[key] = q
	}
	d.mu.Unlock()

	q.Enqueue(job)
}

// Shutdown drains and stops every queue, allowing up to grace per
// queue for in-flight delivery to finish.
func (d *Dispatcher) Shutdown(grace time.Duration) {
	d.mu.Lock()
	queues := make([]*Queue, 0, len(d.queues))
	for _, q := range d.queues {
		queues = append(queues, q)
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, q := range queues {
		wg.Add(1)
		go func(q *Queue) {
			defer wg.Done()
			q.Shutdown(grace)
		}(q)
	}
	wg.Wait()
}

// Stats reports per-queue counters, keyed by "service:target".
func (d *Dispatcher) Stats() map[string]Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]Stats, len(d.queues))
	for key, q := range d.queues {
		out[key] = q.Stats()
	}
	return out
}
