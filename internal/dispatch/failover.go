package dispatch

import (
	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// Enqueuer is the narrow interface FailoverRoute needs from the
// dispatcher: hand a job to its (service, target) queue. Routing
// failover jobs through the dispatcher's own queues, rather than
// delivering them synchronously, keeps them on a worker with the same
// retry and panic-recovery guarantees as any other target.
type Enqueuer interface {
	Enqueue(job *core.Job)
}

// FailoverRoute is the dedicated pseudo-route a job is handed to once
// its owning queue has exhausted its retry budget. It fans the job out
// to a fixed target list by enqueueing a copy onto each target's own
// queue; it never delivers directly and never retries itself.
type FailoverRoute struct {
	enqueuer Enqueuer
	targets  []string // "service:target" pairs
	log      *logger.Component
}

// NewFailoverRoute builds a failover route over a fixed target list.
func NewFailoverRoute(enqueuer Enqueuer, targets []string, log *logger.Component) *FailoverRoute {
	return &FailoverRoute{enqueuer: enqueuer, targets: targets, log: log}
}

// Handle enqueues job onto every failover target's own queue, logging
// the handoff. It never returns an error: failover is the last line of
// defense and has nowhere further to escalate to. Delivery outcome is
// then reported by each target's own worker, same as any other job.
func (f *FailoverRoute) Handle(job *core.Job) {
	for _, ref := range f.targets {
		svc, target, ok := splitTarget(ref)
		if !ok {
			f.log.Warn("malformed failover target, skipping", "target", ref)
			continue
		}

		failoverJob := *job
		failoverJob.Service, failoverJob.Target, failoverJob.Attempt = svc, target, 0

		f.enqueuer.Enqueue(&failoverJob)
		f.log.Info("handed off to failover target", "original_target", job.Target, "failover_target", ref)
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
