// Package metrics exposes Prometheus counters and gauges for the
// broker, dispatch queues and scheduler.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every metric family the daemon exports. It is built
// once at startup and its fields are safe for concurrent use. The
// supervisor updates MessagesReceived, JobsEnqueued and
// BrokerConnected; nothing updates the other families, so they are
// exported at zero.
type Metrics struct {
	MessagesReceived   *prometheus.CounterVec
	JobsEnqueued       *prometheus.CounterVec
	JobsDropped        *prometheus.CounterVec
	JobsDelivered       *prometheus.CounterVec
	JobsFailed          *prometheus.CounterVec
	JobsFailedOver      *prometheus.CounterVec
	DeliveryDuration    *prometheus.HistogramVec
	BrokerConnected      prometheus.Gauge
	SchedulerTicks       *prometheus.CounterVec
	SchedulerTickSkipped *prometheus.CounterVec

	registry *prometheus.Registry
}

// New builds a Metrics instance registered against a fresh registry,
// namespaced so it never collides with another Prometheus exporter in
// the same process.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_received_total", Help: "Inbound MQTT messages received, by matching route.",
		}, []string{"route"}),
		JobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_enqueued_total", Help: "Dispatch jobs enqueued, by service and target.",
		}, []string{"service", "target"}),
		JobsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_dropped_total", Help: "Dispatch jobs dropped due to a full queue.",
		}, []string{"service", "target"}),
		JobsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_delivered_total", Help: "Dispatch jobs successfully delivered.",
		}, []string{"service", "target"}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_failed_total", Help: "Dispatch jobs that exhausted their retry budget.",
		}, []string{"service", "target"}),
		JobsFailedOver: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_failed_over_total", Help: "Dispatch jobs handed to the failover route.",
		}, []string{"service", "target"}),
		DeliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "delivery_duration_seconds", Help: "Time spent in a single delivery attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		BrokerConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "broker_connected", Help: "1 if the MQTT broker connection is up, 0 otherwise.",
		}),
		SchedulerTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scheduler_ticks_total", Help: "Periodic task ticks executed.",
		}, []string{"task"}),
		SchedulerTickSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scheduler_ticks_skipped_total", Help: "Periodic task ticks skipped because the previous tick was still running.",
		}, []string{"task"}),
	}

	reg.MustRegister(
		m.MessagesReceived, m.JobsEnqueued, m.JobsDropped, m.JobsDelivered,
		m.JobsFailed, m.JobsFailedOver, m.DeliveryDuration, m.BrokerConnected,
		m.SchedulerTicks, m.SchedulerTickSkipped,
	)

	return m
}

// Registry returns the Prometheus registry the metrics were registered
// against, for mounting an /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
