package bus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics exposes the consumer worker's per-message outcomes to
// Prometheus. All methods are nil-safe so workers without metrics enabled
// skip the machinery entirely.
type WorkerMetrics struct {
	consumed        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	dispatched      *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
	deadLettered    *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

// NewWorkerMetrics registers the worker metric family on the given registerer
// under the consumer group label.
func NewWorkerMetrics(reg prometheus.Registerer, consumerGroup string) *WorkerMetrics {
	labels := prometheus.Labels{"consumer_group": consumerGroup}

	m := &WorkerMetrics{
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "messages_consumed_total",
			Help:        "Messages received from subscribed topics.",
			ConstLabels: labels,
		}, []string{"topic"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "messages_rejected_total",
			Help:        "Messages acknowledged without dispatch by the acceptance filter.",
			ConstLabels: labels,
		}, []string{"topic"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "events_dispatched_total",
			Help:        "Events dispatched to registered handlers.",
			ConstLabels: labels,
		}, []string{"event"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "handler_failures_total",
			Help:        "Dispatched events whose handlers returned an error.",
			ConstLabels: labels,
		}, []string{"event"}),
		deadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "messages_dead_lettered_total",
			Help:        "Messages recorded on the dead-letter sink.",
			ConstLabels: labels,
		}, []string{"topic", "reason"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "adverto",
			Subsystem:   "worker",
			Name:        "handler_duration_seconds",
			Help:        "Wall time spent dispatching one event to all handlers.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"event"}),
	}

	reg.MustRegister(m.consumed, m.rejected, m.dispatched, m.handlerFailures, m.deadLettered, m.handlerDuration)
	return m
}

func (m *WorkerMetrics) Consumed(topic string) {
	if m != nil {
		m.consumed.WithLabelValues(topic).Inc()
	}
}

func (m *WorkerMetrics) Rejected(topic string) {
	if m != nil {
		m.rejected.WithLabelValues(topic).Inc()
	}
}

func (m *WorkerMetrics) Dispatched(event string, seconds float64) {
	if m != nil {
		m.dispatched.WithLabelValues(event).Inc()
		m.handlerDuration.WithLabelValues(event).Observe(seconds)
	}
}

func (m *WorkerMetrics) HandlerFailed(event string) {
	if m != nil {
		m.handlerFailures.WithLabelValues(event).Inc()
	}
}

func (m *WorkerMetrics) DeadLettered(topic, reason string) {
	if m != nil {
		m.deadLettered.WithLabelValues(topic, reason).Inc()
	}
}
