package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueueMetrics provides observability for one I/O queue.
//
// Implementations collect metrics about admissions, cancellations,
// dispatch and completion of queued operations. The interface is
// optional - a queue constructed without metrics uses a no-op
// implementation with zero overhead.
type QueueMetrics interface {
	// RecordSubmitted counts one operation accepted into a class's
	// pending list.
	RecordSubmitted(class string)

	// RecordCancelled counts one operation resolved with a cancellation
	// failure before dispatch.
	RecordCancelled(class string)

	// RecordDispatched counts one operation handed to the execution
	// sink, split into parts pieces.
	RecordDispatched(class string, parts int)

	// RecordCompleted records the final outcome of one operation:
	// direction is "read" or "write", bytes the aggregated count (0 on
	// failure).
	RecordCompleted(direction string, bytes int64, err error)

	// SetQueueDepth updates the number of operations pending in the
	// queue.
	SetQueueDepth(depth int)

	// SetPoolTokens updates the capacity pool's available token gauge.
	SetPoolTokens(tokens uint64)
}

// queueMetrics is the Prometheus implementation of QueueMetrics.
type queueMetrics struct {
	submitted  *prometheus.CounterVec
	cancelled  *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	parts      prometheus.Counter
	completed  *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	depth      prometheus.Gauge
	poolTokens prometheus.Gauge
}

// NewQueueMetrics creates a Prometheus-backed QueueMetrics instance
// labelled with the queue's id.
//
// Returns a no-op implementation if metrics are not enabled
// (InitRegistry not called).
func NewQueueMetrics(queue string) QueueMetrics {
	if !IsEnabled() {
		return NoopQueueMetrics()
	}

	reg := GetRegistry()
	labels := prometheus.Labels{"queue": queue}

	return &queueMetrics{
		submitted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ioqueue_requests_submitted_total",
				Help:        "Total operations accepted into the queue by priority class",
				ConstLabels: labels,
			},
			[]string{"class"},
		),
		cancelled: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ioqueue_requests_cancelled_total",
				Help:        "Total operations resolved with a cancellation failure before dispatch",
				ConstLabels: labels,
			},
			[]string{"class"},
		),
		dispatched: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ioqueue_requests_dispatched_total",
				Help:        "Total operations handed to the execution sink",
				ConstLabels: labels,
			},
			[]string{"class"},
		),
		parts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name:        "ioqueue_parts_dispatched_total",
				Help:        "Total split parts handed to the execution sink",
				ConstLabels: labels,
			},
		),
		completed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ioqueue_requests_completed_total",
				Help:        "Total operations completed by direction and status",
				ConstLabels: labels,
			},
			[]string{"direction", "status"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ioqueue_bytes_transferred_total",
				Help:        "Total bytes successfully transferred by direction",
				ConstLabels: labels,
			},
			[]string{"direction"},
		),
		depth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name:        "ioqueue_pending_requests",
				Help:        "Current number of operations pending in the queue",
				ConstLabels: labels,
			},
		),
		poolTokens: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name:        "ioqueue_pool_tokens_available",
				Help:        "Capacity pool tokens currently available",
				ConstLabels: labels,
			},
		),
	}
}

func (m *queueMetrics) RecordSubmitted(class string) {
	m.submitted.WithLabelValues(class).Inc()
}

func (m *queueMetrics) RecordCancelled(class string) {
	m.cancelled.WithLabelValues(class).Inc()
}

func (m *queueMetrics) RecordDispatched(class string, parts int) {
	m.dispatched.WithLabelValues(class).Inc()
	m.parts.Add(float64(parts))
}

func (m *queueMetrics) RecordCompleted(direction string, bytes int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.completed.WithLabelValues(direction, status).Inc()
	if err == nil {
		m.bytes.WithLabelValues(direction).Add(float64(bytes))
	}
}

func (m *queueMetrics) SetQueueDepth(depth int) {
	m.depth.Set(float64(depth))
}

func (m *queueMetrics) SetPoolTokens(tokens uint64) {
	m.poolTokens.Set(float64(tokens))
}

// noopQueueMetrics is a no-op implementation of QueueMetrics.
type noopQueueMetrics struct{}

// NoopQueueMetrics returns the shared no-op QueueMetrics instance.
func NoopQueueMetrics() QueueMetrics { return noopQueueMetrics{} }

func (noopQueueMetrics) RecordSubmitted(string)               {}
func (noopQueueMetrics) RecordCancelled(string)               {}
func (noopQueueMetrics) RecordDispatched(string, int)         {}
func (noopQueueMetrics) RecordCompleted(string, int64, error) {}
func (noopQueueMetrics) SetQueueDepth(int)                    {}
func (noopQueueMetrics) SetPoolTokens(uint64)                 {}
