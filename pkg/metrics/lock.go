package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LockMetrics records coordination-lock behavior. Hold duration approaching
// the configured TTL is the signal that mutual exclusion is at risk.
type LockMetrics struct {
	acquireLatency *prometheus.HistogramVec
	holdDuration   *prometheus.HistogramVec
	busy           *prometheus.CounterVec
}

// NewLockMetrics registers the lock metrics on the provided registerer.
func NewLockMetrics(reg prometheus.Registerer) *LockMetrics {
	if reg == nil {
		return &LockMetrics{}
	}
	acquireLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lock_acquire_latency_seconds",
		Help:    "Time spent acquiring a coordination lock, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"class"})
	holdDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lock_hold_duration_seconds",
		Help:    "Time the critical section held a coordination lock.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"class"})
	busy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lock_busy_total",
		Help: "Lock acquisitions that failed after exhausting the retry policy.",
	}, []string{"class"})
	reg.MustRegister(acquireLatency, holdDuration, busy)
	return &LockMetrics{
		acquireLatency: acquireLatency,
		holdDuration:   holdDuration,
		busy:           busy,
	}
}

// ObserveAcquireLatency records the time taken to acquire a lock.
func (m *LockMetrics) ObserveAcquireLatency(class string, latency time.Duration) {
	if m == nil || m.acquireLatency == nil {
		return
	}
	m.acquireLatency.WithLabelValues(normalizeLabel(class)).Observe(latency.Seconds())
}

// ObserveHoldDuration records how long the critical section held a lock.
func (m *LockMetrics) ObserveHoldDuration(class string, held time.Duration) {
	if m == nil || m.holdDuration == nil {
		return
	}
	m.holdDuration.WithLabelValues(normalizeLabel(class)).Observe(held.Seconds())
}

// IncBusy counts a lock acquisition that gave up.
func (m *LockMetrics) IncBusy(class string) {
	if m == nil || m.busy == nil {
		return
	}
	m.busy.WithLabelValues(normalizeLabel(class)).Inc()
}

func normalizeLabel(class string) string {
	if class == "" {
		return "unknown"
	}
	return class
}
