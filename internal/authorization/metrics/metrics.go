package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for authorization request operations.
type Metrics struct {
	RequestsCreated prometheus.Counter
	Resolutions     *prometheus.CounterVec
	ExpiredDetected *prometheus.CounterVec
	PendingRequests prometheus.Gauge
	PollLatency     prometheus.Histogram
	ResolveLatency  prometheus.Histogram
}

// New registers and returns authorization metrics collectors.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "approval_requests_created_total",
			Help: "Total number of authorization requests created",
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_resolutions_total",
			Help: "Total number of resolved authorization requests, labeled by action",
		}, []string{"action"}),
		ExpiredDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_requests_expired_total",
			Help: "Total number of requests flipped to expired, labeled by which path detected it",
		}, []string{"detected_by"}),
		PendingRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "approval_requests_pending",
			Help: "Current number of authorization requests believed pending",
		}),
		PollLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "approval_poll_latency_seconds",
			Help:    "Latency of poll operations in seconds, including profile fetch on approval",
			Buckets: prometheus.DefBuckets,
		}),
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "approval_resolve_latency_seconds",
			Help:    "Latency of resolve operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementRequestsCreated() {
	m.RequestsCreated.Inc()
	m.PendingRequests.Inc()
}

func (m *Metrics) IncrementResolutions(action string) {
	m.Resolutions.WithLabelValues(action).Inc()
	m.PendingRequests.Dec()
}

func (m *Metrics) IncrementExpired(detectedBy string) {
	m.ExpiredDetected.WithLabelValues(detectedBy).Inc()
	m.PendingRequests.Dec()
}

// AddExpired records a batch of expiries found by a single sweep.
func (m *Metrics) AddExpired(detectedBy string, count int) {
	if count <= 0 {
		return
	}
	m.ExpiredDetected.WithLabelValues(detectedBy).Add(float64(count))
	m.PendingRequests.Sub(float64(count))
}

func (m *Metrics) ObservePollLatency(durationSeconds float64) {
	m.PollLatency.Observe(durationSeconds)
}

func (m *Metrics) ObserveResolveLatency(durationSeconds float64) {
	m.ResolveLatency.Observe(durationSeconds)
}
