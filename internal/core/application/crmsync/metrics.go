package crmsync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for CRM synchronization.
type Metrics struct {
	// Upserts by entity ("product", "deal", "deal_status") and result
	Upserts *prometheus.CounterVec

	// Failures by class ("transient", "permanent")
	Failures *prometheus.CounterVec

	// Groups handed to the async retry queue
	Enqueued prometheus.Counter

	// Raw CRM call latency by operation
	CallLatency *prometheus.HistogramVec
}

// NewMetrics registers the CRM sync metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Upserts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_crm_upserts_total",
			Help: "CRM upserts by entity and result",
		}, []string{"entity", "result"}),

		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_crm_sync_failures_total",
			Help: "Group sync failures by class",
		}, []string{"class"}),

		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_crm_sync_enqueued_total",
			Help: "Groups handed to the async CRM retry queue",
		}),

		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fulfillment_crm_call_duration_seconds",
			Help:    "Duration of raw CRM API calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
	}
}

func (m *Metrics) IncrementUpsert(entity, result string) {
	if m != nil {
		m.Upserts.WithLabelValues(entity, result).Inc()
	}
}

func (m *Metrics) IncrementFailure(class string) {
	if m != nil {
		m.Failures.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncrementEnqueued() {
	if m != nil {
		m.Enqueued.Inc()
	}
}

func (m *Metrics) ObserveCall(op string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}
