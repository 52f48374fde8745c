package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the directory gateway.
type Metrics struct {
	// Request latency by route and status code
	RequestLatency *prometheus.HistogramVec

	// Directory search latency by outcome
	SearchLatency *prometheus.HistogramVec

	// Intermediary address lookups by kind (reliable, express)
	ForwardLookups *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sds_request_duration_seconds",
			Help:    "Duration of inbound HTTP requests by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),

		SearchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sds_directory_search_duration_seconds",
			Help:    "Duration of directory searches by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}), // outcome: "ok", "timeout", "error"

		ForwardLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sds_forward_address_lookups_total",
			Help: "Total intermediary address lookups by kind",
		}, []string{"kind"}),
	}
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}

// ObserveSearch records the duration of one directory search.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	if m != nil {
		m.SearchLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementForwardLookup counts a secondary lookup for an intermediary address.
func (m *Metrics) IncrementForwardLookup(kind string) {
	if m != nil {
		m.ForwardLookups.WithLabelValues(kind).Inc()
	}
}
