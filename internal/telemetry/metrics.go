package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of provider calls.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg. A nil reg means
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pakettikauppa_requests_total",
				Help: "Total number of Pakettikauppa API requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pakettikauppa_request_duration_seconds",
				Help:    "Pakettikauppa API request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pakettikauppa_errors_total",
				Help: "Total Pakettikauppa API errors by operation and error type",
			},
			[]string{"operation", "error_type"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error metric.
func (m *Metrics) RecordError(operation, errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.Errors.WithLabelValues(operation, errorType).Inc()
}
