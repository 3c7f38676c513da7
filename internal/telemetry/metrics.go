package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for Shipment Mentor calls.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipmentmentor_requests_total",
				Help: "Total number of Shipment Mentor calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipmentmentor_request_duration_seconds",
				Help:    "Shipment Mentor call duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipmentmentor_errors_total",
				Help: "Total failed Shipment Mentor calls by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
	}
}

// RecordRequest records a completed call.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a failed call.
func (m *Metrics) RecordError(operation, kind string) {
	m.ErrorsTotal.WithLabelValues(operation, kind).Inc()
}
