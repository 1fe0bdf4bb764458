package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_lifecycle_operations_total",
			Help: "Total number of lifecycle operations by outcome",
		},
		[]string{"operation", "result"},
	)

	eventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_side_effect_events_total",
			Help: "Total number of domain events processed by the side-effect worker",
		},
		[]string{"event_type", "result"},
	)
)

// RecordOperation counts a lifecycle operation, labelled "ok" or with the error kind.
func RecordOperation(operation string, err error) {
	operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

// RecordEvent counts an event handled by the side-effect worker.
func RecordEvent(eventType string, err error) {
	eventsHandled.WithLabelValues(eventType, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.KindOf(err))
}
