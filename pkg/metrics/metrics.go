// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks total messages persisted, by author role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)

	// LLMRequestDuration tracks insight generation call duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"operation", "status"},
	)

	// StorageOpDuration tracks store operation duration.
	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// WSConnectionsActive tracks active websocket subscriber connections.
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active websocket connections",
		},
	)

	// BroadcastDeliveriesTotal counts successful broadcast deliveries.
	BroadcastDeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Total successful broadcast deliveries",
		},
	)

	// BroadcastPrunesTotal counts subscribers pruned after a failed send.
	BroadcastPrunesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_prunes_total",
			Help: "Total subscribers pruned after delivery failure",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMRequest records an insight generation call.
func RecordLLMRequest(operation, status string, duration float64) {
	LLMRequestDuration.WithLabelValues(operation, status).Observe(duration)
}

// ObserveStorageOp records the elapsed time of a store operation.
func ObserveStorageOp(operation string, start time.Time) {
	StorageOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncWSConnections increments the active websocket connection count.
func IncWSConnections() {
	WSConnectionsActive.Inc()
}

// DecWSConnections decrements the active websocket connection count.
func DecWSConnections() {
	WSConnectionsActive.Dec()
}
