// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport Metrics
	WSConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printdeck_ws_connection_state",
			Help: "Push channel state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=lost)",
		},
	)

	WSReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printdeck_ws_reconnects_total",
			Help: "Total number of scheduled reconnect attempts",
		},
	)

	WSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_ws_messages_total",
			Help: "Total number of decoded push frames",
		},
		[]string{"type"},
	)

	WSDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printdeck_ws_decode_errors_total",
			Help: "Total number of malformed push frames dropped",
		},
	)

	WSDroppedSends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printdeck_ws_dropped_sends_total",
			Help: "Total number of outbound frames dropped because the channel was not open",
		},
	)

	// Backend Metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printdeck_backend_request_duration_seconds",
			Help:    "Duration of print server REST calls in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_backend_errors_total",
			Help: "Total number of failed print server REST calls",
		},
		[]string{"endpoint", "kind"}, // kind: transport, status, decode
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Store Metrics
	StoreStaleDiscards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_store_stale_discards_total",
			Help: "Total number of entity writes discarded because a newer version was stored",
		},
		[]string{"store"},
	)

	StoreRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_store_rollbacks_total",
			Help: "Total number of optimistic mutations rolled back after a failed REST write",
		},
		[]string{"store", "action"},
	)

	// Router Metrics
	RouterDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_router_dispatch_total",
			Help: "Total number of push events routed to stores",
		},
		[]string{"type", "result"}, // result: "applied", "decode_error"
	)

	RouterActiveViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printdeck_router_active_views",
			Help: "Current number of holders of the event router",
		},
	)

	// Upload Metrics
	UploadFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printdeck_upload_files_total",
			Help: "Total number of files submitted as print jobs",
		},
		[]string{"result"}, // "success", "failure"
	)

	UploadBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printdeck_upload_batch_duration_seconds",
			Help:    "Duration of a full submission batch in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// Status API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printdeck_api_request_duration_seconds",
			Help:    "Duration of status API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printdeck_api_active_requests",
			Help: "Status API requests currently being served",
		},
	)
)

// RecordBackendRequest records one REST call. kind is empty on success.
func RecordBackendRequest(method, endpoint string, duration time.Duration, kind string) {
	BackendRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if kind != "" {
		BackendErrors.WithLabelValues(endpoint, kind).Inc()
	}
}

// RecordUploadFile counts one submitted file.
func RecordUploadFile(success bool) {
	if success {
		UploadFiles.WithLabelValues("success").Inc()
		return
	}
	UploadFiles.WithLabelValues("failure").Inc()
}

// TrackActiveView adjusts the router holder gauge.
func TrackActiveView(inc bool) {
	if inc {
		RouterActiveViews.Inc()
	} else {
		RouterActiveViews.Dec()
	}
}

// RecordAPIRequest records one status API request. route is the matched
// pattern, never the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight status API request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
