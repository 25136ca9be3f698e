// Package metrics provides Prometheus metrics for the epidata client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the epidata client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Request Metrics - one series per data source
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	validationErrors *prometheus.CounterVec
	transportErrors  *prometheus.CounterVec

	// Scheduler Metrics - periodic fetches run by the CLI
	scheduledRuns *prometheus.CounterVec

	// Telemetry HTTP Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "epidata",
		subsystem:        "client",
		histogramBuckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "requests_total",
			Help:        "Total number of API requests by data source and outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"source", "outcome"},
	)

	m.requestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "request_duration_milliseconds",
			Help:        "API round trip duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"source"},
	)

	m.requestsInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "requests_in_flight",
		Help:        "Number of API requests awaiting a response",
		ConstLabels: m.constLabels,
	})

	m.validationErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "validation_errors_total",
			Help:        "Queries rejected before reaching the network",
			ConstLabels: m.constLabels,
		},
		[]string{"source"},
	)

	m.transportErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "transport_errors_total",
			Help:        "Requests that failed in transport or decoding",
			ConstLabels: m.constLabels,
		},
		[]string{"source", "kind"},
	)

	m.scheduledRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "scheduled_runs_total",
			Help:        "Periodic fetch runs by job and status",
			ConstLabels: m.constLabels,
		},
		[]string{"job", "status"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of telemetry HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "Telemetry HTTP request duration in milliseconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRequest counts a completed request.
func (m *Manager) RecordRequest(source, outcome string) {
	m.requests.WithLabelValues(source, outcome).Inc()
}

// RecordRequestDuration observes a round trip duration.
func (m *Manager) RecordRequestDuration(source string, durationMs float64) {
	m.requestDuration.WithLabelValues(source).Observe(durationMs)
}

// RecordRequest counts a completed request.
func RecordRequest(source, outcome string) {
	globalManager.RecordRequest(source, outcome)
}

// RecordRequestDuration observes a round trip duration in milliseconds.
func RecordRequestDuration(source string, durationMs float64) {
	globalManager.RecordRequestDuration(source, durationMs)
}

// IncRequestsInFlight marks a request as started.
func IncRequestsInFlight() {
	globalManager.requestsInFlight.Inc()
}

// DecRequestsInFlight marks a request as finished.
func DecRequestsInFlight() {
	globalManager.requestsInFlight.Dec()
}

// RecordValidationError counts a rejected query.
func RecordValidationError(source string) {
	globalManager.validationErrors.WithLabelValues(source).Inc()
}

// RecordTransportError counts a transport or decode failure.
func RecordTransportError(source, kind string) {
	globalManager.transportErrors.WithLabelValues(source, kind).Inc()
}

// RecordScheduledRun counts one periodic run.
func RecordScheduledRun(job, status string) {
	globalManager.scheduledRuns.WithLabelValues(job, status).Inc()
}

// RecordHTTPRequest records a telemetry HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records telemetry HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
