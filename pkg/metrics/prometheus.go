// Package metrics provides Prometheus metrics for the live scan gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the gateway's Prometheus metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Admission metrics
	scansAdmitted *prometheus.CounterVec
	quotaDenied   *prometheus.CounterVec
	ledgerErrors  prometheus.Counter

	// Relay metrics
	activeStreams  prometheus.Gauge
	relayBytes     prometheus.Counter
	upstreamErrors *prometheus.CounterVec
	streamDuration prometheus.Histogram

	// Timeline metrics
	framesEmitted     prometheus.Counter
	simulatedAdvances prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "livescan",
		subsystem:        "gateway",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scansAdmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scans_admitted_total",
		Help:      "Total number of scans admitted through the quota gate",
	}, []string{"tier"})

	m.quotaDenied = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_denied_total",
		Help:      "Total number of scan requests denied at the daily quota",
	}, []string{"tier"})

	m.ledgerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_errors_total",
		Help:      "Total number of quota ledger storage failures (fail-closed denials)",
	})

	m.activeStreams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_streams",
		Help:      "Number of scan event streams currently being relayed",
	})

	m.relayBytes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "relay_bytes_total",
		Help:      "Total bytes relayed from the analysis engine to clients",
	})

	m.upstreamErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_errors_total",
		Help:      "Total upstream failures forwarded to clients, by status code",
	}, []string{"status"})

	m.streamDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_duration_seconds",
		Help:      "Histogram of relayed stream lifetimes in seconds",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	})

	m.framesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_frames_total",
		Help:      "Total timeline frames emitted to subscribers",
	})

	m.simulatedAdvances = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_simulated_advances_total",
		Help:      "Total step advances produced by the fallback timer rather than real events",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request durations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers operating on the global manager.

// RecordScanAdmitted increments the admitted scan counter for a tier.
func RecordScanAdmitted(tier string) {
	globalManager.scansAdmitted.WithLabelValues(tier).Inc()
}

// RecordQuotaDenied increments the quota denial counter for a tier.
func RecordQuotaDenied(tier string) {
	globalManager.quotaDenied.WithLabelValues(tier).Inc()
}

// RecordLedgerError increments the ledger failure counter.
func RecordLedgerError() {
	globalManager.ledgerErrors.Inc()
}

// StreamOpened marks one more relayed stream as active.
func StreamOpened() {
	globalManager.activeStreams.Inc()
}

// StreamClosed marks a relayed stream as finished and records its lifetime.
func StreamClosed(seconds float64) {
	globalManager.activeStreams.Dec()
	globalManager.streamDuration.Observe(seconds)
}

// RecordRelayBytes adds to the relayed byte counter.
func RecordRelayBytes(n int64) {
	globalManager.relayBytes.Add(float64(n))
}

// RecordUpstreamError counts an upstream failure by forwarded status code.
func RecordUpstreamError(status string) {
	globalManager.upstreamErrors.WithLabelValues(status).Inc()
}

// RecordFrameEmitted counts a timeline frame delivery.
func RecordFrameEmitted() {
	globalManager.framesEmitted.Inc()
}

// RecordSimulatedAdvance counts a fallback-timer step advance.
func RecordSimulatedAdvance() {
	globalManager.simulatedAdvances.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry backing the global manager, for serving.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
