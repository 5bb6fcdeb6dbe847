// Package metrics provides Prometheus metrics for the medtracker service.
package metrics

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Score buckets cover the [0,1] overlap ratio in 0.1 steps.
var scoreBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the medtracker service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer
	gatherer         prometheus.Gatherer

	// Prediction Metrics
	predictionsTotal        prometheus.Counter
	predictionLatency       prometheus.Histogram
	predictionTopScore      prometheus.Histogram
	predictionInputSymptoms prometheus.Histogram
	knowledgeBaseConditions prometheus.Gauge

	// History Store Metrics
	historyAppends      prometheus.Counter
	historyFetches      prometheus.Counter
	historyErrors       *prometheus.CounterVec
	historyStoreLatency *prometheus.HistogramVec

	// Nearby Proxy Metrics
	nearbyRequests        *prometheus.CounterVec
	nearbyUpstreamLatency prometheus.Histogram
	nearbyUpstreamErrors  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// current holds the manager recorders write to; Configure swaps it.
var current atomic.Pointer[Manager] //nolint:gochecknoglobals // process-wide metrics manager

func init() { //nolint:gochecknoinits // metrics must be usable before config is loaded
	Configure()
}

// Configure replaces the process-wide manager with one built from opts on a
// fresh registry, so metrics can be reconfigured without duplicate
// registration. Any WithPrometheusRegistry option is overridden.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append(slices.Clip(opts), WithPrometheusRegistry(registry))...)
	m.gatherer = registry
	current.Store(m)
	return m
}

// Enabled reports whether the process-wide manager records anything.
func Enabled() bool { return current.Load().enabled }

// RefreshInterval returns how often the process-wide system gauges should be
// refreshed.
func RefreshInterval() time.Duration { return current.Load().refreshInterval }

// active returns the manager to record into, or nil when recording is off.
func active() *Manager {
	m := current.Load()
	if !m.enabled {
		return nil
	}
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "medtracker",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval returns how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) constLabels() prometheus.Labels {
	if len(m.customLabels) == 0 {
		return nil
	}
	labels := make(prometheus.Labels, len(m.customLabels))
	for k, v := range m.customLabels {
		labels[k] = v
	}
	return labels
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)
	labels := m.constLabels()

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predictions_total"),
		Help:        "Total number of symptom predictions served",
		ConstLabels: labels,
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prediction_latency_milliseconds"),
		Help:        "Time spent normalizing and scoring a prediction in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.predictionTopScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prediction_top_score"),
		Help:        "Score of the best-matching condition per prediction",
		Buckets:     scoreBuckets,
		ConstLabels: labels,
	})

	m.predictionInputSymptoms = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prediction_input_symptoms"),
		Help:        "Number of normalized symptoms per prediction",
		Buckets:     []float64{0, 1, 2, 3, 5, 8, 13, 21, 50, 100},
		ConstLabels: labels,
	})

	m.knowledgeBaseConditions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("knowledge_base_conditions"),
		Help:        "Number of conditions loaded in the knowledge base",
		ConstLabels: labels,
	})

	m.historyAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("history_appends_total"),
		Help:        "Total number of history entries appended",
		ConstLabels: labels,
	})

	m.historyFetches = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("history_fetches_total"),
		Help:        "Total number of history fetches",
		ConstLabels: labels,
	})

	m.historyErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("history_errors_total"),
			Help:        "Total number of failed history store operations by operation",
			ConstLabels: labels,
		},
		[]string{"operation"},
	)

	m.historyStoreLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("history_store_latency_milliseconds"),
			Help:        "History store round-trip latency in milliseconds by operation",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"operation"},
	)

	m.nearbyRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("nearby_requests_total"),
			Help:        "Total number of nearby searches relayed by upstream status code",
			ConstLabels: labels,
		},
		[]string{"status_code"},
	)

	m.nearbyUpstreamLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("nearby_upstream_latency_milliseconds"),
		Help:        "Overpass round-trip latency in milliseconds",
		Buckets:     []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		ConstLabels: labels,
	})

	m.nearbyUpstreamErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("nearby_upstream_errors_total"),
		Help:        "Total number of failed Overpass calls (transport errors and timeouts)",
		ConstLabels: labels,
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds (user experience)",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Total number of errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint, method and type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that ended in an error in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Prediction Metrics Functions.

// RecordPrediction records one served prediction.
func RecordPrediction(latencyMs float64, inputSymptoms int, topScore float64) {
	m := active()
	if m == nil {
		return
	}
	m.predictionsTotal.Inc()
	m.predictionLatency.Observe(latencyMs)
	m.predictionInputSymptoms.Observe(float64(inputSymptoms))
	m.predictionTopScore.Observe(topScore)
}

// UpdateKnowledgeBaseConditions sets the number of loaded conditions.
func UpdateKnowledgeBaseConditions(count int) {
	m := active()
	if m == nil {
		return
	}
	m.knowledgeBaseConditions.Set(float64(count))
}

// History Store Metrics Functions.

// RecordHistoryAppend records a successful append and its latency.
func RecordHistoryAppend(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.historyAppends.Inc()
	m.historyStoreLatency.WithLabelValues("append").Observe(latencyMs)
}

// RecordHistoryFetch records a successful fetch and its latency.
func RecordHistoryFetch(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.historyFetches.Inc()
	m.historyStoreLatency.WithLabelValues("fetch").Observe(latencyMs)
}

// RecordHistoryError records a failed store operation ("append" or "fetch").
func RecordHistoryError(operation string, latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.historyErrors.WithLabelValues(operation).Inc()
	m.errorLatency.WithLabelValues("history_store", operation).Observe(latencyMs)
}

// Nearby Proxy Metrics Functions.

// RecordNearbyRelay records a relayed upstream response.
func RecordNearbyRelay(statusCode string, latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.nearbyRequests.WithLabelValues(statusCode).Inc()
	m.nearbyUpstreamLatency.Observe(latencyMs)
}

// RecordNearbyUpstreamError records a failed upstream call.
func RecordNearbyUpstreamError(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.nearbyUpstreamErrors.Inc()
	m.errorLatency.WithLabelValues("overpass", "upstream_error").Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	m := active()
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m := active()
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	m := active()
	if m == nil {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	m := active()
	if m == nil {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	m := active()
	if m == nil {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	m := active()
	if m == nil {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the process-wide manager writes to.
func GetRegistry() prometheus.Gatherer {
	return current.Load().gatherer
}

// Gatherer resolves the current registry on every scrape, so handlers built
// before Configure still expose the live metrics.
func Gatherer() prometheus.Gatherer {
	return prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		return GetRegistry().Gather()
	})
}
