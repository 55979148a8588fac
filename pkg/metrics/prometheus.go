package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Alert outcomes recorded by RecordAlert.
const (
	AlertEnqueued   = "enqueued"
	AlertDropped    = "dropped"
	AlertSuppressed = "suppressed"
	AlertDelivered  = "delivered"
	AlertFailed     = "failed"
)

// Manager manages all Prometheus metrics for the disasterscope service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions        *prometheus.CounterVec
	predictionLatency  prometheus.Histogram
	predictionErrors   *prometheus.CounterVec
	featureDefault     *prometheus.GaugeVec
	referenceRows      *prometheus.GaugeVec
	cacheRequests      *prometheus.CounterVec
	rateLimitedRequest prometheus.Counter

	// Alert pipeline
	alerts             *prometheus.CounterVec
	notifierDeliveries *prometheus.CounterVec
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	workerActiveCount  prometheus.Gauge
	workerLatency      prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Without WithPrometheusRegistry the
// series are registered on prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "disasterscope",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

//nolint:funlen // one place for every series
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Hazard predictions served, by hazard and risk level"),
		[]string{"hazard", "level"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "End-to-end latency of a three-hazard prediction", m.histogramBuckets),
	)
	m.predictionErrors = auto.NewCounterVec(
		m.counterOpts("prediction_errors_total", "Classifier evaluation failures by hazard"),
		[]string{"hazard"},
	)
	m.featureDefault = auto.NewGaugeVec(
		m.gaugeOpts("feature_default_value", "Resolved fallback value per feature, labelled with the source that served it"),
		[]string{"feature", "source"},
	)
	m.referenceRows = auto.NewGaugeVec(
		m.gaugeOpts("reference_rows", "Rows loaded per reference dataset"),
		[]string{"dataset"},
	)
	m.cacheRequests = auto.NewCounterVec(
		m.counterOpts("cache_requests_total", "Prediction cache lookups by result"),
		[]string{"result"},
	)
	m.rateLimitedRequest = auto.NewCounter(
		m.counterOpts("rate_limited_total", "Prediction requests rejected by the rate limiter"),
	)

	m.alerts = auto.NewCounterVec(
		m.counterOpts("alerts_total", "Alert pipeline events by outcome"),
		[]string{"outcome"},
	)
	m.notifierDeliveries = auto.NewCounterVec(
		m.counterOpts("notifier_deliveries_total", "Alert deliveries per notifier and result"),
		[]string{"notifier", "result"},
	)
	m.queueSize = auto.NewGauge(m.gaugeOpts("alert_queue_size", "Current number of queued alerts"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("alert_queue_capacity", "Maximum alert queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("alert_queue_utilization_ratio", "Alert queue utilization (size / capacity)"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("alert_worker_active_count", "Running alert workers"))
	m.workerLatency = auto.NewHistogram(
		m.histogramOpts("alert_delivery_latency_milliseconds", "Time spent delivering one alert to all notifiers", m.histogramBuckets),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordPrediction counts one served prediction for a hazard at a level.
func RecordPrediction(hazard, level string) {
	globalManager.predictions.WithLabelValues(hazard, level).Inc()
}

// RecordPredictionLatency records end-to-end prediction latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordPredictionError counts a failed classifier evaluation.
func RecordPredictionError(hazard string) {
	globalManager.predictionErrors.WithLabelValues(hazard).Inc()
}

// SetFeatureDefault publishes the fallback value resolved for a feature.
func SetFeatureDefault(feature, source string, value float64) {
	globalManager.featureDefault.WithLabelValues(feature, source).Set(value)
}

// UpdateReferenceRows sets the row count of a reference dataset.
func UpdateReferenceRows(dataset string, rows int) {
	globalManager.referenceRows.WithLabelValues(dataset).Set(float64(rows))
}

// RecordCacheHit counts a prediction cache hit.
func RecordCacheHit() {
	globalManager.cacheRequests.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a prediction cache miss.
func RecordCacheMiss() {
	globalManager.cacheRequests.WithLabelValues("miss").Inc()
}

// RecordRateLimited counts a request rejected with 429.
func RecordRateLimited() {
	globalManager.rateLimitedRequest.Inc()
}

// RecordAlert counts an alert pipeline event. See the Alert* constants.
func RecordAlert(outcome string) {
	globalManager.alerts.WithLabelValues(outcome).Inc()
}

// RecordNotifierDelivery counts a per-notifier delivery result ("ok" or "error").
func RecordNotifierDelivery(notifier, result string) {
	globalManager.notifierDeliveries.WithLabelValues(notifier, result).Inc()
}

// UpdateQueueSize sets the current alert queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum alert queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the alert queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// UpdateWorkerActiveCount sets the number of running alert workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records alert delivery latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
