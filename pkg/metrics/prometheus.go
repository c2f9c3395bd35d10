// Package metrics provides Prometheus metrics for the athletix service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Normalization
	payloadShapes       *prometheus.CounterVec
	payloadsMalformed   prometheus.Counter
	markersNormalized   prometheus.Counter
	markersDropped      prometheus.Counter
	duplicatesCollapsed prometheus.Counter

	// Interpretation and scoring
	interpretations    *prometheus.CounterVec
	readinessComputed  prometheus.Counter
	readinessSuppresed prometheus.Counter
	cohortEmpty        prometheus.Counter

	// Ingestion
	ingestEnqueued  *prometheus.CounterVec
	ingestDuplicate prometheus.Counter
	ingestRejected  prometheus.Counter
	ingestProcessed *prometheus.CounterVec
	ingestErrors    *prometheus.CounterVec

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "athletix",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.payloadShapes = m.counterVec("payload_shapes_total", "Genes payloads seen by encoding", "encoding")
	m.payloadsMalformed = m.counter("payloads_malformed_total", "Genes payloads that could not be decoded")
	m.markersNormalized = m.counter("markers_normalized_total", "Marker records produced by normalization")
	m.markersDropped = m.counter("markers_dropped_total", "Documents that yielded no marker")
	m.duplicatesCollapsed = m.counter("duplicates_collapsed_total", "Marker records removed by identity deduplication")

	m.interpretations = m.counterVec("interpretations_total", "Genotype interpretations by impact", "impact")
	m.readinessComputed = m.counter("readiness_computed_total", "Readiness scores computed")
	m.readinessSuppresed = m.counter("readiness_suppressed_total", "Readiness requests without a usable record")
	m.cohortEmpty = m.counter("cohort_empty_total", "Cohort aggregations with no contributing record")

	m.ingestEnqueued = m.counterVec("ingest_enqueued_total", "Ingestion jobs accepted", "kind")
	m.ingestDuplicate = m.counter("ingest_duplicate_total", "Ingestion jobs ignored by idempotency key")
	m.ingestRejected = m.counter("ingest_rejected_total", "Ingestion jobs rejected because the queue was full")
	m.ingestProcessed = m.counterVec("ingest_processed_total", "Ingestion jobs persisted", "kind")
	m.ingestErrors = m.counterVec("ingest_errors_total", "Ingestion jobs that failed to persist", "kind")

	m.queueSize = m.gauge("queue_size", "Current ingestion queue length")
	m.queueCapacity = m.gauge("queue_capacity", "Ingestion queue capacity")
	m.workerCount = m.gauge("worker_count", "Running ingestion workers")
	m.workerProcessingLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "worker_processing_latency_milliseconds",
		Help: "Ingestion job processing latency in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and type", "endpoint", "method", "error_type", "severity")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Document store operation latency in milliseconds", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Document store operation failures", "op")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPause = m.gauge("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

func active() bool {
	return globalManager != nil && globalManager.enabled
}

// RecordPayloadShape counts a genes payload by encoding name.
func RecordPayloadShape(encoding string, n int) {
	if active() && n > 0 {
		globalManager.payloadShapes.WithLabelValues(encoding).Add(float64(n))
	}
}

// RecordPayloadsMalformed counts undecodable genes payloads.
func RecordPayloadsMalformed(n int) {
	if active() && n > 0 {
		globalManager.payloadsMalformed.Add(float64(n))
	}
}

// RecordMarkersNormalized counts marker records produced by normalization.
func RecordMarkersNormalized(n int) {
	if active() && n > 0 {
		globalManager.markersNormalized.Add(float64(n))
	}
}

// RecordMarkersDropped counts documents that produced no marker.
func RecordMarkersDropped(n int) {
	if active() && n > 0 {
		globalManager.markersDropped.Add(float64(n))
	}
}

// RecordDuplicatesCollapsed counts records removed by deduplication.
func RecordDuplicatesCollapsed(n int) {
	if active() && n > 0 {
		globalManager.duplicatesCollapsed.Add(float64(n))
	}
}

// RecordInterpretation counts one interpretation by impact.
func RecordInterpretation(impact string) {
	if active() {
		globalManager.interpretations.WithLabelValues(impact).Inc()
	}
}

// RecordReadinessComputed counts a computed readiness score.
func RecordReadinessComputed() {
	if active() {
		globalManager.readinessComputed.Inc()
	}
}

// RecordReadinessSuppressed counts a readiness request with no usable data.
func RecordReadinessSuppressed() {
	if active() {
		globalManager.readinessSuppresed.Inc()
	}
}

// RecordCohortEmpty counts an aggregation that had no data.
func RecordCohortEmpty() {
	if active() {
		globalManager.cohortEmpty.Inc()
	}
}

// RecordIngestEnqueued counts an accepted ingestion job.
func RecordIngestEnqueued(kind string) {
	if active() {
		globalManager.ingestEnqueued.WithLabelValues(kind).Inc()
	}
}

// RecordIngestDuplicate counts a job skipped by idempotency key.
func RecordIngestDuplicate() {
	if active() {
		globalManager.ingestDuplicate.Inc()
	}
}

// RecordIngestRejected counts a job refused by backpressure.
func RecordIngestRejected() {
	if active() {
		globalManager.ingestRejected.Inc()
	}
}

// RecordIngestProcessed counts a persisted job.
func RecordIngestProcessed(kind string) {
	if active() {
		globalManager.ingestProcessed.WithLabelValues(kind).Inc()
	}
}

// RecordIngestError counts a job that failed to persist.
func RecordIngestError(kind string) {
	if active() {
		globalManager.ingestErrors.WithLabelValues(kind).Inc()
	}
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	if active() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if active() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	if active() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes one job's processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if active() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if active() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if active() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	if active() {
		globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
	}
}

// RecordStoreLatency observes a store operation duration.
func RecordStoreLatency(op string, latencyMs float64) {
	if active() {
		globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
	}
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	if active() {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if active() {
		globalManager.systemMemory.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	if active() {
		globalManager.systemGoroutines.Set(float64(n))
	}
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if active() {
		globalManager.systemGCPause.Set(ms)
	}
}

// GetRegistry returns the registry exposed on the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
