// Package metrics provides Prometheus metrics for the redzone pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the redzone service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Provider metrics - outbound calls and poller health
	providerRequests        *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec
	pollCycles              *prometheus.CounterVec
	circuitState            *prometheus.GaugeVec
	quotaUsed               *prometheus.GaugeVec
	quotaLimit              *prometheus.GaugeVec
	requestsThisMinute      *prometheus.GaugeVec
	emergencyStop           prometheus.Gauge

	// Pipeline metrics - normalization, attribution, dedup
	eventsNormalized   *prometheus.CounterVec
	eventsAttributed   prometheus.Counter
	eventsDuplicate    prometheus.Counter
	eventsDropped      *prometheus.CounterVec
	attributionLatency prometheus.Histogram

	// Mapping metrics
	mappingSyncs        *prometheus.CounterVec
	mappingCount        prometheus.Gauge
	mappingLookupMisses prometheus.Counter

	// Event cache metrics
	cacheEvents          prometheus.Gauge
	cacheEventsPerLeague *prometheus.GaugeVec
	cacheEvictions       prometheus.Counter

	// Queue and worker metrics
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueues     prometheus.Counter
	queueDequeues     prometheus.Counter
	queueEnqueueErrs  prometheus.Counter
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	// HTTP API metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "redzone",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.providerRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "provider_requests_total",
		Help: "Outbound provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	m.providerRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "provider_request_duration_ms",
		Help:    "Outbound provider request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"provider"})

	m.pollCycles = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "poll_cycles_total",
		Help: "Completed poll cycles by provider and result.",
	}, []string{"provider", "result"})

	m.circuitState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "circuit_open",
		Help: "Circuit breaker state per provider (1 = open).",
	}, []string{"provider"})

	m.quotaUsed = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "quota_used",
		Help: "Daily quota consumed per provider.",
	}, []string{"provider"})

	m.quotaLimit = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "quota_limit",
		Help: "Configured daily quota per provider.",
	}, []string{"provider"})

	m.requestsThisMinute = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "requests_this_minute",
		Help: "Requests issued in the current minute bucket per provider.",
	}, []string{"provider"})

	m.emergencyStop = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "emergency_stop",
		Help: "Global emergency stop flag (1 = engaged).",
	})

	m.eventsNormalized = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_normalized_total",
		Help: "Normalized scoring events emitted per provider.",
	}, []string{"provider"})

	m.eventsAttributed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_attributed_total",
		Help: "Attributed events written to the per-league cache.",
	})

	m.eventsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_duplicate_total",
		Help: "Events suppressed by play-identity deduplication.",
	})

	m.eventsDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_dropped_total",
		Help: "Events dropped before attribution, by reason.",
	}, []string{"reason"})

	m.attributionLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "attribution_latency_ms",
		Help:    "Attribution latency per event in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.mappingSyncs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "mapping_syncs_total",
		Help: "Player mapping sync runs by final status.",
	}, []string{"status"})

	m.mappingCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "mapping_count",
		Help: "Canonical player mappings currently stored.",
	})

	m.mappingLookupMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "mapping_lookup_misses_total",
		Help: "Mapping lookups that missed the local store.",
	})

	m.cacheEvents = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_events",
		Help: "Attributed events currently cached across all leagues.",
	})

	m.cacheEventsPerLeague = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_events_per_league",
		Help: "Attributed events currently cached per league.",
	}, []string{"league"})

	m.cacheEvictions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_evictions_total",
		Help: "Events evicted from the ring cache.",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Events currently queued between pollers and workers.",
	})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured event queue capacity.",
	})

	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Events accepted by the queue.",
	})

	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Events handed to workers.",
	})

	m.queueEnqueueErrs = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Enqueue attempts rejected (closed or full queue).",
	})

	m.workerLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_ms",
		Help:    "Worker end-to-end event processing latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Worker processing failures.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Diagnostic API requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "Diagnostic API request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "memory_bytes",
		Help: "Allocated heap bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "goroutines",
		Help: "Current goroutine count.",
	})
}

// Provider metrics.

func RecordProviderRequest(provider, outcome string) {
	globalManager.providerRequests.WithLabelValues(provider, outcome).Inc()
}

func RecordProviderRequestDuration(provider string, latencyMs float64) {
	globalManager.providerRequestDuration.WithLabelValues(provider).Observe(latencyMs)
}

func RecordPollCycle(provider, result string) {
	globalManager.pollCycles.WithLabelValues(provider, result).Inc()
}

func UpdateCircuitOpen(provider string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	globalManager.circuitState.WithLabelValues(provider).Set(v)
}

func UpdateQuota(provider string, used, limit int) {
	globalManager.quotaUsed.WithLabelValues(provider).Set(float64(used))
	globalManager.quotaLimit.WithLabelValues(provider).Set(float64(limit))
}

func UpdateRequestsThisMinute(provider string, count int) {
	globalManager.requestsThisMinute.WithLabelValues(provider).Set(float64(count))
}

func UpdateEmergencyStop(engaged bool) {
	v := 0.0
	if engaged {
		v = 1.0
	}
	globalManager.emergencyStop.Set(v)
}

// Pipeline metrics.

func RecordEventNormalized(provider string) {
	globalManager.eventsNormalized.WithLabelValues(provider).Inc()
}

func RecordEventAttributed() {
	globalManager.eventsAttributed.Inc()
}

func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

func RecordAttributionLatency(latencyMs float64) {
	globalManager.attributionLatency.Observe(latencyMs)
}

// Mapping metrics.

func RecordMappingSync(status string) {
	globalManager.mappingSyncs.WithLabelValues(status).Inc()
}

func UpdateMappingCount(count int) {
	globalManager.mappingCount.Set(float64(count))
}

func RecordMappingLookupMiss() {
	globalManager.mappingLookupMisses.Inc()
}

// Cache metrics.

func UpdateCacheEvents(total int) {
	globalManager.cacheEvents.Set(float64(total))
}

func UpdateCacheEventsForLeague(league string, count int) {
	globalManager.cacheEventsPerLeague.WithLabelValues(league).Set(float64(count))
}

func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// Queue and worker metrics.

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry served by the diagnostics API.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
