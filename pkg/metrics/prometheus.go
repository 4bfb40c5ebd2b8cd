// Package metrics provides Prometheus metrics for the reputation engine.
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

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Pipeline metrics - one full discovery/aggregate/score/rank run
	refreshTotal    prometheus.Counter
	refreshFailures prometheus.Counter
	refreshDuration prometheus.Histogram

	// Discovery metrics
	discoveryDuration      prometheus.Histogram
	participantsDiscovered prometheus.Gauge

	// Aggregation metrics - partial failure visibility
	recordsSkipped   prometheus.Counter
	addressesSkipped prometheus.Counter
	aggregateWorkers prometheus.Gauge

	// Ledger RPC metrics
	ledgerCalls      *prometheus.CounterVec
	ledgerCallErrors *prometheus.CounterVec

	// Snapshot/cache metrics
	snapshotEntries      prometheus.Gauge
	snapshotComputedUnix prometheus.Gauge
	cacheServes          *prometheus.CounterVec
	cacheBlockingLoads   prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "predictfund",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.refreshTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_total",
		Help:      "Total number of pipeline refresh runs attempted",
	})

	m.refreshFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_failures_total",
		Help:      "Total number of refresh runs that failed and retained the previous snapshot",
	})

	m.refreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_duration_milliseconds",
		Help:      "Histogram of full pipeline refresh duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.discoveryDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "discovery_duration_milliseconds",
		Help:      "Histogram of participant discovery (log scan) duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.participantsDiscovered = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_discovered",
		Help:      "Number of unique participant addresses found by the last log scan",
	})

	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bet_records_skipped_total",
		Help:      "Total number of bet records skipped due to fetch failures",
	})

	m.addressesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "addresses_skipped_total",
		Help:      "Total number of addresses dropped from aggregation due to failures",
	})

	m.aggregateWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregate_workers",
		Help:      "Configured number of concurrent aggregation workers",
	})

	m.ledgerCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_calls_total",
		Help:      "Total ledger RPC calls by method",
	}, []string{"method"})

	m.ledgerCallErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_call_errors_total",
		Help:      "Total failed ledger RPC calls by method",
	}, []string{"method"})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_entries",
		Help:      "Number of qualified entries in the current leaderboard snapshot",
	})

	m.snapshotComputedUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_computed_timestamp_seconds",
		Help:      "Unix timestamp of the last successful snapshot computation",
	})

	m.cacheServes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_serves_total",
		Help:      "Leaderboard reads served by snapshot state (fresh or stale)",
	}, []string{"state"})

	m.cacheBlockingLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_blocking_loads_total",
		Help:      "Reads that had to block on the first pipeline computation",
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
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers on the global manager.

// RecordRefresh increments the refresh run counter.
func RecordRefresh() {
	globalManager.refreshTotal.Inc()
}

// RecordRefreshFailure increments the failed refresh counter.
func RecordRefreshFailure() {
	globalManager.refreshFailures.Inc()
}

// RecordRefreshDuration observes the duration of a full refresh run.
func RecordRefreshDuration(latencyMs float64) {
	globalManager.refreshDuration.Observe(latencyMs)
}

// RecordDiscoveryDuration observes the duration of a log scan.
func RecordDiscoveryDuration(latencyMs float64) {
	globalManager.discoveryDuration.Observe(latencyMs)
}

// UpdateParticipantsDiscovered sets the participant count found by the last scan.
func UpdateParticipantsDiscovered(count int) {
	globalManager.participantsDiscovered.Set(float64(count))
}

// RecordRecordSkipped increments the skipped bet record counter.
func RecordRecordSkipped() {
	globalManager.recordsSkipped.Inc()
}

// RecordAddressSkipped increments the skipped address counter.
func RecordAddressSkipped() {
	globalManager.addressesSkipped.Inc()
}

// UpdateAggregateWorkers sets the configured aggregation worker count.
func UpdateAggregateWorkers(count int) {
	globalManager.aggregateWorkers.Set(float64(count))
}

// RecordLedgerCall increments the RPC call counter for a method.
func RecordLedgerCall(method string) {
	globalManager.ledgerCalls.WithLabelValues(method).Inc()
}

// RecordLedgerCallError increments the RPC error counter for a method.
func RecordLedgerCallError(method string) {
	globalManager.ledgerCallErrors.WithLabelValues(method).Inc()
}

// UpdateSnapshotEntries sets the qualified entry count of the current snapshot.
func UpdateSnapshotEntries(count int) {
	globalManager.snapshotEntries.Set(float64(count))
}

// UpdateSnapshotComputedAt sets the computation timestamp of the current snapshot.
func UpdateSnapshotComputedAt(t time.Time) {
	globalManager.snapshotComputedUnix.Set(float64(t.Unix()))
}

// RecordCacheServe counts a read served from the snapshot in the given state.
func RecordCacheServe(state string) {
	globalManager.cacheServes.WithLabelValues(state).Inc()
}

// RecordCacheBlockingLoad counts a read that blocked on the first computation.
func RecordCacheBlockingLoad() {
	globalManager.cacheBlockingLoads.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes the HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the current heap allocation.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
