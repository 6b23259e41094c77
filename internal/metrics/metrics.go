package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_index_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_db_queries_total",
			Help: "Total number of journal database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_index_db_query_duration_seconds",
			Help:    "Journal database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resource_index_db_size_bytes",
			Help: "Size of SQLite journal files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Indexer pass metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_runs_total",
			Help: "Total number of index passes",
		},
		[]string{"kind"}, // "build", "update"
	)

	IndexerRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_index_run_duration_seconds",
			Help:    "Duration of index passes in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"kind"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_last_run_timestamp",
			Help: "Timestamp of the last completed index pass",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_last_run_duration_seconds",
			Help: "Duration of the last index pass in seconds",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_errors_total",
			Help: "Total number of failed index passes",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_running",
			Help: "Whether an index pass is currently running (1 = running, 0 = idle)",
		},
	)
)

// Index shape and diff metrics
var (
	IndexPaths = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_paths",
			Help: "Number of tracked paths (nominal index size)",
		},
	)

	IndexDistinctResources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_distinct_resources",
			Help: "Number of distinct content identities with at least one tracked path",
		},
	)

	IndexCollidingResources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_colliding_resources",
			Help: "Number of content identities held by two or more paths",
		},
	)

	IndexDuplicatePaths = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_duplicate_paths",
			Help: "Number of tracked paths beyond the first for each identity",
		},
	)

	IndexResourcesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_resources_added_total",
			Help: "Total number of paths reported as added by update passes",
		},
	)

	IndexResourcesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_resources_deleted_total",
			Help: "Total number of content identities reported as deleted by update passes",
		},
	)

	IndexMovesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_moves_detected_total",
			Help: "Total number of same-pass moves detected by update passes",
		},
	)

	IndexPathsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_paths_classified_total",
			Help: "Paths classified by update passes",
		},
		[]string{"class"}, // "preserved", "created", "updated", "removed"
	)
)

// Discovery and scan metrics
var (
	DiscoveryPathsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resource_index_discovery_paths",
			Help:    "Number of paths returned by a discovery walk",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		},
	)

	DiscoveryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_discovery_errors_total",
			Help: "Entries skipped during discovery",
		},
		[]string{"kind"}, // "walk", "canonicalize"
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_scan_files_total",
			Help: "Files passed to the metadata scanner",
		},
		[]string{"status"}, // "success", "error"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resource_index_scan_duration_seconds",
			Help:    "Duration of a metadata scan batch in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_scan_workers",
			Help: "Number of workers used by the last scan batch",
		},
	)

	FreshStatErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_fresh_stat_errors_total",
			Help: "Preserved paths whose modification time could not be read during update",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_index_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_index_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_index_memory_paused",
			Help: "Whether scanning is paused for memory pressure (1 = paused, 0 = running)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_index_memory_gc_pauses_total",
			Help: "Times scanning was paused and a GC forced for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resource_index_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
