// Package metrics provides Prometheus instrumentation for the resource index.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "resource_index_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of requests being served
//
// ## Database Metrics
//
//   - DBQueryTotal: Counter of journal queries by operation and status
//   - DBQueryDuration: Histogram of journal query duration by operation
//   - DBSizeBytes: Gauge of journal file sizes (main, WAL, SHM)
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal, IndexerRunDuration: passes by kind (build, update)
//   - IndexerLastRunTimestamp, IndexerLastRunDuration: the most recent pass
//   - IndexerErrors: passes that failed
//   - IndexerIsRunning: 1 while a pass holds the index
//
// ## Index Metrics
//
//   - IndexPaths, IndexDistinctResources, IndexCollidingResources,
//     IndexDuplicatePaths: the shape of the index after the last pass
//   - IndexResourcesAdded, IndexResourcesDeleted, IndexMovesDetected:
//     running totals of update diffs
//   - IndexPathsClassified: paths by class (preserved, created, updated, removed)
//
// ## Discovery and Scan Metrics
//
//   - DiscoveryPathsFound, DiscoveryErrors
//   - ScanFilesTotal, ScanDuration, ScanWorkers
//   - FreshStatErrors: modification times that could not be read during update
//
// ## Memory Metrics
//
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses: scan backpressure
//     reported by the memory monitor
//
// ## Filesystem Metrics
//
// Retries of stat and open after stale NFS file handles, labelled by
// operation and volume. The filesystem package reports them through the
// Observer returned by NewFilesystemObserver.
//
// # Collector
//
// Collector polls a StatsProvider and the journal files on an interval so
// the shape gauges stay current between passes:
//
//	collector := metrics.NewCollector(idx, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
