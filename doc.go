// Package main provides the entry point for the resource index server.
//
// The server keeps a content-addressed index of every visible file under a
// root directory. Files with identical bytes share one resource ID, and the
// index records how many paths carry each duplicated ID. Periodic update
// passes diff the index against the filesystem and journal what was added,
// deleted or moved.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from the environment or cgroup
//  2. Configuration Loading: Reads environment variables, then the optional
//     INI file, and validates directories
//  3. Metrics Setup: Registers build info, pre-populates label sets and wires
//     the filesystem retry observer
//  4. Database Initialization: Opens the SQLite update journal
//  5. Indexer: Builds the index in the background, then updates it on an
//     interval
//  6. HTTP Server Setup: Configures routes and middleware, then listens
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM and stops all components
//
// # Background Services
//
//   - Indexer: Periodically diffs the root directory against the index
//   - Journal Recorder: Persists each non-empty update and prunes old entries
//   - Metrics Collector: Updates index shape gauges every minute
//   - Vacuum: Compacts the journal database daily
//   - Memory Monitor: Pauses scan workers when the heap nears GOMEMLIMIT
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080): health probes and the /api routes
//  2. Metrics Server (default port 9090, optional): /metrics and /health
//
// # Environment Variables
//
//   - ROOT_DIR: Directory to index (default: /data)
//   - DATABASE_DIR: Directory for the SQLite journal (default: /database)
//   - CONFIG_FILE: Optional INI file overlaid below the environment
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - UPDATE_INTERVAL: Time between update passes, 0 disables (default: 5m)
//   - SCAN_WORKERS: Scan concurrency, 0 picks from CPU count (default: 0)
//   - JOURNAL_KEEP: Updates kept in the journal, 0 keeps all (default: 1000)
//   - LOG_HEALTH_CHECKS: Log probe requests (default: true)
//   - LOG_LEVEL: Logging level (trace/debug/info/warn/error)
//   - MEMORY_LIMIT, MEMORY_RATIO: Container memory limit and heap share
//
// # Related Packages
//
//   - [resource-index/internal/index]: The index and its update algorithm
//   - [resource-index/internal/indexer]: Background passes and health state
//   - [resource-index/internal/database]: SQLite update journal
//   - [resource-index/internal/handlers]: HTTP request handlers
//   - [resource-index/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [resource-index/internal/startup]: Configuration and initialization
package main
