// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig]. Each setting is taken from its
// environment variable when set, otherwise from the INI file named by
// CONFIG_FILE, otherwise from its default:
//
//   - ROOT_DIR, [index] root: directory tree to index (default: /data)
//   - UPDATE_INTERVAL, [index] update_interval: time between update passes as
//     a Go duration, 0 for manual only (default: 5m)
//   - SCAN_WORKERS, [index] scan_workers: concurrent scans, 0 for automatic
//   - DATABASE_DIR, [database] dir: journal directory (default: /database)
//   - JOURNAL_KEEP, [database] keep: journal records to retain, 0 for all
//     (default: 1000)
//   - PORT, [server] port: HTTP API port (default: 8080)
//   - METRICS_PORT, [server] metrics_port: Prometheus port (default: 9090)
//   - METRICS_ENABLED, [server] metrics_enabled (default: true)
//   - LOG_HEALTH_CHECKS, [server] log_health_checks (default: true)
//
// LOG_LEVEL and DEBUG are read by the logging package directly.
//
// An example file:
//
//	[index]
//	root = /srv/archive
//	update_interval = 10m
//
//	[database]
//	dir = /var/lib/resource-index
//
// # Directory Setup
//
// The root directory is checked but never created; a missing root is logged
// and later reported by the health endpoints. The database directory is
// created when missing and must be writable.
//
// # Startup Logging
//
// The package prints a banner with build information, system details, the
// resolved configuration, and the registered HTTP routes (at debug level).
package startup
