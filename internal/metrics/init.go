package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, kind := range []string{"build", "update"} {
		IndexerRunsTotal.WithLabelValues(kind)
		IndexerRunDuration.WithLabelValues(kind)
	}

	for _, class := range []string{"preserved", "created", "updated", "removed"} {
		IndexPathsClassified.WithLabelValues(class)
	}

	for _, kind := range []string{"walk", "canonicalize"} {
		DiscoveryErrors.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error"} {
		ScanFilesTotal.WithLabelValues(status)
	}

	volumes := []string{"root", "database", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"migrate", "record_update", "list_updates", "get_update", "prune_updates", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
