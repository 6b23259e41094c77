package metrics

import "resource-index/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// resource_index_filesystem_* collectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(ev filesystem.RetryEvent) {
	if ev.Stale > 0 {
		FilesystemStaleErrors.WithLabelValues(ev.Op, ev.Volume).Add(float64(ev.Stale))
	}
	if ev.Retries > 0 {
		FilesystemRetryAttempts.WithLabelValues(ev.Op, ev.Volume).Add(float64(ev.Retries))
	}
	switch ev.Outcome {
	case filesystem.Recovered:
		FilesystemRetrySuccess.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.Exhausted:
		FilesystemRetryFailures.WithLabelValues(ev.Op, ev.Volume).Inc()
	}
	FilesystemRetryDuration.WithLabelValues(ev.Op, ev.Volume).Observe(ev.Elapsed.Seconds())
}
