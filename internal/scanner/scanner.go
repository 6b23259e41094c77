package scanner

import (
	"sync"
	"time"

	"resource-index/internal/discovery"
	"resource-index/internal/logging"
	"resource-index/internal/metrics"
	"resource-index/internal/resource"
)

// scanJob represents a file to be scanned
type scanJob struct {
	path  string
	entry discovery.Entry
}

// scanResult represents a scanned file
type scanResult struct {
	path string
	meta resource.Meta
	err  error
}

// Gate applies memory backpressure to a scan.
type Gate interface {
	// WaitIfPaused blocks while processing should be paused.
	WaitIfPaused() bool
	// ShouldThrottle reports whether fewer workers should be used.
	ShouldThrottle() bool
}

// ScanAll scans every entry with s using up to workers goroutines and returns
// the successful results keyed by canonical path. Failed entries are logged
// and left out. Results are merged by a single collector, so the returned map
// is never written concurrently.
func ScanAll(entries map[string]discovery.Entry, s resource.Scanner, workers int) map[string]resource.Meta {
	return ScanWithGate(entries, s, workers, nil)
}

// ScanWithGate is ScanAll with backpressure: the worker count is halved when
// gate asks for throttling, and every worker waits on gate before each file.
// A nil gate disables backpressure.
func ScanWithGate(entries map[string]discovery.Entry, s resource.Scanner, workers int, gate Gate) map[string]resource.Meta {
	result := make(map[string]resource.Meta, len(entries))
	if len(entries) == 0 {
		return result
	}

	if gate != nil && gate.ShouldThrottle() && workers > 1 {
		logging.Info("Memory pressure high, reducing scan workers from %d to %d", workers, workers/2)
		workers /= 2
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	logging.Info("Scanning metadata of %d paths with %d workers", len(entries), workers)
	start := time.Now()
	metrics.ScanWorkers.Set(float64(workers))

	jobs := make(chan scanJob, workers)
	results := make(chan scanResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if gate != nil {
					gate.WaitIfPaused()
				}
				meta, err := s.Scan(job.path, job.entry.DirEntry)
				results <- scanResult{path: job.path, meta: meta, err: err}
			}
		}()
	}

	go func() {
		for path, entry := range entries {
			jobs <- scanJob{path: path, entry: entry}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	failed := 0
	for r := range results {
		if r.err != nil {
			failed++
			logging.Error("Couldn't retrieve metadata for %s: %v", r.path, r.err)
			metrics.ScanFilesTotal.WithLabelValues("error").Inc()
			continue
		}
		logging.Trace("Scanned %s: %s", r.path, r.meta.ID.Short())
		metrics.ScanFilesTotal.WithLabelValues("success").Inc()
		result[r.path] = r.meta
	}

	duration := time.Since(start)
	metrics.ScanDuration.Observe(duration.Seconds())
	logging.Debug("Scan complete: %d scanned, %d failed in %v", len(result), failed, duration)

	return result
}
