package indexer

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"resource-index/internal/discovery"
	"resource-index/internal/index"
	"resource-index/internal/logging"
	"resource-index/internal/metrics"
	"resource-index/internal/resource"
)

var (
	// ErrPassInProgress is returned when a pass is requested while another
	// one is still running.
	ErrPassInProgress = errors.New("index pass already in progress")

	// ErrNotReady is returned when an update is requested before the initial
	// build has completed.
	ErrNotReady = errors.New("index not built yet")
)

// UpdateEvent describes a completed, non-empty update pass.
type UpdateEvent struct {
	Root     string
	Update   *index.IndexUpdate
	Started  time.Time
	Duration time.Duration
}

// Indexer owns a resource index and keeps it in sync with the filesystem on
// an interval. Passes never overlap, and readers never observe an index in
// the middle of a pass.
type Indexer struct {
	root     string
	interval time.Duration
	opts     []index.Option

	stopChan chan struct{}
	stopOnce sync.Once

	// idxMu guards idx. Passes hold it for writing.
	idxMu sync.RWMutex
	idx   *index.ResourceIndex

	// passMu guards the pass state below.
	passMu       sync.Mutex
	running      bool
	ready        bool
	initialErr   error
	lastRun      time.Time
	lastDuration time.Duration
	lastUpdate   *UpdateSummary
	startTime    time.Time

	passes atomic.Int64
	stats  atomic.Value // index.Stats

	onUpdate func(UpdateEvent)
}

// UpdateSummary holds the counts of the most recent update pass.
type UpdateSummary struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
	Moved   int `json:"moved"`
}

// New creates an Indexer for root. An interval of zero disables periodic
// updates; passes then only run through RunUpdate or TriggerUpdate.
func New(root string, interval time.Duration, opts ...index.Option) *Indexer {
	idx := &Indexer{
		root:      root,
		interval:  interval,
		opts:      opts,
		stopChan:  make(chan struct{}),
		startTime: time.Now(),
	}
	idx.stats.Store(index.Stats{Root: root})
	return idx
}

// SetOnUpdate sets a callback invoked after every update pass that changed
// something. It runs on the goroutine that ran the pass.
func (idx *Indexer) SetOnUpdate(callback func(UpdateEvent)) {
	idx.onUpdate = callback
}

// Start builds the index in the background and begins periodic updates.
func (idx *Indexer) Start() error {
	go func() {
		logging.Info("Starting initial index build in background...")
		if err := idx.Build(); err != nil {
			logging.Error("Initial index build error: %v", err)
		}
	}()

	if idx.interval > 0 {
		go idx.periodicUpdate()
	}

	return nil
}

// Stop stops periodic updates. It is safe to call more than once.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		close(idx.stopChan)
	})
}

// Build builds the index from scratch, replacing any previous one.
func (idx *Indexer) Build() error {
	if !idx.tryStartPass() {
		logging.Info("Index pass already in progress, skipping build")
		return ErrPassInProgress
	}
	defer idx.finishPass()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.WithLabelValues("build").Inc()

	start := time.Now()
	built, err := index.Build(idx.root, idx.opts...)
	duration := time.Since(start)

	if err != nil {
		idx.passMu.Lock()
		if !idx.ready {
			idx.initialErr = err
		}
		idx.passMu.Unlock()

		metrics.IndexerErrors.Inc()
		return err
	}

	idx.idxMu.Lock()
	idx.idx = built
	idx.idxMu.Unlock()

	idx.passMu.Lock()
	idx.ready = true
	idx.initialErr = nil
	idx.passMu.Unlock()

	idx.completePass("build", built.Stats(), start, duration)
	return nil
}

// RunUpdate runs one update pass synchronously and returns its result.
func (idx *Indexer) RunUpdate() (*index.IndexUpdate, error) {
	if !idx.tryStartPass() {
		return nil, ErrPassInProgress
	}
	defer idx.finishPass()

	idx.idxMu.Lock()
	current := idx.idx
	if current == nil {
		idx.idxMu.Unlock()
		return nil, ErrNotReady
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.WithLabelValues("update").Inc()

	start := time.Now()
	upd, err := current.Update()
	stats := current.Stats()
	idx.idxMu.Unlock()
	duration := time.Since(start)

	if err != nil {
		metrics.IndexerErrors.Inc()
		return nil, err
	}

	idx.passMu.Lock()
	idx.lastUpdate = &UpdateSummary{Added: len(upd.Added), Deleted: len(upd.Deleted), Moved: len(upd.Moves)}
	idx.passMu.Unlock()

	idx.completePass("update", stats, start, duration)

	if !upd.IsEmpty() && idx.onUpdate != nil {
		idx.onUpdate(UpdateEvent{
			Root:     current.Root(),
			Update:   upd,
			Started:  start,
			Duration: duration,
		})
	}

	return upd, nil
}

// TriggerUpdate starts an update pass in the background.
func (idx *Indexer) TriggerUpdate() {
	go func() {
		if _, err := idx.RunUpdate(); err != nil {
			if errors.Is(err, ErrPassInProgress) || errors.Is(err, ErrNotReady) {
				logging.Info("Triggered update skipped: %v", err)
				return
			}
			logging.Error("Triggered update failed: %v", err)
		}
	}()
}

// periodicUpdate rebuilds on every tick until a build succeeds, then switches
// to incremental updates.
func (idx *Indexer) periodicUpdate() {
	logging.Info("Starting periodic index updates (interval: %v)", idx.interval)

	ticker := time.NewTicker(idx.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !idx.IsReady() {
				logging.Debug("Index not ready, retrying build")
				if err := idx.Build(); err != nil && !errors.Is(err, ErrPassInProgress) {
					logging.Error("Retried index build failed: %v", err)
				}
				continue
			}
			logging.Debug("Periodic update triggered")
			if _, err := idx.RunUpdate(); err != nil && !errors.Is(err, ErrPassInProgress) {
				logging.Error("Periodic update failed: %v", err)
			}
		case <-idx.stopChan:
			logging.Info("Periodic index updates stopped")
			return
		}
	}
}

// tryStartPass attempts to start a pass, returns false if one is in progress.
func (idx *Indexer) tryStartPass() bool {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()

	if idx.running {
		return false
	}
	idx.running = true
	return true
}

// finishPass marks the current pass as complete.
func (idx *Indexer) finishPass() {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()
	idx.running = false
}

func (idx *Indexer) completePass(kind string, stats index.Stats, start time.Time, duration time.Duration) {
	idx.stats.Store(stats)
	idx.passes.Add(1)

	idx.passMu.Lock()
	idx.lastRun = start.Add(duration)
	idx.lastDuration = duration
	idx.passMu.Unlock()

	metrics.IndexerRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())

	logging.Debug("Index %s complete: %d paths in %v", kind, stats.Paths, duration)
}

// Root returns the configured root directory.
func (idx *Indexer) Root() string {
	return idx.root
}

// IsReady returns true once the initial build has succeeded.
func (idx *Indexer) IsReady() bool {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()
	return idx.ready
}

// IsRunning returns whether a pass is currently in progress.
func (idx *Indexer) IsRunning() bool {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()
	return idx.running
}

// LastRunTime returns the completion time of the last successful pass.
func (idx *Indexer) LastRunTime() time.Time {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()
	return idx.lastRun
}

// IndexStats returns the shape of the index as of the last completed pass.
// It never waits for a running pass.
func (idx *Indexer) IndexStats() index.Stats {
	if stats, ok := idx.stats.Load().(index.Stats); ok {
		return stats
	}
	return index.Stats{}
}

// GetStats implements metrics.StatsProvider.
func (idx *Indexer) GetStats() metrics.Stats {
	s := idx.IndexStats()
	return metrics.Stats{
		Paths:              s.Paths,
		DistinctResources:  s.DistinctResources,
		CollidingResources: s.CollidingResources,
		DuplicatePaths:     s.DuplicatePaths,
	}
}

// Lookup returns the metadata tracked for path. Relative paths are resolved
// against the root, and symlinks are resolved where the path still exists.
// It waits for a running pass to finish.
func (idx *Indexer) Lookup(path string) (resource.Meta, string, bool) {
	idx.idxMu.RLock()
	defer idx.idxMu.RUnlock()

	if idx.idx == nil {
		return resource.Meta{}, "", false
	}

	resolved := idx.resolve(path)
	meta, ok := idx.idx.Get(resolved)
	return meta, resolved, ok
}

func (idx *Indexer) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(idx.idx.Root(), path)
	}
	if canonical, err := discovery.Canonicalize(path); err == nil {
		return canonical
	}
	return filepath.Clean(path)
}

// Paths returns every tracked path in lexical order, or nil before the
// initial build. It waits for a running pass to finish.
func (idx *Indexer) Paths() []string {
	idx.idxMu.RLock()
	defer idx.idxMu.RUnlock()

	if idx.idx == nil {
		return nil
	}
	return idx.idx.Paths()
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()

	stats := idx.IndexStats()

	status := HealthStatus{
		Ready:             idx.ready,
		Updating:          idx.running,
		Root:              idx.root,
		StartTime:         idx.startTime,
		Uptime:            time.Since(idx.startTime).String(),
		LastUpdated:       idx.lastRun,
		Passes:            idx.passes.Load(),
		Paths:             stats.Paths,
		DistinctResources: stats.DistinctResources,
	}

	if idx.lastDuration > 0 {
		status.LastDuration = idx.lastDuration.String()
	}
	if idx.lastUpdate != nil {
		last := *idx.lastUpdate
		status.LastUpdate = &last
	}
	if idx.initialErr != nil {
		status.InitialBuildError = idx.initialErr.Error()
	}

	return status
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Updating          bool           `json:"updating"`
	Root              string         `json:"root"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastUpdated       time.Time      `json:"lastUpdated,omitempty"`
	LastDuration      string         `json:"lastDuration,omitempty"`
	InitialBuildError string         `json:"initialBuildError,omitempty"`
	Passes            int64          `json:"passes"`
	Paths             int            `json:"paths"`
	DistinctResources int            `json:"distinctResources"`
	LastUpdate        *UpdateSummary `json:"lastUpdate,omitempty"`
}
