package index

import (
	"fmt"
	"os"
	"sort"
	"time"

	"resource-index/internal/discovery"
	"resource-index/internal/filesystem"
	"resource-index/internal/logging"
	"resource-index/internal/metrics"
	"resource-index/internal/resource"
	"resource-index/internal/scanner"
	"resource-index/internal/workers"
)

// ErrRootUnavailable is returned by Build and Update when the root directory
// cannot be walked at all.
var ErrRootUnavailable = discovery.ErrRootUnavailable

// ResourceIndex maps every tracked canonical path under one root to the
// metadata of its content, and keeps an exact count of how many paths share
// each content identity.
//
// A ResourceIndex is not safe for concurrent use. Callers that share one
// across goroutines must serialize access themselves.
type ResourceIndex struct {
	root string

	pathToMeta map[string]resource.Meta
	ids        map[resource.ID]struct{}
	// collisions holds only identities held by two or more paths.
	collisions map[resource.ID]int

	scanner resource.Scanner
	workers int
	retry   filesystem.RetryConfig
	gate    scanner.Gate
	stat    func(string, filesystem.RetryConfig) (os.FileInfo, error)
}

// Option configures Build.
type Option func(*ResourceIndex)

// WithScanner replaces the default content scanner.
func WithScanner(s resource.Scanner) Option {
	return func(idx *ResourceIndex) {
		if s != nil {
			idx.scanner = s
		}
	}
}

// WithWorkers sets the number of concurrent scans. Values below 1 select the
// default for I/O bound work.
func WithWorkers(n int) Option {
	return func(idx *ResourceIndex) {
		idx.workers = n
	}
}

// WithGate applies memory backpressure to every scan batch.
func WithGate(g scanner.Gate) Option {
	return func(idx *ResourceIndex) {
		idx.gate = g
	}
}

// WithRetryConfig sets the retry policy used for fresh timestamp reads.
func WithRetryConfig(cfg filesystem.RetryConfig) Option {
	return func(idx *ResourceIndex) {
		idx.retry = cfg
	}
}

// Build discovers and scans every non-hidden file under root and returns a
// fully populated index. Files that cannot be canonicalized or scanned are
// logged and left out; only an unusable root fails the build.
func Build(root string, opts ...Option) (*ResourceIndex, error) {
	canonical, err := discovery.Canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}

	idx := &ResourceIndex{
		root:       canonical,
		pathToMeta: make(map[string]resource.Meta),
		ids:        make(map[resource.ID]struct{}),
		collisions: make(map[resource.ID]int),
		scanner:    resource.NewContentScanner(),
		retry:      filesystem.DefaultRetryConfig(),
		stat:       filesystem.StatWithRetry,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.workers = workers.Resolve(idx.workers, 0)

	logging.Info("Building index of resources under %s", idx.root)
	start := time.Now()

	entries, err := discovery.Discover(idx.root)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	metadata := scanner.ScanWithGate(entries, idx.scanner, idx.workers, idx.gate)
	for path, meta := range metadata {
		idx.insert(path, meta)
	}

	idx.publish()
	logging.Info("Index built: %d paths, %d distinct resources in %v",
		idx.Size(), idx.DistinctCount(), time.Since(start))

	return idx, nil
}

// Update re-synchronizes the index with the filesystem and reports which
// identities lost their last path and which paths carry content that was not
// known before this pass.
//
// Preserved paths are rescanned only when their modification time moved
// forward; a failed timestamp read counts as unchanged. Changed and removed
// paths are retracted before anything is inserted.
//
// New content that duplicates an identity still held by another path is
// neither reported nor inserted, so such a path stays untracked until its
// content becomes novel or the index is rebuilt. Build, by contrast, tracks
// every path including duplicates.
func (idx *ResourceIndex) Update() (*IndexUpdate, error) {
	logging.Info("Updating the index of %s", idx.root)
	start := time.Now()

	current, err := discovery.Discover(idx.root)
	if err != nil {
		return nil, fmt.Errorf("failed to update index: %w", err)
	}

	rescan := make(map[string]discovery.Entry)
	var retract []string
	var preserved, updated, created, removed int

	for path, entry := range current {
		prev, ok := idx.pathToMeta[path]
		if !ok {
			created++
			rescan[path] = entry
			continue
		}
		preserved++
		if idx.modifiedSince(path, prev) {
			updated++
			rescan[path] = entry
			retract = append(retract, path)
		}
	}
	for path := range idx.pathToMeta {
		if _, ok := current[path]; !ok {
			removed++
			retract = append(retract, path)
		}
	}

	metrics.IndexPathsClassified.WithLabelValues("preserved").Add(float64(preserved))
	metrics.IndexPathsClassified.WithLabelValues("updated").Add(float64(updated))
	metrics.IndexPathsClassified.WithLabelValues("created").Add(float64(created))
	metrics.IndexPathsClassified.WithLabelValues("removed").Add(float64(removed))
	logging.Debug("Classified paths: %d preserved, %d updated, %d created, %d removed",
		preserved, updated, created, removed)

	upd := newIndexUpdate()
	for _, path := range retract {
		idx.retract(path, upd.Deleted)
	}

	scanned := scanner.ScanWithGate(rescan, idx.scanner, idx.workers, idx.gate)
	// Must finish before any insert: Contains has to see only pre-pass state.
	for path, meta := range scanned {
		if idx.Contains(meta.ID) {
			logging.Trace("Skipping %s: content %s already tracked", path, meta.ID.Short())
			continue
		}
		if _, ok := upd.Deleted[meta.ID]; ok {
			logging.Info("Resource %s was moved to %s", meta.ID.Short(), path)
			upd.Moves[path] = meta.ID
		}
		upd.Added[path] = meta
	}

	for path, meta := range upd.Added {
		idx.insert(path, meta)
	}

	metrics.IndexResourcesAdded.Add(float64(len(upd.Added)))
	metrics.IndexResourcesDeleted.Add(float64(len(upd.Deleted)))
	metrics.IndexMovesDetected.Add(float64(len(upd.Moves)))
	idx.publish()

	logging.Info("Index updated in %v: %d deleted, %d added, %d moved",
		time.Since(start), len(upd.Deleted), len(upd.Added), len(upd.Moves))

	return upd, nil
}

// modifiedSince reports whether the file at path has a modification time
// strictly after the one recorded in prev.
func (idx *ResourceIndex) modifiedSince(path string, prev resource.Meta) bool {
	info, err := idx.stat(path, idx.retry)
	if err != nil {
		logging.Error("Couldn't retrieve modification time of %s, assuming unchanged: %v", path, err)
		metrics.FreshStatErrors.Inc()
		return false
	}
	return info.ModTime().After(prev.Modified)
}

// insert records that path now holds meta.ID.
func (idx *ResourceIndex) insert(path string, meta resource.Meta) {
	idx.pathToMeta[path] = meta

	if _, known := idx.ids[meta.ID]; known {
		if n, ok := idx.collisions[meta.ID]; ok {
			idx.collisions[meta.ID] = n + 1
		} else {
			idx.collisions[meta.ID] = 2
		}
		return
	}
	idx.ids[meta.ID] = struct{}{}
}

// retract forgets path. If it was the last path holding its identity, the
// identity is dropped and added to deleted.
func (idx *ResourceIndex) retract(path string, deleted map[resource.ID]struct{}) {
	meta, ok := idx.pathToMeta[path]
	if !ok {
		logging.Warn("Cannot retract untracked path %s", path)
		return
	}
	delete(idx.pathToMeta, path)

	if n, ok := idx.collisions[meta.ID]; ok && n > 1 {
		if n == 2 {
			delete(idx.collisions, meta.ID)
		} else {
			idx.collisions[meta.ID] = n - 1
		}
		return
	}

	delete(idx.ids, meta.ID)
	deleted[meta.ID] = struct{}{}
}

func (idx *ResourceIndex) publish() {
	stats := idx.Stats()
	metrics.IndexPaths.Set(float64(stats.Paths))
	metrics.IndexDistinctResources.Set(float64(stats.DistinctResources))
	metrics.IndexCollidingResources.Set(float64(stats.CollidingResources))
	metrics.IndexDuplicatePaths.Set(float64(stats.DuplicatePaths))
}

// Root returns the canonical root the index was built over.
func (idx *ResourceIndex) Root() string {
	return idx.root
}

// Size returns the number of tracked paths. Duplicated content counts once
// per path.
func (idx *ResourceIndex) Size() int {
	return len(idx.pathToMeta)
}

// Get returns the metadata tracked for a canonical path.
func (idx *ResourceIndex) Get(path string) (resource.Meta, bool) {
	meta, ok := idx.pathToMeta[path]
	return meta, ok
}

// Paths returns every tracked path in lexical order.
func (idx *ResourceIndex) Paths() []string {
	paths := make([]string, 0, len(idx.pathToMeta))
	for path := range idx.pathToMeta {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Contains reports whether at least one tracked path holds id.
func (idx *ResourceIndex) Contains(id resource.ID) bool {
	_, ok := idx.ids[id]
	return ok
}

// Count returns the number of tracked paths holding id.
func (idx *ResourceIndex) Count(id resource.ID) int {
	if !idx.Contains(id) {
		return 0
	}
	if n, ok := idx.collisions[id]; ok {
		return n
	}
	return 1
}

// DistinctCount returns the number of distinct identities tracked.
func (idx *ResourceIndex) DistinctCount() int {
	return len(idx.ids)
}

// Collisions returns a copy of the identities held by more than one path,
// with their path counts.
func (idx *ResourceIndex) Collisions() map[resource.ID]int {
	out := make(map[resource.ID]int, len(idx.collisions))
	for id, n := range idx.collisions {
		out[id] = n
	}
	return out
}

// Stats summarizes the shape of the index.
type Stats struct {
	Root               string `json:"root"`
	Paths              int    `json:"paths"`
	DistinctResources  int    `json:"distinctResources"`
	CollidingResources int    `json:"collidingResources"`
	DuplicatePaths     int    `json:"duplicatePaths"`
}

// Stats returns the current shape of the index. DuplicatePaths counts the
// paths beyond the first for each colliding identity.
func (idx *ResourceIndex) Stats() Stats {
	dup := 0
	for _, n := range idx.collisions {
		dup += n - 1
	}
	return Stats{
		Root:               idx.root,
		Paths:              len(idx.pathToMeta),
		DistinctResources:  len(idx.ids),
		CollidingResources: len(idx.collisions),
		DuplicatePaths:     dup,
	}
}
