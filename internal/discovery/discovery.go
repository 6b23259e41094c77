package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resource-index/internal/logging"
	"resource-index/internal/metrics"
)

// ErrRootUnavailable is returned when the root itself cannot be walked.
var ErrRootUnavailable = errors.New("root directory unavailable")

// Entry is a discovered non-directory entry.
type Entry struct {
	// Path is the path as walked, before canonicalization.
	Path string
	// DirEntry is the directory entry reported by the walk.
	DirEntry fs.DirEntry
}

// Discover walks root and returns every non-hidden, non-directory entry keyed
// by canonical (absolute, symlink-resolved) path. Hidden names prune their
// whole subtree. Per-entry failures are logged and skipped; only a missing or
// unreadable root is reported as an error.
func Discover(root string) (map[string]Entry, error) {
	start := time.Now()
	logging.Info("Discovering all files under path %s", root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, root)
	}

	entries := make(map[string]Entry)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: %v", ErrRootUnavailable, err)
			}
			logging.Error("Error during walking %s: %v", path, err)
			metrics.DiscoveryErrors.WithLabelValues("walk").Inc()
			return nil
		}

		if path != root && IsHidden(d.Name()) {
			logging.Trace("Skipping hidden %s", path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		canonical, err := Canonicalize(path)
		if err != nil {
			logging.Error("Couldn't canonicalize %s: %v", path, err)
			metrics.DiscoveryErrors.WithLabelValues("canonicalize").Inc()
			return nil
		}

		logging.Trace("Discovered %s", canonical)
		entries[canonical] = Entry{Path: path, DirEntry: d}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, ErrRootUnavailable) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, walkErr)
	}

	metrics.DiscoveryPathsFound.Observe(float64(len(entries)))
	logging.Debug("Discovered %d paths under %s in %v", len(entries), root, time.Since(start))
	return entries, nil
}

// Canonicalize returns the absolute, symlink-resolved form of path.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// IsHidden reports whether a leaf name is hidden (starts with a dot).
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
