package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"resource-index/internal/database"
	"resource-index/internal/indexer"
	"resource-index/internal/logging"
	"resource-index/internal/resource"
)

const (
	defaultPathsLimit = 1000
	maxPathsLimit     = 100000
)

// ResourceResponse describes one tracked path.
type ResourceResponse struct {
	Path     string      `json:"path"`
	ID       resource.ID `json:"id"`
	Size     int64       `json:"size"`
	Modified time.Time   `json:"modified"`
}

// PathsResponse is one page of tracked paths.
type PathsResponse struct {
	Paths  []string `json:"paths"`
	Total  int      `json:"total"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// GetIndexStats returns the shape of the index as of the last pass.
func (h *Handlers) GetIndexStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.indexer.IndexStats())
}

// GetResource returns the metadata tracked for ?path=, which may be absolute
// or relative to the root.
func (h *Handlers) GetResource(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	if !h.indexer.IsReady() {
		writeJSONError(w, "index not built yet", http.StatusServiceUnavailable)
		return
	}

	meta, resolved, ok := h.indexer.Lookup(path)
	if !ok {
		writeJSONError(w, "path is not tracked", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ResourceResponse{
		Path:     resolved,
		ID:       meta.ID,
		Size:     meta.Size,
		Modified: meta.Modified,
	})
}

// ListPaths returns tracked paths in lexical order, optionally filtered by
// ?prefix= and paged with ?offset= and ?limit=.
func (h *Handlers) ListPaths(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeJSONError(w, "invalid offset", http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit", defaultPathsLimit)
	if !ok || limit == 0 {
		writeJSONError(w, "invalid limit", http.StatusBadRequest)
		return
	}
	if limit > maxPathsLimit {
		limit = maxPathsLimit
	}

	if !h.indexer.IsReady() {
		writeJSONError(w, "index not built yet", http.StatusServiceUnavailable)
		return
	}

	paths := h.indexer.Paths()
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		filtered := paths[:0:0]
		for _, p := range paths {
			if strings.HasPrefix(p, prefix) {
				filtered = append(filtered, p)
			}
		}
		paths = filtered
	}

	response := PathsResponse{
		Paths:  []string{},
		Total:  len(paths),
		Offset: offset,
		Limit:  limit,
	}
	if offset < len(paths) {
		end := offset + limit
		if end > len(paths) {
			end = len(paths)
		}
		response.Paths = paths[offset:end]
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// RunUpdate runs an update pass synchronously and returns its diff.
func (h *Handlers) RunUpdate(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	upd, err := h.indexer.RunUpdate()
	switch {
	case errors.Is(err, indexer.ErrPassInProgress):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, indexer.ErrNotReady):
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		logging.Error("Requested update failed: %v", err)
		writeJSONError(w, "update failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, database.NewUpdateRecord(h.indexer.IndexStats().Root, upd, start, time.Since(start)))
}
