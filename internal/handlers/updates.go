package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"resource-index/internal/database"
	"resource-index/internal/logging"
)

const (
	defaultUpdatesLimit = 50
	maxUpdatesLimit     = 1000
)

// ListUpdates returns journaled update summaries, newest first.
func (h *Handlers) ListUpdates(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultUpdatesLimit)
	if !ok || limit == 0 {
		writeJSONError(w, "invalid limit", http.StatusBadRequest)
		return
	}
	if limit > maxUpdatesLimit {
		limit = maxUpdatesLimit
	}

	records, err := h.db.ListUpdates(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list updates: %v", err)
		writeJSONError(w, "failed to list updates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, records)
}

// GetUpdate returns one journaled update with its added paths and deleted IDs.
func (h *Handlers) GetUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid update id", http.StatusBadRequest)
		return
	}

	rec, err := h.db.GetUpdate(r.Context(), id)
	if errors.Is(err, database.ErrUpdateNotFound) {
		writeJSONError(w, "update not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Failed to get update %d: %v", id, err)
		writeJSONError(w, "failed to get update", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, rec)
}
