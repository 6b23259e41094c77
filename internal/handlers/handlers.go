package handlers

import (
	"resource-index/internal/database"
	"resource-index/internal/indexer"
)

// Handlers serves the HTTP API over one indexer and its journal.
type Handlers struct {
	db      *database.Database
	indexer *indexer.Indexer
	memory  MemoryStatus
}

// MemoryStatus is the part of memory.Monitor reported by /health.
type MemoryStatus interface {
	Usage() float64
	IsPaused() bool
}

// New creates the API handlers.
func New(db *database.Database, idx *indexer.Indexer) *Handlers {
	return &Handlers{
		db:      db,
		indexer: idx,
	}
}

// SetMemory adds heap pressure to the health report. Nil removes it.
func (h *Handlers) SetMemory(m MemoryStatus) {
	h.memory = m
}
