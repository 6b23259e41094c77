package database

import (
	"time"

	"resource-index/internal/index"
	"resource-index/internal/resource"
)

// UpdateRecord is one journaled index update.
type UpdateRecord struct {
	ID           int64         `json:"id"`
	Root         string        `json:"root"`
	RecordedAt   time.Time     `json:"recordedAt"`
	DurationMs   int64         `json:"durationMs"`
	AddedCount   int           `json:"addedCount"`
	DeletedCount int           `json:"deletedCount"`
	MovedCount   int           `json:"movedCount"`
	Added        []AddedEntry  `json:"added,omitempty"`
	Deleted      []resource.ID `json:"deleted,omitempty"`
}

// AddedEntry is a path reported as added by an update.
type AddedEntry struct {
	Path     string      `json:"path"`
	ID       resource.ID `json:"id"`
	Size     int64       `json:"size"`
	Modified time.Time   `json:"modified"`
	Moved    bool        `json:"moved,omitempty"`
}

// NewUpdateRecord converts the result of an index pass into a record ready to
// be stored. Added entries are ordered by path and deleted IDs by size then
// digest.
func NewUpdateRecord(root string, upd *index.IndexUpdate, at time.Time, took time.Duration) *UpdateRecord {
	rec := &UpdateRecord{
		Root:         root,
		RecordedAt:   at,
		DurationMs:   took.Milliseconds(),
		AddedCount:   len(upd.Added),
		DeletedCount: len(upd.Deleted),
		MovedCount:   len(upd.Moves),
		Deleted:      upd.DeletedIDs(),
	}

	for _, path := range upd.AddedPaths() {
		meta := upd.Added[path]
		_, moved := upd.Moves[path]
		rec.Added = append(rec.Added, AddedEntry{
			Path:     path,
			ID:       meta.ID,
			Size:     meta.Size,
			Modified: meta.Modified,
			Moved:    moved,
		})
	}

	return rec
}
