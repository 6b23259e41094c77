package index

import (
	"bytes"
	"sort"

	"resource-index/internal/resource"
)

// IndexUpdate is the outcome of one Update pass.
type IndexUpdate struct {
	// Deleted holds identities that have no remaining path.
	Deleted map[resource.ID]struct{} `json:"deleted"`
	// Added holds paths whose identity was not known before the pass.
	Added map[string]resource.Meta `json:"added"`
	// Moves holds the subset of Added whose identity also appears in
	// Deleted. It is informational; Deleted and Added still list both sides.
	Moves map[string]resource.ID `json:"moves,omitempty"`
}

func newIndexUpdate() *IndexUpdate {
	return &IndexUpdate{
		Deleted: make(map[resource.ID]struct{}),
		Added:   make(map[string]resource.Meta),
		Moves:   make(map[string]resource.ID),
	}
}

// IsEmpty reports whether the pass changed nothing.
func (u *IndexUpdate) IsEmpty() bool {
	return len(u.Deleted) == 0 && len(u.Added) == 0
}

// DeletedIDs returns Deleted as a slice ordered by size, then digest.
func (u *IndexUpdate) DeletedIDs() []resource.ID {
	ids := make([]resource.ID, 0, len(u.Deleted))
	for id := range u.Deleted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Size != ids[j].Size {
			return ids[i].Size < ids[j].Size
		}
		return bytes.Compare(ids[i].Digest[:], ids[j].Digest[:]) < 0
	})
	return ids
}

// AddedPaths returns the keys of Added in lexical order.
func (u *IndexUpdate) AddedPaths() []string {
	paths := make([]string, 0, len(u.Added))
	for path := range u.Added {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
