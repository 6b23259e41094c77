// Package index maintains the resource index: a map from every tracked
// canonical path under one root to the metadata of its content, together with
// the set of distinct content identities and a count of identities shared by
// several paths.
//
// # Structures
//
// Three structures are kept in step:
//
//   - pathToMeta holds one entry per tracked path.
//   - ids holds every identity with at least one tracked path.
//   - collisions holds a path count for identities held by two or more paths
//     and nothing for the rest, so a missing entry means one path.
//
// After every Build and Update the number of paths holding an identity equals
// Count(id), and the distinct identity count equals Size minus the duplicate
// paths reported by Stats.
//
// # Passes
//
// Build discovers the tree, scans every file and inserts each result. Update
// classifies the current paths against the tracked ones as preserved, updated
// (preserved with a newer mtime), created or removed. Removed and updated paths
// are retracted first. Created and updated paths are then scanned, results
// whose identity is still known are dropped, and the rest are inserted and
// reported.
//
// A path whose content reappears under a new name in the same pass is logged
// as a move and listed in IndexUpdate.Moves. Moves are best effort: a moved
// file whose content is still held elsewhere is not reported at all.
//
// # Concurrency
//
// Discovery and scanning fan out over a worker pool, but every mutation of
// the index happens on the calling goroutine. ResourceIndex itself has no
// locking; see the indexer package for a shared, periodically updated index.
package index
