// Package indexer runs the resource index as a background service.
//
// The indexer builds the index once on start and then brings it up to date
// on a fixed interval. Passes can also be requested on demand through
// RunUpdate (synchronous) or TriggerUpdate (fire and forget); a request that
// arrives while a pass is running is rejected with ErrPassInProgress rather
// than queued.
//
// Only one goroutine ever mutates the index. Lookups and path listings wait
// for a running pass, while health and statistics are served from a snapshot
// taken at the end of the last pass so they never block.
//
// Every update pass that changed something is handed to the OnUpdate
// callback, which the server uses to append it to the journal.
package indexer
