// Package database provides the SQLite update journal.
//
// Every non-empty index update is recorded with the paths it added and the
// identities it deleted, so the history of a watched tree can be inspected
// after the fact. The index itself is never persisted; it is rebuilt from the
// filesystem on start.
//
// The database uses WAL mode so readers (the HTTP API, the CLI) do not block
// the indexer while it records a pass. Child rows cascade on delete, which
// PruneUpdates relies on.
package database
