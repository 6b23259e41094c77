/*
Package filesystem wraps os.Stat and os.Open with retry logic for NFS stale
file handle errors (ESTALE).

Watched trees are frequently network mounts. A stale handle during an update
pass would otherwise make a file look unreadable, which drops it from a scan or
hides a modification. StatWithRetry is used for the fresh modification time
read during Update; OpenWithRetry is used by the content scanner.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Only ESTALE triggers a retry. Every other error is returned immediately.
Backoff starts at 50ms, doubles per attempt and is capped at 500ms, with three
retries by default.

Each call produces one RetryEvent (stale count, retries, Outcome, elapsed
time) delivered to the Observer installed with SetObserver. Events carry a
volume label from a VolumeResolver ("root", "database", "unknown").
*/
package filesystem
