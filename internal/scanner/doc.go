// Package scanner runs the metadata scan over a set of discovered entries.
//
// Scans are independent per-path I/O, so they run on a bounded worker pool.
// Workers only read; all results flow back over one channel to a single
// collector that builds the output map. Entries whose scan fails are logged
// and omitted, and partial results are the normal outcome on a live tree.
package scanner
