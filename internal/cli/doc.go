// Package cli implements the resindex command line tool.
//
// resindex runs the index in-process without the HTTP server:
//
//	resindex build [root] [--list] [--duplicates]
//	resindex watch [root] --interval 30s [--db journal.db] [--passes n]
//	resindex journal --db journal.db [--limit n] [id]
//
// Output is text on a terminal and JSON otherwise; --format overrides the
// choice. Logs go to stderr so JSON on stdout stays parseable.
package cli
