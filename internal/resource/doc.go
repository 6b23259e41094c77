// Package resource defines content identity and the metadata snapshot that
// the index stores per path, plus the default content scanner.
//
// An ID pairs a file's size with its BLAKE2b-256 digest. The index never
// looks inside an ID; it relies only on equality and map hashing, so another
// Scanner may supply IDs derived differently.
package resource
