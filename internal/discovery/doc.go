// Package discovery enumerates the files under a watched root.
//
// Discovery is a pure read of the filesystem at call time: it keeps no state
// between calls. Hidden entries (leaf name starting with ".") are skipped, and
// a hidden directory prunes its entire subtree. Directories are traversed but
// never returned. Symlinks to directories are not followed, which rules out
// walk cycles; a symlink to a file is returned under its target's canonical
// path.
package discovery
