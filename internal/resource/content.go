package resource

import (
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/crypto/blake2b"

	"resource-index/internal/filesystem"
)

// ContentScanner derives IDs from file bytes with BLAKE2b-256.
type ContentScanner struct {
	Retry filesystem.RetryConfig
}

// NewContentScanner returns a ContentScanner using the default NFS retry policy.
func NewContentScanner() *ContentScanner {
	return &ContentScanner{Retry: filesystem.DefaultRetryConfig()}
}

// Scan stats and hashes the file at path. Symlinks are followed, so the
// metadata describes the target. Non-regular files are rejected.
func (s *ContentScanner) Scan(path string, _ fs.DirEntry) (Meta, error) {
	info, err := filesystem.StatWithRetry(path, s.Retry)
	if err != nil {
		return Meta{}, err
	}
	if !info.Mode().IsRegular() {
		return Meta{}, fmt.Errorf("not a regular file (mode %s)", info.Mode().Type())
	}

	f, err := filesystem.OpenWithRetry(path, s.Retry)
	if err != nil {
		return Meta{}, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return Meta{}, fmt.Errorf("failed to initialise digest: %w", err)
	}

	n, err := io.Copy(h, f)
	if err != nil {
		return Meta{}, fmt.Errorf("failed to read content: %w", err)
	}

	id := ID{Size: n}
	copy(id.Digest[:], h.Sum(nil))

	return Meta{
		ID:       id,
		Modified: info.ModTime(),
		Size:     n,
	}, nil
}

// IDOf computes the ID for an in-memory byte slice, matching what
// ContentScanner produces for a file holding the same bytes.
func IDOf(data []byte) ID {
	return ID{Size: int64(len(data)), Digest: blake2b.Sum256(data)}
}
