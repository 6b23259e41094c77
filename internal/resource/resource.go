package resource

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
)

// DigestSize is the length of the content digest carried by an ID.
const DigestSize = 32

// ID identifies a resource by its content. Two files with equal bytes have
// equal IDs. It is a comparable value type, so it can be copied freely and
// used directly as a map key.
type ID struct {
	Size   int64
	Digest [DigestSize]byte
}

// String renders the ID as "<size>-<hex digest>".
func (id ID) String() string {
	return strconv.FormatInt(id.Size, 10) + "-" + hex.EncodeToString(id.Digest[:])
}

// Short renders the ID with a truncated digest for log lines.
func (id ID) Short() string {
	return strconv.FormatInt(id.Size, 10) + "-" + hex.EncodeToString(id.Digest[:6])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler so IDs can be JSON map keys.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses the output of ID.String.
func ParseID(s string) (ID, error) {
	sizePart, digestPart, ok := strings.Cut(s, "-")
	if !ok {
		return ID{}, fmt.Errorf("invalid resource id %q: missing separator", s)
	}

	size, err := strconv.ParseInt(sizePart, 10, 64)
	if err != nil || size < 0 {
		return ID{}, fmt.Errorf("invalid resource id %q: bad size", s)
	}

	raw, err := hex.DecodeString(digestPart)
	if err != nil {
		return ID{}, fmt.Errorf("invalid resource id %q: %w", s, err)
	}
	if len(raw) != DigestSize {
		return ID{}, fmt.Errorf("invalid resource id %q: digest is %d bytes, want %d", s, len(raw), DigestSize)
	}

	id := ID{Size: size}
	copy(id.Digest[:], raw)
	return id, nil
}

// Meta is the snapshot taken when a file is scanned.
type Meta struct {
	ID       ID        `json:"id"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// Scanner turns a discovered file into metadata. path is the canonical
// path; entry is the directory entry produced by the walk.
type Scanner interface {
	Scan(path string, entry fs.DirEntry) (Meta, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(path string, entry fs.DirEntry) (Meta, error)

// Scan calls f(path, entry).
func (f ScannerFunc) Scan(path string, entry fs.DirEntry) (Meta, error) {
	return f(path, entry)
}
