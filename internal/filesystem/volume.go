package filesystem

import (
	"path/filepath"
	"slices"
	"strings"
)

const unknownVolume = "unknown"

// VolumeResolver turns a path into a short volume label for metrics by
// longest-prefix match against a fixed set of directories.
type VolumeResolver struct {
	prefixes []string // absolute, separator-terminated, longest first
	labels   map[string]string
}

// NewVolumeResolver takes label -> directory, e.g.
// {"root": "/data", "database": "/var/lib/resource-index"}.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	vr := &VolumeResolver{labels: make(map[string]string, len(volumes))}
	for label, dir := range volumes {
		p := withSep(absOrSelf(dir))
		vr.prefixes = append(vr.prefixes, p)
		vr.labels[p] = label
	}
	slices.SortFunc(vr.prefixes, func(a, b string) int { return len(b) - len(a) })
	return vr
}

// Resolve returns the label of the deepest volume containing path, or
// "unknown". A nil resolver always answers "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return unknownVolume
	}
	abs = withSep(abs)
	for _, p := range vr.prefixes {
		if strings.HasPrefix(abs, p) {
			return vr.labels[p]
		}
	}
	return unknownVolume
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func withSep(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// does not carry its own.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
