package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"resource-index/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest covers goroutine stacks, SQLite page cache and read buffers.
const DefaultMemoryRatio = 0.9

// CgroupMemoryMax is the cgroup v2 memory limit file.
const CgroupMemoryMax = "/sys/fs/cgroup/memory.max"

// LimitResult describes how the runtime memory limit was set.
type LimitResult struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT", "cgroup" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a memory limit is in effect.
func (r LimitResult) Configured() bool {
	return r.GoMemLimit > 0
}

// ConfigureFromEnv sets the runtime memory limit from the environment or the
// cgroup. Call it early in main before significant allocations.
//
// GOMEMLIMIT wins when set. Otherwise MEMORY_LIMIT (bytes, usually from the
// Kubernetes Downward API) or the cgroup v2 limit is scaled by MEMORY_RATIO.
func ConfigureFromEnv() LimitResult {
	return configureLimit(os.Getenv, CgroupMemoryMax)
}

func configureLimit(getenv func(string) string, cgroupPath string) LimitResult {
	if v := getenv("GOMEMLIMIT"); v != "" {
		result := LimitResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	containerLimit, source := containerLimitFrom(getenv, cgroupPath)
	if containerLimit <= 0 {
		logging.Debug("No container memory limit found, GOMEMLIMIT not configured")
		return LimitResult{Source: "none"}
	}

	ratio := ratioFrom(getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s from %s)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit), source)

	return LimitResult{
		Source:         source,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func containerLimitFrom(getenv func(string) string, cgroupPath string) (int64, string) {
	if v := getenv("MEMORY_LIMIT"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			logging.Warn("Ignoring invalid MEMORY_LIMIT %q", v)
		} else {
			return n, "MEMORY_LIMIT"
		}
	}

	if cgroupPath == "" {
		return 0, ""
	}
	data, err := os.ReadFile(cgroupPath)
	if err != nil {
		return 0, ""
	}
	raw := strings.TrimSpace(string(data))
	if raw == "max" {
		return 0, ""
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		logging.Warn("Ignoring unreadable cgroup memory limit %q", raw)
		return 0, ""
	}
	return n, "cgroup"
}

func ratioFrom(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

// formatBytes formats bytes into a human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
