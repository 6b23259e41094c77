package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the scan worker count.
const EnvOverride = "SCAN_WORKERS"

// Count returns the number of workers for a task with the given
// per-CPU multiplier. Available CPUs come from GOMAXPROCS, which honours
// container limits. A positive SCAN_WORKERS value replaces the calculation.
// The limit caps the result; 0 means no cap.
func Count(multiplier float64, limit int) int {
	if override, ok := envCount(); ok {
		return clamp(override, limit)
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return clamp(workers, limit)
}

// ForCPU returns worker count for CPU-bound tasks such as hashing (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks such as stat and read (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Resolve returns requested when it is positive, otherwise ForIO(limit).
func Resolve(requested, limit int) int {
	if requested > 0 {
		return clamp(requested, limit)
	}
	return ForIO(limit)
}

func envCount() (int, bool) {
	raw := os.Getenv(EnvOverride)
	if raw == "" {
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}

func clamp(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
