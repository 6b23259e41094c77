// Package memory sets the Go runtime memory limit in containers and applies
// backpressure to scans when the heap approaches it.
//
// # Limit
//
// [ConfigureFromEnv] should run first thing in main:
//
//   - GOMEMLIMIT: used as is when set
//   - MEMORY_LIMIT: container limit in bytes, typically from the Kubernetes
//     Downward API (resourceFieldRef limits.memory)
//   - /sys/fs/cgroup/memory.max: read when MEMORY_LIMIT is absent
//   - MEMORY_RATIO: share of the container limit given to the heap, default 0.9
//
// # Backpressure
//
// A [Monitor] samples heap usage on an interval and tracks a [Pressure]
// level. At PressureHigh new scan batches use half the workers. At
// PressureCritical every worker blocks in WaitIfPaused until usage falls
// below the high water mark again. The monitor is handed to the index with
// index.WithGate and reported on /health.
package memory
