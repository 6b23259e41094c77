package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"resource-index/internal/logging"
	"resource-index/internal/metrics"
)

// Config holds the monitor thresholds as fractions of the memory limit.
type Config struct {
	// LimitBytes overrides the runtime memory limit. Zero uses GOMEMLIMIT.
	LimitBytes        int64
	HighWaterMark     float64
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Pressure is the monitor's view of heap usage.
type Pressure int

const (
	PressureNormal Pressure = iota
	// PressureHigh halves scan concurrency.
	PressureHigh
	// PressureCritical stops scan workers until usage drops below the high
	// water mark.
	PressureCritical
)

// next applies hysteresis: once critical, usage must fall below the high
// water mark before the level drops.
func (c Config) next(cur Pressure, usage float64) Pressure {
	switch {
	case usage >= c.CriticalWaterMark:
		return PressureCritical
	case cur == PressureCritical && usage >= c.HighWaterMark:
		return PressureCritical
	case usage >= c.HighWaterMark:
		return PressureHigh
	}
	return PressureNormal
}

// Monitor samples the heap on an interval and exposes the result as a
// scanner.Gate.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	mu       sync.RWMutex
	usage    float64
	pressure Pressure
	resume   chan struct{} // closed when leaving PressureCritical

	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewMonitor builds a monitor. Without a limit from config or GOMEMLIMIT it
// stays at PressureNormal forever.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		// SetMemoryLimit(-1) reads without changing; math.MaxInt64 means unset.
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		} else {
			logging.Debug("memory monitor disabled: no memory limit")
		}
	}
	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: func() uint64 {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			return ms.Alloc
		},
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	m.startOnce.Do(func() {
		go func() {
			t := time.NewTicker(m.config.CheckInterval)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					m.check()
				case <-m.done:
					return
				}
			}
		}()
	})
}

// Stop ends sampling and releases blocked WaitIfPaused callers with false.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Monitor) check() {
	if m.limit <= 0 {
		return
	}
	usage := float64(m.readAlloc()) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.pressure
	m.usage = usage
	m.pressure = m.config.next(prev, usage)

	switch {
	case m.pressure == PressureCritical && prev != PressureCritical:
		logging.Warn("heap at %.1f%% of limit, pausing scans", usage*100)
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case prev == PressureCritical && m.pressure != PressureCritical:
		logging.Info("heap back to %.1f%% of limit, resuming scans", usage*100)
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// WaitIfPaused blocks while pressure is critical. False means the monitor
// stopped first.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	paused, resume := m.pressure == PressureCritical, m.resume
	m.mu.RUnlock()
	if !paused {
		return true
	}

	select {
	case <-resume:
		return true
	case <-m.done:
		return false
	}
}

func (m *Monitor) Pressure() Pressure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

func (m *Monitor) ShouldThrottle() bool { return m.Pressure() >= PressureHigh }

func (m *Monitor) IsPaused() bool { return m.Pressure() == PressureCritical }

// Usage is the last sample as a fraction of the limit, 0 without one.
func (m *Monitor) Usage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usage
}
