package filesystem

import "time"

// Outcome classifies how a retried operation ended.
type Outcome int

const (
	// Clean means the first call succeeded.
	Clean Outcome = iota
	// Recovered means at least one stale handle was seen before success.
	Recovered
	// Exhausted means every attempt hit a stale handle.
	Exhausted
	// Failed means a non-stale error ended the operation.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Clean:
		return "clean"
	case Recovered:
		return "recovered"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RetryEvent summarises one StatWithRetry or OpenWithRetry call.
type RetryEvent struct {
	Op      string
	Volume  string
	Stale   int // ESTALE errors seen
	Retries int // sleeps taken before the final attempt
	Outcome Outcome
	Elapsed time.Duration
}

// Observer receives one event per filesystem operation. The metrics
// package implements it so this package does not import Prometheus.
type Observer interface {
	ObserveRetry(RetryEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveRetry(RetryEvent) {}

var observer Observer = nopObserver{}

// SetObserver installs o for all subsequent operations. Nil restores the
// no-op observer.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	observer = o
}
