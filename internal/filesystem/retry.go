package filesystem

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"resource-index/internal/logging"
)

// RetryConfig bounds the ESTALE retry loop.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels metrics for this call. Nil uses the resolver
	// installed with SetDefaultVolumeResolver.
	VolumeResolver *VolumeResolver
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

func (c *RetryConfig) nextBackoff(cur time.Duration) time.Duration {
	if next := cur * 2; next < c.MaxBackoff {
		return next
	}
	return c.MaxBackoff
}

func isNFSStaleError(err error) bool {
	return errors.Is(err, unix.ESTALE)
}

// StatWithRetry is os.Stat retried on ESTALE. Symlinks are followed.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open retried on ESTALE.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// withRetry calls fn up to MaxRetries+1 times. Only ESTALE is retried and
// the observer hears about the call once, after it finishes.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	ev := RetryEvent{Op: op, Volume: config.resolveVolume(path)}
	began := time.Now()
	defer func() {
		ev.Elapsed = time.Since(began)
		observer.ObserveRetry(ev)
	}()

	wait := config.InitialBackoff
	for {
		v, err := fn()
		switch {
		case err == nil:
			if ev.Stale > 0 {
				ev.Outcome = Recovered
				logging.Info("%s %s recovered after %d stale handle(s)", op, path, ev.Stale)
			}
			return v, nil
		case !isNFSStaleError(err):
			ev.Outcome = Failed
			return v, err
		}

		ev.Stale++
		if ev.Retries == config.MaxRetries {
			ev.Outcome = Exhausted
			logging.Warn("%s %s: still stale after %d retries: %v", op, path, ev.Retries, err)
			var zero T
			return zero, err
		}

		ev.Retries++
		logging.Debug("%s %s: stale handle, retry %d/%d in %v", op, path, ev.Retries, config.MaxRetries, wait)
		time.Sleep(wait)
		wait = config.nextBackoff(wait)
	}
}
