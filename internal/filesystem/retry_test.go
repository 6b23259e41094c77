package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []RetryEvent
}

func (o *recordingObserver) ObserveRetry(ev RetryEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) last(t *testing.T) RetryEvent {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.events) != 1 {
		t.Fatalf("observer saw %d events, want 1", len(o.events))
	}
	return o.events[0]
}

func installObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	prev := observer
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(prev) })
	return obs
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithRetry_RecoversFromStaleHandle(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	got, err := withRetry("stat", "/data/file", fastRetryConfig(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, &os.PathError{Op: "stat", Path: "/data/file", Err: syscall.ESTALE}
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("withRetry() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	ev := obs.last(t)
	if ev.Stale != 2 || ev.Retries != 2 || ev.Outcome != Recovered {
		t.Errorf("event = %+v, want stale=2 retries=2 recovered", ev)
	}
	if ev.Op != "stat" {
		t.Errorf("Op = %q, want stat", ev.Op)
	}
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	_, err := withRetry("open", "/data/file", fastRetryConfig(), func() (string, error) {
		calls++
		return "", syscall.ESTALE
	})

	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (initial + 3 retries)", calls)
	}
	ev := obs.last(t)
	if ev.Outcome != Exhausted {
		t.Errorf("Outcome = %v, want exhausted", ev.Outcome)
	}
	if ev.Retries != 3 || ev.Stale != 4 {
		t.Errorf("retries/stale = %d/%d, want 3/4", ev.Retries, ev.Stale)
	}
}

func TestWithRetry_NonStaleErrorFailsImmediately(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	_, err := withRetry("stat", "/data/file", fastRetryConfig(), func() (int, error) {
		calls++
		return 0, os.ErrPermission
	})

	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("withRetry() error = %v, want permission error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if ev := obs.last(t); ev.Outcome != Failed || ev.Retries != 0 {
		t.Errorf("event = %+v, want failed with no retries", ev)
	}
}

func TestWithRetry_CleanSuccess(t *testing.T) {
	obs := installObserver(t)

	if _, err := withRetry("open", "/data/file", fastRetryConfig(), func() (bool, error) { return true, nil }); err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if ev := obs.last(t); ev.Outcome != Clean || ev.Stale != 0 {
		t.Errorf("event = %+v, want clean", ev)
	}
}

func TestSetObserverNil(t *testing.T) {
	prev := observer
	t.Cleanup(func() { SetObserver(prev) })

	SetObserver(nil)
	if _, ok := observer.(nopObserver); !ok {
		t.Errorf("SetObserver(nil) installed %T, want nopObserver", observer)
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Clean: "clean", Recovered: "recovered", Exhausted: "exhausted", Failed: "failed", Outcome(9): "unknown"} {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != int64(len("content")) {
		t.Errorf("Size() = %d, want %d", info.Size(), len("content"))
	}

	if _, err := StatWithRetry(filepath.Join(dir, "missing"), fastRetryConfig()); !os.IsNotExist(err) {
		t.Errorf("StatWithRetry(missing) error = %v, want not-exist", err)
	}
}

func TestOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry() error = %v", err)
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	if string(buf[:n]) != "content" {
		t.Errorf("read %q, want %q", buf[:n], "content")
	}

	if _, err := OpenWithRetry(filepath.Join(dir, "missing"), fastRetryConfig()); !os.IsNotExist(err) {
		t.Errorf("OpenWithRetry(missing) error = %v, want not-exist", err)
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"root":     "/data",
		"archive":  "/data/archive",
		"database": "/var/lib/resource-index",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/data/photos/a.jpg", "root"},
		{"/data", "root"},
		{"/data/archive/2024/a.tar", "archive"},
		{"/var/lib/resource-index/journal.db", "database"},
		{"/datastore/x", "unknown"},
		{"/tmp/x", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/data/x"); got != "unknown" {
		t.Errorf("nil Resolve() = %q, want unknown", got)
	}
}

func TestRetryConfig_ResolveVolume(t *testing.T) {
	prev := defaultResolver
	t.Cleanup(func() { SetDefaultVolumeResolver(prev) })

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"root": "/data"}))

	cfg := DefaultRetryConfig()
	if got := cfg.resolveVolume("/data/x"); got != "root" {
		t.Errorf("default resolver: got %q, want root", got)
	}

	cfg.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/data"})
	if got := cfg.resolveVolume("/data/x"); got != "override" {
		t.Errorf("config resolver: got %q, want override", got)
	}
}
