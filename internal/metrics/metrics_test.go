package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"resource-index/internal/filesystem"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric prometheus.Collector
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBSizeBytes", DBSizeBytes},
		{"IndexerRunsTotal", IndexerRunsTotal},
		{"IndexerRunDuration", IndexerRunDuration},
		{"IndexerLastRunTimestamp", IndexerLastRunTimestamp},
		{"IndexerLastRunDuration", IndexerLastRunDuration},
		{"IndexerErrors", IndexerErrors},
		{"IndexerIsRunning", IndexerIsRunning},
		{"IndexPaths", IndexPaths},
		{"IndexDistinctResources", IndexDistinctResources},
		{"IndexCollidingResources", IndexCollidingResources},
		{"IndexDuplicatePaths", IndexDuplicatePaths},
		{"IndexResourcesAdded", IndexResourcesAdded},
		{"IndexResourcesDeleted", IndexResourcesDeleted},
		{"IndexMovesDetected", IndexMovesDetected},
		{"IndexPathsClassified", IndexPathsClassified},
		{"DiscoveryPathsFound", DiscoveryPathsFound},
		{"DiscoveryErrors", DiscoveryErrors},
		{"ScanFilesTotal", ScanFilesTotal},
		{"ScanDuration", ScanDuration},
		{"ScanWorkers", ScanWorkers},
		{"FreshStatErrors", FreshStatErrors},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemRetrySuccess", FilesystemRetrySuccess},
		{"FilesystemRetryFailures", FilesystemRetryFailures},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
		{"FilesystemRetryDuration", FilesystemRetryDuration},
		{"MemoryUsageRatio", MemoryUsageRatio},
		{"MemoryPaused", MemoryPaused},
		{"MemoryGCPauses", MemoryGCPauses},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Fatalf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestMetricNamesArePrefixed(t *testing.T) {
	InitializeMetrics()
	SetAppInfo("test", "abc123", "go1.25")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := 0
	for _, mf := range families {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") || strings.HasPrefix(name, "process_") || strings.HasPrefix(name, "promhttp_") {
			continue
		}
		found++
		if !strings.HasPrefix(name, "resource_index_") {
			t.Errorf("metric %q is missing the resource_index_ prefix", name)
		}
	}
	if found == 0 {
		t.Error("no application metrics gathered")
	}
}

func TestCounterOperations(t *testing.T) {
	tests := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"resources added", IndexResourcesAdded},
		{"resources deleted", IndexResourcesDeleted},
		{"moves detected", IndexMovesDetected},
		{"indexer errors", IndexerErrors},
		{"fresh stat errors", FreshStatErrors},
		{"classified created", IndexPathsClassified.WithLabelValues("created")},
		{"scan error", ScanFilesTotal.WithLabelValues("error")},
		{"db query", DBQueryTotal.WithLabelValues("record_update", "success")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter)
			tt.counter.Add(3)
			if got := testutil.ToFloat64(tt.counter) - before; got != 3 {
				t.Errorf("counter delta = %v, want 3", got)
			}
		})
	}
}

func TestGaugeOperations(t *testing.T) {
	IndexerIsRunning.Set(1)
	if got := testutil.ToFloat64(IndexerIsRunning); got != 1 {
		t.Errorf("IndexerIsRunning = %v, want 1", got)
	}
	IndexerIsRunning.Set(0)
	if got := testutil.ToFloat64(IndexerIsRunning); got != 0 {
		t.Errorf("IndexerIsRunning = %v, want 0", got)
	}

	ScanWorkers.Set(8)
	if got := testutil.ToFloat64(ScanWorkers); got != 8 {
		t.Errorf("ScanWorkers = %v, want 8", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("v1.2.3", "deadbeef", "go1.25.0")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("v1.2.3", "deadbeef", "go1.25.0")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestInitializeMetricsPrePopulatesLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name      string
		collector prometheus.Collector
		wantMin   int
	}{
		{"db size files", DBSizeBytes, 3},
		{"indexer run kinds", IndexerRunsTotal, 2},
		{"classes", IndexPathsClassified, 4},
		{"discovery error kinds", DiscoveryErrors, 2},
		{"scan statuses", ScanFilesTotal, 2},
		{"filesystem retry attempts", FilesystemRetryAttempts, 6},
		{"db query operations", DBQueryTotal, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.CollectAndCount(tt.collector); got < tt.wantMin {
				t.Errorf("series = %d, want at least %d", got, tt.wantMin)
			}
		})
	}
}

func TestInitializeMetricsIdempotent(_ *testing.T) {
	InitializeMetrics()
	InitializeMetrics()
}

func TestFilesystemObserver(t *testing.T) {
	o := NewFilesystemObserver()

	attempts := FilesystemRetryAttempts.WithLabelValues("stat", "root")
	success := FilesystemRetrySuccess.WithLabelValues("stat", "root")
	failures := FilesystemRetryFailures.WithLabelValues("open", "database")
	stale := FilesystemStaleErrors.WithLabelValues("stat", "root")

	beforeAttempts := testutil.ToFloat64(attempts)
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailures := testutil.ToFloat64(failures)
	beforeStale := testutil.ToFloat64(stale)

	o.ObserveRetry(filesystem.RetryEvent{Op: "stat", Volume: "root", Stale: 1, Retries: 2, Outcome: filesystem.Recovered, Elapsed: 50 * time.Millisecond})
	o.ObserveRetry(filesystem.RetryEvent{Op: "open", Volume: "database", Outcome: filesystem.Exhausted})
	o.ObserveRetry(filesystem.RetryEvent{Op: "stat", Volume: "root", Outcome: filesystem.Failed})

	if got := testutil.ToFloat64(attempts) - beforeAttempts; got != 2 {
		t.Errorf("attempts delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(success) - beforeSuccess; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failures) - beforeFailures; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(stale) - beforeStale; got != 1 {
		t.Errorf("stale delta = %v, want 1", got)
	}
}
