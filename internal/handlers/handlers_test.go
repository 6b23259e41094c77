package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"resource-index/internal/database"
	"resource-index/internal/discovery"
	"resource-index/internal/index"
	"resource-index/internal/indexer"
)

type fixture struct {
	root     string
	db       *database.Database
	indexer  *indexer.Indexer
	handlers *Handlers
	router   *mux.Router
}

func setup(t *testing.T, files map[string]string, build bool) *fixture {
	t.Helper()

	root, err := discovery.Canonicalize(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	idx := indexer.New(root, 0, index.WithWorkers(2))
	if build {
		if err := idx.Build(); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}

	h := New(db, idx)
	router := mux.NewRouter()
	h.Register(router)

	return &fixture{root: root, db: db, indexer: idx, handlers: h, router: router}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		build      bool
		wantCode   int
		wantStatus string
	}{
		{"before build", false, http.StatusServiceUnavailable, statusStarting},
		{"after build", true, http.StatusOK, statusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, map[string]string{"a.txt": "alpha"}, tt.build)

			rr := f.do(http.MethodGet, "/health")
			if rr.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rr.Code, tt.wantCode)
			}

			var resp HealthResponse
			decode(t, rr, &resp)
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Root != f.root {
				t.Errorf("Root = %q, want %q", resp.Root, f.root)
			}
			if resp.GoVersion == "" || resp.NumCPU == 0 {
				t.Error("system info should be populated")
			}
			if tt.build && resp.Paths != 1 {
				t.Errorf("Paths = %d, want 1", resp.Paths)
			}
		})
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	f := setup(t, nil, false)
	if err := os.RemoveAll(f.root); err != nil {
		t.Fatal(err)
	}
	if err := f.indexer.Build(); err == nil {
		t.Fatal("Build() on a missing root should fail")
	}

	rr := f.do(http.MethodGet, "/healthz")
	var resp HealthResponse
	decode(t, rr, &resp)

	if resp.Status != statusDegraded {
		t.Errorf("Status = %q, want %q", resp.Status, statusDegraded)
	}
	if resp.InitialBuildError == "" {
		t.Error("InitialBuildError should be set")
	}
}

type fakeMemory struct {
	usage  float64
	paused bool
}

func (m fakeMemory) Usage() float64 { return m.usage }
func (m fakeMemory) IsPaused() bool { return m.paused }

func TestHealthCheckMemory(t *testing.T) {
	f := setup(t, map[string]string{"a.txt": "alpha"}, true)

	var resp HealthResponse
	decode(t, f.do(http.MethodGet, "/health"), &resp)
	if resp.Memory != nil {
		t.Errorf("Memory = %+v, want omitted without a monitor", resp.Memory)
	}

	f.handlers.SetMemory(fakeMemory{usage: 0.9, paused: true})
	resp = HealthResponse{}
	decode(t, f.do(http.MethodGet, "/health"), &resp)
	if resp.Memory == nil || resp.Memory.UsageRatio != 0.9 || !resp.Memory.ScansPaused {
		t.Errorf("Memory = %+v, want usage 0.9 and paused", resp.Memory)
	}
}

func TestLivenessCheck(t *testing.T) {
	f := setup(t, nil, false)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rr := f.do(method, "/livez")
		if rr.Code != http.StatusOK {
			t.Errorf("%s /livez = %d, want 200", method, rr.Code)
		}
		if method == http.MethodHead && rr.Body.Len() != 0 {
			t.Error("HEAD /livez should not write a body")
		}
	}
}

func TestReadinessCheck(t *testing.T) {
	f := setup(t, nil, false)

	if rr := f.do(http.MethodGet, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("before build: /readyz = %d, want 503", rr.Code)
	}
	if err := f.indexer.Build(); err != nil {
		t.Fatal(err)
	}
	if rr := f.do(http.MethodGet, "/readyz"); rr.Code != http.StatusOK {
		t.Errorf("after build: /readyz = %d, want 200", rr.Code)
	}
}

func TestGetVersion(t *testing.T) {
	f := setup(t, nil, false)

	rr := f.do(http.MethodGet, "/version")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	var info map[string]string
	decode(t, rr, &info)
	if info["version"] == "" {
		t.Error("version should be set")
	}
}

func TestGetIndexStats(t *testing.T) {
	f := setup(t, map[string]string{
		"a.txt":     "same",
		"b.txt":     "same",
		"c.txt":     "other",
		".hidden/x": "ignored",
	}, true)

	rr := f.do(http.MethodGet, "/api/index/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}

	var stats index.Stats
	decode(t, rr, &stats)

	if stats.Paths != 3 {
		t.Errorf("Paths = %d, want 3", stats.Paths)
	}
	if stats.DistinctResources != 2 {
		t.Errorf("DistinctResources = %d, want 2", stats.DistinctResources)
	}
	if stats.CollidingResources != 1 {
		t.Errorf("CollidingResources = %d, want 1", stats.CollidingResources)
	}
}

func TestGetResource(t *testing.T) {
	f := setup(t, map[string]string{"dir/a.txt": "alpha"}, true)

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"missing parameter", "", http.StatusBadRequest},
		{"relative path", "?path=dir/a.txt", http.StatusOK},
		{"absolute path", "?path=" + filepath.Join(f.root, "dir", "a.txt"), http.StatusOK},
		{"untracked path", "?path=dir/missing.txt", http.StatusNotFound},
		{"directory", "?path=dir", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodGet, "/api/index/resource"+tt.query)
			if rr.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d (body %s)", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp ResourceResponse
			decode(t, rr, &resp)
			if resp.Path != filepath.Join(f.root, "dir", "a.txt") {
				t.Errorf("Path = %q", resp.Path)
			}
			if resp.Size != 5 {
				t.Errorf("Size = %d, want 5", resp.Size)
			}
			if resp.ID.Size != 5 {
				t.Errorf("ID.Size = %d, want 5", resp.ID.Size)
			}
		})
	}
}

func TestGetResourceNotReady(t *testing.T) {
	f := setup(t, map[string]string{"a.txt": "alpha"}, false)

	rr := f.do(http.MethodGet, "/api/index/resource?path=a.txt")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", rr.Code)
	}
}

func TestListPaths(t *testing.T) {
	f := setup(t, map[string]string{
		"a/1.txt": "1",
		"a/2.txt": "2",
		"b/3.txt": "3",
	}, true)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
		wantPaths int
	}{
		{"all", "", http.StatusOK, 3, 3},
		{"prefix", "?prefix=" + filepath.Join(f.root, "a"), http.StatusOK, 2, 2},
		{"limit", "?limit=1", http.StatusOK, 3, 1},
		{"offset", "?offset=2", http.StatusOK, 3, 1},
		{"offset past end", "?offset=10", http.StatusOK, 3, 0},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodGet, "/api/index/paths"+tt.query)
			if rr.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp PathsResponse
			decode(t, rr, &resp)
			if resp.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", resp.Total, tt.wantTotal)
			}
			if len(resp.Paths) != tt.wantPaths {
				t.Errorf("len(Paths) = %d, want %d", len(resp.Paths), tt.wantPaths)
			}
		})
	}
}

func TestListPathsSorted(t *testing.T) {
	f := setup(t, map[string]string{"c": "3", "a": "1", "b": "2"}, true)

	var resp PathsResponse
	decode(t, f.do(http.MethodGet, "/api/index/paths"), &resp)

	for i := 1; i < len(resp.Paths); i++ {
		if resp.Paths[i-1] >= resp.Paths[i] {
			t.Errorf("paths not sorted: %v", resp.Paths)
		}
	}
}

func TestRunUpdate(t *testing.T) {
	f := setup(t, map[string]string{"a.txt": "alpha"}, true)
	writeFile(t, f.root, "b.txt", "bravo")

	rr := f.do(http.MethodPost, "/api/index/update")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}

	var rec database.UpdateRecord
	decode(t, rr, &rec)
	if rec.AddedCount != 1 || rec.DeletedCount != 0 {
		t.Errorf("counts = added %d deleted %d, want 1/0", rec.AddedCount, rec.DeletedCount)
	}
	if len(rec.Added) != 1 || !strings.HasSuffix(rec.Added[0].Path, "b.txt") {
		t.Errorf("Added = %+v, want b.txt", rec.Added)
	}
}

func TestRunUpdateNotReady(t *testing.T) {
	f := setup(t, nil, false)

	rr := f.do(http.MethodPost, "/api/index/update")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", rr.Code)
	}
}

func TestRunUpdateMethodNotAllowed(t *testing.T) {
	f := setup(t, nil, true)

	rr := f.do(http.MethodGet, "/api/index/update")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status code = %d, want 405", rr.Code)
	}
}

func recordSample(t *testing.T, f *fixture, added string) int64 {
	t.Helper()
	writeFile(t, f.root, added, added)
	upd, err := f.indexer.RunUpdate()
	if err != nil {
		t.Fatalf("RunUpdate() error = %v", err)
	}
	id, err := f.db.RecordUpdate(context.Background(), database.NewUpdateRecord(f.root, upd, time.Now(), time.Millisecond))
	if err != nil {
		t.Fatalf("RecordUpdate() error = %v", err)
	}
	return id
}

func TestListUpdates(t *testing.T) {
	f := setup(t, nil, true)

	rr := f.do(http.MethodGet, "/api/updates")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("empty journal body = %s, want []", body)
	}

	first := recordSample(t, f, "one.txt")
	second := recordSample(t, f, "two.txt")

	var records []database.UpdateRecord
	decode(t, f.do(http.MethodGet, "/api/updates"), &records)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != second || records[1].ID != first {
		t.Errorf("records not newest first: %d, %d", records[0].ID, records[1].ID)
	}

	records = nil
	decode(t, f.do(http.MethodGet, "/api/updates?limit=1"), &records)
	if len(records) != 1 {
		t.Errorf("limit=1 returned %d records", len(records))
	}

	if rr := f.do(http.MethodGet, "/api/updates?limit=x"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rr.Code)
	}
}

func TestGetUpdate(t *testing.T) {
	f := setup(t, nil, true)
	id := recordSample(t, f, "one.txt")

	var rec database.UpdateRecord
	rr := f.do(http.MethodGet, "/api/updates/"+strconv.FormatInt(id, 10))
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	decode(t, rr, &rec)
	if rec.ID != id || len(rec.Added) != 1 {
		t.Errorf("GetUpdate = %+v", rec)
	}

	if rr := f.do(http.MethodGet, "/api/updates/9999"); rr.Code != http.StatusNotFound {
		t.Errorf("missing update status = %d, want 404", rr.Code)
	}
}

func TestGetUpdateInvalidID(t *testing.T) {
	f := setup(t, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/updates/0", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "0"})
	rr := httptest.NewRecorder()
	f.handlers.GetUpdate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", rr.Code)
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONError(rr, "boom", http.StatusTeapot)

	if rr.Code != http.StatusTeapot {
		t.Errorf("status code = %d, want 418", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	decode(t, rr, &body)
	if body["error"] != "boom" {
		t.Errorf("error = %q, want boom", body["error"])
	}
}
