package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"resource-index/internal/index"
	"resource-index/internal/metrics"
	"resource-index/internal/resource"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, dbPath
}

func sampleUpdate() *index.IndexUpdate {
	moved := resource.IDOf([]byte("moved"))
	fresh := resource.IDOf([]byte("fresh content"))
	gone := resource.IDOf([]byte("gone"))
	mod := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	return &index.IndexUpdate{
		Deleted: map[resource.ID]struct{}{moved: {}, gone: {}},
		Added: map[string]resource.Meta{
			"/data/b/fresh.txt": {ID: fresh, Modified: mod, Size: fresh.Size},
			"/data/a/moved.txt": {ID: moved, Modified: mod, Size: moved.Size},
		},
		Moves: map[string]resource.ID{"/data/a/moved.txt": moved},
	}
}

func TestNewDatabase(t *testing.T) {
	_, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "journal.db")

	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("New() should fail when the parent directory does not exist")
	}
}

func TestNewUpdateRecord(t *testing.T) {
	at := time.Now()
	rec := NewUpdateRecord("/data", sampleUpdate(), at, 1500*time.Millisecond)

	if rec.AddedCount != 2 || rec.DeletedCount != 2 || rec.MovedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/2/1", rec.AddedCount, rec.DeletedCount, rec.MovedCount)
	}
	if rec.DurationMs != 1500 {
		t.Errorf("DurationMs = %d, want 1500", rec.DurationMs)
	}
	if len(rec.Added) != 2 || rec.Added[0].Path != "/data/a/moved.txt" {
		t.Fatalf("Added = %+v, want ordered by path", rec.Added)
	}
	if !rec.Added[0].Moved || rec.Added[1].Moved {
		t.Error("only the moved path should be flagged")
	}
}

func TestRecordAndGetUpdate(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	upd := sampleUpdate()
	rec := NewUpdateRecord("/data", upd, time.Now(), 42*time.Millisecond)

	id, err := db.RecordUpdate(ctx, rec)
	if err != nil {
		t.Fatalf("RecordUpdate() error = %v", err)
	}
	if id <= 0 || rec.ID != id {
		t.Errorf("RecordUpdate() id = %d, rec.ID = %d", id, rec.ID)
	}

	got, err := db.GetUpdate(ctx, id)
	if err != nil {
		t.Fatalf("GetUpdate() error = %v", err)
	}

	if got.Root != "/data" || got.DurationMs != 42 {
		t.Errorf("GetUpdate() = %+v", got)
	}
	if got.RecordedAt.UnixMilli() != rec.RecordedAt.UnixMilli() {
		t.Errorf("RecordedAt = %v, want %v", got.RecordedAt, rec.RecordedAt)
	}
	if len(got.Added) != 2 {
		t.Fatalf("len(Added) = %d, want 2", len(got.Added))
	}
	for i, a := range got.Added {
		want := rec.Added[i]
		if a.Path != want.Path || a.ID != want.ID || a.Size != want.Size || a.Moved != want.Moved {
			t.Errorf("Added[%d] = %+v, want %+v", i, a, want)
		}
		if !a.Modified.Equal(want.Modified) {
			t.Errorf("Added[%d].Modified = %v, want %v", i, a.Modified, want.Modified)
		}
	}

	wantDeleted := upd.DeletedIDs()
	if len(got.Deleted) != len(wantDeleted) {
		t.Fatalf("len(Deleted) = %d, want %d", len(got.Deleted), len(wantDeleted))
	}
	for i := range wantDeleted {
		if got.Deleted[i] != wantDeleted[i] {
			t.Errorf("Deleted[%d] = %s, want %s", i, got.Deleted[i], wantDeleted[i])
		}
	}
}

func TestGetUpdateNotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	if _, err := db.GetUpdate(context.Background(), 999); !errors.Is(err, ErrUpdateNotFound) {
		t.Errorf("GetUpdate() error = %v, want ErrUpdateNotFound", err)
	}
}

func TestListUpdates(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := NewUpdateRecord("/data", sampleUpdate(), time.Now(), time.Duration(i)*time.Millisecond)
		if _, err := db.RecordUpdate(ctx, rec); err != nil {
			t.Fatalf("RecordUpdate() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"limited", 3, 3},
		{"unlimited", 0, 5},
		{"larger than journal", 50, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListUpdates(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListUpdates() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len(ListUpdates()) = %d, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].ID <= got[i].ID {
					t.Errorf("ListUpdates() not newest first: %d before %d", got[i-1].ID, got[i].ID)
				}
			}
			if got[0].Added != nil || got[0].Deleted != nil {
				t.Error("ListUpdates() should return summaries only")
			}
		})
	}
}

func TestListUpdatesEmpty(t *testing.T) {
	db, _ := setupTestDB(t)

	got, err := db.ListUpdates(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUpdates() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListUpdates() = %v, want empty slice", got)
	}
}

func TestPruneUpdates(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := db.RecordUpdate(ctx, NewUpdateRecord("/data", sampleUpdate(), time.Now(), 0))
		if err != nil {
			t.Fatalf("RecordUpdate() error = %v", err)
		}
		ids = append(ids, id)
	}

	removed, err := db.PruneUpdates(ctx, 1)
	if err != nil {
		t.Fatalf("PruneUpdates() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("PruneUpdates() removed %d, want 3", removed)
	}

	if _, err := db.GetUpdate(ctx, ids[0]); !errors.Is(err, ErrUpdateNotFound) {
		t.Errorf("pruned update still present: %v", err)
	}

	var orphans int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM update_added WHERE update_id = ?", ids[0]).Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("%d added rows left behind for pruned update", orphans)
	}

	if _, err := db.GetUpdate(ctx, ids[3]); err != nil {
		t.Errorf("newest update should survive: %v", err)
	}
}

func TestRecordQueryMetrics(t *testing.T) {
	operation := "test_metrics_operation"

	before := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues(operation, "error"))
	recordQuery(operation, time.Now(), errors.New("test error"))
	recordQuery(operation, time.Now(), nil)
	after := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues(operation, "error"))

	if after-before != 1 {
		t.Errorf("error count increased by %v, want 1", after-before)
	}
}

func TestVacuum(t *testing.T) {
	db, _ := setupTestDB(t)

	if err := db.Vacuum(context.Background()); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	v, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}

	// Reopening an up-to-date journal must not rerun migrations.
	db.Close()
	again, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer again.Close()
	if v, _ := again.SchemaVersion(ctx); v != len(migrations) {
		t.Errorf("after reopen SchemaVersion() = %d, want %d", v, len(migrations))
	}
}

func TestNewRejectsNewerSchema(t *testing.T) {
	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.db.ExecContext(ctx, "PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := New(ctx, dbPath); err == nil {
		t.Error("New() should refuse a journal from a newer build")
	}
}
