package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"resource-index/internal/logging"
	"resource-index/internal/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	vacuumTimeout  = time.Minute
)

// migrations[i] upgrades the schema from user_version i to i+1. Append
// only; never edit a statement that has shipped.
var migrations = []string{
	`CREATE TABLE updates (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		root          TEXT    NOT NULL,
		recorded_at   INTEGER NOT NULL,
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		added_count   INTEGER NOT NULL DEFAULT 0,
		deleted_count INTEGER NOT NULL DEFAULT 0,
		moved_count   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_updates_recorded_at ON updates(recorded_at);

	CREATE TABLE update_added (
		update_id   INTEGER NOT NULL REFERENCES updates(id) ON DELETE CASCADE,
		path        TEXT    NOT NULL,
		resource_id TEXT    NOT NULL,
		size        INTEGER NOT NULL,
		mod_time    INTEGER NOT NULL,
		moved       INTEGER NOT NULL DEFAULT 0,
		UNIQUE(update_id, path)
	);
	CREATE INDEX idx_update_added_resource ON update_added(resource_id);

	CREATE TABLE update_deleted (
		update_id   INTEGER NOT NULL REFERENCES updates(id) ON DELETE CASCADE,
		resource_id TEXT    NOT NULL,
		UNIQUE(update_id, resource_id)
	);
	CREATE INDEX idx_update_deleted_resource ON update_deleted(resource_id);`,
}

// Database is the update journal: one row per non-empty index update plus
// the paths and identities it reported.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// dsn enables WAL, foreign keys (needed for cascade on prune) and a busy
// timeout so a vacuum does not fail concurrent readers outright.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	return path + "?" + q.Encode()
}

// New opens the journal at dbPath, creating and migrating it as needed. The
// parent directory must exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	if err := checkWritable(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}
	if err := d.open(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			logging.Error("closing %s after failed open: %v", dbPath, cerr)
		}
		return nil, err
	}

	logging.Info("journal ready at %s", dbPath)
	return d, nil
}

func (d *Database) open(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := d.migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

func (d *Database) migrate(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("migrate", start, err) }()

	have, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if have > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", have, len(migrations))
	}

	for v := have; v < len(migrations); v++ {
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		logging.Debug("journal schema migrated to version %d", v+1)
	}
	return nil
}

// SchemaVersion reports the journal's PRAGMA user_version.
func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Path() string {
	return d.dbPath
}

// Vacuum rebuilds the file to reclaim pages freed by PruneUpdates. It
// holds the write lock for the duration.
func (d *Database) Vacuum(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, vacuumTimeout)
	defer cancel()
	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// checkWritable fails early with a readable error when the journal's
// directory is missing or read-only, and repairs a read-only WAL file left
// behind by a different user.
func checkWritable(dbPath string) error {
	dir := filepath.Dir(dbPath)
	probe, err := os.CreateTemp(dir, ".journal-probe-*")
	if err != nil {
		return fmt.Errorf("database directory %s not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if fi, err := os.Stat(dbPath); err == nil && fi.Mode().Perm()&0o200 == 0 {
		logging.Warn("journal %s is read-only (mode %v)", dbPath, fi.Mode())
	}

	wal := dbPath + "-wal"
	if fi, err := os.Stat(wal); err == nil && fi.Mode().Perm()&0o200 == 0 {
		if err := os.Chmod(wal, 0o600); err != nil {
			logging.Error("read-only WAL %s could not be fixed: %v", wal, err)
		} else {
			logging.Info("made WAL %s writable", wal)
		}
	}
	return nil
}
