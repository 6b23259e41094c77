package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resource-index/internal/resource"
)

// ErrUpdateNotFound is returned by GetUpdate for an unknown record ID.
var ErrUpdateNotFound = errors.New("update not found")

// RecordUpdate stores rec and its added and deleted entries in a single
// transaction and returns the new record ID.
func (d *Database) RecordUpdate(ctx context.Context, rec *UpdateRecord) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("record_update", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO updates (root, recorded_at, duration_ms, added_count, deleted_count, moved_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Root, rec.RecordedAt.UnixMilli(), rec.DurationMs,
		rec.AddedCount, rec.DeletedCount, rec.MovedCount,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert update: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read update id: %w", err)
	}

	if len(rec.Added) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO update_added (update_id, path, resource_id, size, mod_time, moved)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare added insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range rec.Added {
			if _, err := stmt.ExecContext(ctx, id, a.Path, a.ID.String(), a.Size, a.Modified.UnixNano(), a.Moved); err != nil {
				return 0, fmt.Errorf("failed to insert added path %s: %w", a.Path, err)
			}
		}
	}

	if len(rec.Deleted) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO update_deleted (update_id, resource_id) VALUES (?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare deleted insert: %w", err)
		}
		defer stmt.Close()

		for _, rid := range rec.Deleted {
			if _, err := stmt.ExecContext(ctx, id, rid.String()); err != nil {
				return 0, fmt.Errorf("failed to insert deleted id %s: %w", rid, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit update: %w", err)
	}

	rec.ID = id
	return id, nil
}

// ListUpdates returns the most recent update summaries, newest first, without
// their added and deleted entries. A limit of 0 or less returns every record.
func (d *Database) ListUpdates(ctx context.Context, limit int) (records []UpdateRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("list_updates", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, root, recorded_at, duration_ms, added_count, deleted_count, moved_count
		FROM updates ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query updates: %w", err)
	}
	defer rows.Close()

	records = []UpdateRecord{}
	for rows.Next() {
		var rec UpdateRecord
		var recordedAt int64
		if err = rows.Scan(&rec.ID, &rec.Root, &recordedAt, &rec.DurationMs,
			&rec.AddedCount, &rec.DeletedCount, &rec.MovedCount); err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		rec.RecordedAt = time.UnixMilli(recordedAt)
		records = append(records, rec)
	}

	err = rows.Err()
	return records, err
}

// GetUpdate returns one update with its added and deleted entries.
func (d *Database) GetUpdate(ctx context.Context, id int64) (rec *UpdateRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("get_update", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec = &UpdateRecord{}
	var recordedAt int64
	err = d.db.QueryRowContext(ctx, `
		SELECT id, root, recorded_at, duration_ms, added_count, deleted_count, moved_count
		FROM updates WHERE id = ?`, id).Scan(
		&rec.ID, &rec.Root, &recordedAt, &rec.DurationMs,
		&rec.AddedCount, &rec.DeletedCount, &rec.MovedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUpdateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query update %d: %w", id, err)
	}
	rec.RecordedAt = time.UnixMilli(recordedAt)

	if rec.Added, err = d.addedFor(ctx, id); err != nil {
		return nil, err
	}
	if rec.Deleted, err = d.deletedFor(ctx, id); err != nil {
		return nil, err
	}

	return rec, nil
}

func (d *Database) addedFor(ctx context.Context, id int64) ([]AddedEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT path, resource_id, size, mod_time, moved
		FROM update_added WHERE update_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query added paths: %w", err)
	}
	defer rows.Close()

	var added []AddedEntry
	for rows.Next() {
		var a AddedEntry
		var rid string
		var modTime int64
		if err := rows.Scan(&a.Path, &rid, &a.Size, &modTime, &a.Moved); err != nil {
			return nil, fmt.Errorf("failed to scan added path: %w", err)
		}
		if a.ID, err = resource.ParseID(rid); err != nil {
			return nil, err
		}
		a.Modified = time.Unix(0, modTime)
		added = append(added, a)
	}
	return added, rows.Err()
}

func (d *Database) deletedFor(ctx context.Context, id int64) ([]resource.ID, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT resource_id FROM update_deleted WHERE update_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted ids: %w", err)
	}
	defer rows.Close()

	var deleted []resource.ID
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		parsed, err := resource.ParseID(rid)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, parsed)
	}
	return deleted, rows.Err()
}

// PruneUpdates deletes all but the newest keep records and returns how many
// were removed.
func (d *Database) PruneUpdates(ctx context.Context, keep int) (removed int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune_updates", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		DELETE FROM updates WHERE id NOT IN (
			SELECT id FROM updates ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune updates: %w", err)
	}
	return result.RowsAffected()
}
