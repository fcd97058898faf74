package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/d-royes/tasksync/internal/models"
)

// CycleRecord is one persisted sync cycle outcome.
type CycleRecord struct {
	ID                int64
	Tenant            string
	Domain            models.Domain
	StartedAt         time.Time
	FinishedAt        time.Time
	Created           int
	UpdatedLocal      int
	UpdatedRemote     int
	ConflictsSkipped  int
	DuplicatesCreated int
	Error             string
}

// RecordCycle appends a cycle outcome to sync_history.
func (s *Store) RecordCycle(ctx context.Context, rec CycleRecord) error {
	start := rec.StartedAt
	finish := rec.FinishedAt
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO sync_history (tenant, domain, started_at, finished_at,
			created, updated_local, updated_remote, conflicts_skipped, duplicates_created, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Tenant, string(rec.Domain), formatTime(&start), formatTime(&finish),
		rec.Created, rec.UpdatedLocal, rec.UpdatedRemote, rec.ConflictsSkipped, rec.DuplicatesCreated,
		nullIfEmpty(rec.Error))
	if err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	return nil
}

// HistoryTail returns the last N cycles, newest first.
func (s *Store) HistoryTail(ctx context.Context, tenant string, limit int) ([]CycleRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, tenant, domain, started_at, finished_at,
			created, updated_local, updated_remote, conflicts_skipped, duplicates_created,
			COALESCE(error, '')
		FROM sync_history
		WHERE tenant = ?
		ORDER BY id DESC
		LIMIT ?
	`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("history tail: %w", err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var (
			rec            CycleRecord
			domain         string
			start, finish  string
		)
		if err := rows.Scan(&rec.ID, &rec.Tenant, &domain, &start, &finish,
			&rec.Created, &rec.UpdatedLocal, &rec.UpdatedRemote, &rec.ConflictsSkipped,
			&rec.DuplicatesCreated, &rec.Error); err != nil {
			return nil, err
		}
		rec.Domain = models.Domain(domain)
		if rec.StartedAt, err = parseTimestamp(start); err != nil {
			return nil, fmt.Errorf("history %d: %w", rec.ID, err)
		}
		if rec.FinishedAt, err = parseTimestamp(finish); err != nil {
			return nil, fmt.Errorf("history %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ConflictRecord is one surfaced field-level disagreement.
type ConflictRecord struct {
	ID         int64
	Tenant     string
	Domain     models.Domain
	TaskID     string
	Field      string
	Canonical  string
	Remote     string
	RecordedAt time.Time
}

// RecordConflicts appends surfaced conflicts. Empty input is a no-op.
func (s *Store) RecordConflicts(ctx context.Context, recs []ConflictRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := s.conn.PrepareContext(ctx, `
		INSERT INTO sync_conflicts (tenant, domain, task_id, field, canonical_value, remote_value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record conflicts: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range recs {
		when := rec.RecordedAt
		if when.IsZero() {
			when = now
		}
		if _, err := stmt.ExecContext(ctx, rec.Tenant, string(rec.Domain), rec.TaskID,
			rec.Field, rec.Canonical, rec.Remote, formatTime(&when)); err != nil {
			return fmt.Errorf("record conflict %s/%s: %w", rec.TaskID, rec.Field, err)
		}
	}
	return nil
}

// RecentConflicts returns surfaced conflicts, newest first. since narrows the
// window when non-nil.
func (s *Store) RecentConflicts(ctx context.Context, tenant string, limit int, since *time.Time) ([]ConflictRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if since != nil {
		rows, err = s.conn.QueryContext(ctx, `
			SELECT id, tenant, domain, task_id, field,
				COALESCE(canonical_value, ''), COALESCE(remote_value, ''), recorded_at
			FROM sync_conflicts
			WHERE tenant = ? AND recorded_at >= ?
			ORDER BY id DESC LIMIT ?
		`, tenant, formatTime(since), limit)
	} else {
		rows, err = s.conn.QueryContext(ctx, `
			SELECT id, tenant, domain, task_id, field,
				COALESCE(canonical_value, ''), COALESCE(remote_value, ''), recorded_at
			FROM sync_conflicts
			WHERE tenant = ?
			ORDER BY id DESC LIMIT ?
		`, tenant, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("recent conflicts: %w", err)
	}
	defer rows.Close()

	var out []ConflictRecord
	for rows.Next() {
		var (
			rec    ConflictRecord
			domain string
			when   string
		)
		if err := rows.Scan(&rec.ID, &rec.Tenant, &domain, &rec.TaskID, &rec.Field,
			&rec.Canonical, &rec.Remote, &when); err != nil {
			return nil, err
		}
		rec.Domain = models.Domain(domain)
		if rec.RecordedAt, err = parseTimestamp(when); err != nil {
			return nil, fmt.Errorf("conflict %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
