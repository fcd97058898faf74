package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/d-royes/tasksync/internal/models"
)

const taskColumns = `id, tenant, domain, title, status, priority,
	planned_date, target_date, hard_deadline,
	recurring_type, recurring_days, done, completed_on,
	external_row_id, COALESCE(external_modified_at, ''), updated_at, sync_status`

// ListTasks returns the complete task list for a tenant and domain. Never
// paginated: the matcher needs the full snapshot.
func (s *Store) ListTasks(ctx context.Context, tenant string, domain models.Domain) ([]models.CanonicalTask, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE tenant = ? AND domain = ?
		ORDER BY id
	`, tenant, string(domain))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.CanonicalTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetTask returns one task by ID, or ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id string) (*models.CanonicalTask, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpsertTask writes a task as a single row replacement. Field values and the
// two sync timestamps land in one statement, so a partially-persisted task is
// impossible: that atomicity is what keeps re-runs of a crashed cycle from
// misreading the engine's own writes as fresh remote edits.
func (s *Store) UpsertTask(ctx context.Context, task models.CanonicalTask) error {
	if task.ID == "" {
		return fmt.Errorf("upsert task: empty id")
	}
	if !models.IsValidDomain(task.Domain) {
		return fmt.Errorf("upsert task %s: invalid domain %q", task.ID, task.Domain)
	}

	var recurringDays any
	if len(task.RecurringDays) > 0 {
		data, err := json.Marshal(task.RecurringDays)
		if err != nil {
			return fmt.Errorf("upsert task %s: marshal recurring days: %w", task.ID, err)
		}
		recurringDays = string(data)
	}

	var extModified any
	if !task.ExternalModifiedAt.IsZero() {
		ts := task.ExternalModifiedAt
		extModified = formatTime(&ts)
	}

	done := 0
	if task.Done {
		done = 1
	}

	updated := task.UpdatedAt
	_, err := s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks (
			id, tenant, domain, title, status, priority,
			planned_date, target_date, hard_deadline,
			recurring_type, recurring_days, done, completed_on,
			external_row_id, external_modified_at, updated_at, sync_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID, task.Tenant, string(task.Domain), task.Title, string(task.Status), string(task.Priority),
		formatTime(task.PlannedDate), formatTime(task.TargetDate), formatTime(task.HardDeadline),
		task.RecurringType, recurringDays, done, formatTime(task.CompletedOn),
		nullIfEmpty(task.ExternalRowID), extModified, formatTime(&updated), string(task.SyncStatus),
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", task.ID, err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*models.CanonicalTask, error) {
	var (
		t             models.CanonicalTask
		domain        string
		status        string
		priority      string
		syncStatus    string
		planned       sql.NullString
		target        sql.NullString
		deadline      sql.NullString
		recurringType sql.NullString
		recurringDays sql.NullString
		done          int
		completed     sql.NullString
		externalRow   sql.NullString
		extModified   string
		updated       string
	)

	err := sc.Scan(&t.ID, &t.Tenant, &domain, &t.Title, &status, &priority,
		&planned, &target, &deadline,
		&recurringType, &recurringDays, &done, &completed,
		&externalRow, &extModified, &updated, &syncStatus)
	if err != nil {
		return nil, err
	}

	t.Domain = models.Domain(domain)
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority)
	t.SyncStatus = models.SyncStatus(syncStatus)
	t.Done = done != 0
	t.ExternalRowID = externalRow.String

	if recurringType.Valid && recurringType.String != "" {
		rt := recurringType.String
		t.RecurringType = &rt
	}
	if recurringDays.Valid && recurringDays.String != "" {
		if err := json.Unmarshal([]byte(recurringDays.String), &t.RecurringDays); err != nil {
			return nil, fmt.Errorf("task %s: parse recurring days: %w", t.ID, err)
		}
	}

	if t.PlannedDate, err = parseNullableTimestamp(planned); err != nil {
		return nil, fmt.Errorf("task %s: planned date: %w", t.ID, err)
	}
	if t.TargetDate, err = parseNullableTimestamp(target); err != nil {
		return nil, fmt.Errorf("task %s: target date: %w", t.ID, err)
	}
	if t.HardDeadline, err = parseNullableTimestamp(deadline); err != nil {
		return nil, fmt.Errorf("task %s: hard deadline: %w", t.ID, err)
	}
	if t.CompletedOn, err = parseNullableTimestamp(completed); err != nil {
		return nil, fmt.Errorf("task %s: completed on: %w", t.ID, err)
	}

	if extModified != "" {
		ts, err := parseTimestamp(extModified)
		if err != nil {
			return nil, fmt.Errorf("task %s: external modified at: %w", t.ID, err)
		}
		t.ExternalModifiedAt = ts
	}
	ts, err := parseTimestamp(updated)
	if err != nil {
		return nil, fmt.Errorf("task %s: updated at: %w", t.ID, err)
	}
	t.UpdatedAt = ts

	return &t, nil
}
