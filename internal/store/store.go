// Package store persists canonical tasks in a local sqlite document store
// and records sync history and surfaced conflicts.
package store

import (
	"context"
	"errors"

	"github.com/d-royes/tasksync/internal/models"
)

// ErrNotFound is returned when a task ID does not exist.
var ErrNotFound = errors.New("task not found")

// TaskStore is the document-store side of the sync engine. Implementations
// must return complete snapshots from ListTasks; the matcher's false-negative
// guarantee depends on it.
type TaskStore interface {
	ListTasks(ctx context.Context, tenant string, domain models.Domain) ([]models.CanonicalTask, error)
	GetTask(ctx context.Context, id string) (*models.CanonicalTask, error)
	UpsertTask(ctx context.Context, task models.CanonicalTask) error
}
