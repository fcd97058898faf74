package engine

import (
	"context"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/store"
)

// Scope identifies what one sync cycle covers. Cycles against the same scope
// are serialized by a scope lock.
type Scope struct {
	Tenant string
	Domain models.Domain
}

// SyncSummary is the outcome of one cycle. A cycle run with no external
// changes since the previous one yields the zero value.
type SyncSummary struct {
	Created           int `json:"created"`
	UpdatedLocal      int `json:"updated_local"`
	UpdatedRemote     int `json:"updated_remote"`
	ConflictsSkipped  int `json:"conflicts_skipped"`
	DuplicatesCreated int `json:"duplicates_created"`
	// SkippedTransient counts records abandoned after the retry budget.
	SkippedTransient int `json:"skipped_transient,omitempty"`
}

// IsZero reports whether the cycle changed nothing anywhere.
func (s SyncSummary) IsZero() bool {
	return s == SyncSummary{}
}

// SpreadsheetSource is the spreadsheet side of the engine. ListRows must
// return a complete, consistent snapshot per call; silent pagination gaps
// break duplicate matching.
type SpreadsheetSource interface {
	ListRows(ctx context.Context, sheetID string) ([]models.RemoteRow, error)
	ApplyChanges(ctx context.Context, sheetID string, changes []models.RowChange) error
}

// Recorder persists cycle history and surfaced conflicts. Optional; a nil
// recorder disables both.
type Recorder interface {
	RecordCycle(ctx context.Context, rec store.CycleRecord) error
	RecordConflicts(ctx context.Context, recs []store.ConflictRecord) error
}
