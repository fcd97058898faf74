// Package resolve computes per-field directional diffs for a linked
// (canonical task, remote row) pair. The protected-field rule is enforced
// here and only here.
package resolve

import (
	"time"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/translate"
)

// Canonical field names used in diffs and conflict records.
const (
	FieldTitle        = "title"
	FieldPriority     = "priority"
	FieldStatus       = "status"
	FieldPlannedDate  = "planned_date"
	FieldTargetDate   = "target_date"
	FieldHardDeadline = "hard_deadline"
	FieldDone         = "done"
	FieldCompletedOn  = "completed_on"
)

// protectedFields are never overwritten from the spreadsheet side once a task
// is recurring-managed, regardless of timestamps. recurring_type and
// recurring_days have no spreadsheet columns at all; the three below do.
var protectedFields = map[string]bool{
	FieldPlannedDate: true,
	FieldDone:        true,
	FieldCompletedOn: true,
}

// IsProtectedField reports whether a field falls under the protection rule.
func IsProtectedField(field string) bool {
	return protectedFields[field]
}

// Direction says which side receives a diff.
type Direction int

const (
	ToRemote Direction = iota // canonical side newer, push to spreadsheet
	ToLocal                   // remote side newer, apply to canonical task
)

// FieldDiff is one field-level disagreement and its resolution.
type FieldDiff struct {
	Field     string
	Canonical any
	Remote    any
	Direction Direction
}

// Resolution is the full per-field outcome for one linked pair.
type Resolution struct {
	WriteToRemote []FieldDiff
	WriteToLocal  []FieldDiff
	// ProtectedHeld lists protected fields where a differing remote value was
	// discarded without comparison. Surfaced, never auto-written either way.
	ProtectedHeld []string
}

// Empty reports whether both sides already agree.
func (r *Resolution) Empty() bool {
	return len(r.WriteToRemote) == 0 && len(r.WriteToLocal) == 0
}

// Resolver applies last-write-wins per field, with two documented carve-outs:
// protected fields always keep the canonical value, and an exact timestamp
// tie goes to the document store.
type Resolver struct {
	loc *time.Location
}

// New creates a resolver. loc is used for calendar-date comparison of date
// fields, which the sheet stores at day granularity.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc}
}

// Resolve computes the directional diff for a linked pair. fields is the
// remote row normalized by the translator; fields that failed translation are
// absent from fields.Set and do not participate.
func (r *Resolver) Resolve(task models.CanonicalTask, fields translate.RowFields) Resolution {
	var res Resolution

	// Strictly-later timestamp wins. On an exact tie the document store wins:
	// the tie is almost always the engine reading back its own write.
	remoteWins := task.ExternalModifiedAt.After(task.UpdatedAt)

	check := func(field string, canonical, remote any, equal bool) {
		if !fields.Has(field) || equal {
			return
		}
		if task.Protected() && protectedFields[field] {
			res.ProtectedHeld = append(res.ProtectedHeld, field)
			return
		}
		d := FieldDiff{Field: field, Canonical: canonical, Remote: remote}
		if remoteWins {
			d.Direction = ToLocal
			res.WriteToLocal = append(res.WriteToLocal, d)
		} else {
			d.Direction = ToRemote
			res.WriteToRemote = append(res.WriteToRemote, d)
		}
	}

	check(FieldTitle, task.Title, fields.Title, task.Title == fields.Title)
	check(FieldPriority, task.Priority, fields.Priority, task.Priority == fields.Priority)
	check(FieldStatus, task.Status, fields.Status, task.Status == fields.Status)
	check(FieldDone, task.Done, fields.Done, task.Done == fields.Done)
	check(FieldPlannedDate, task.PlannedDate, fields.PlannedDate, r.sameDate(task.PlannedDate, fields.PlannedDate))
	check(FieldTargetDate, task.TargetDate, fields.TargetDate, r.sameDate(task.TargetDate, fields.TargetDate))
	check(FieldHardDeadline, task.HardDeadline, fields.HardDeadline, r.sameDate(task.HardDeadline, fields.HardDeadline))
	check(FieldCompletedOn, task.CompletedOn, fields.CompletedOn, r.sameDate(task.CompletedOn, fields.CompletedOn))

	return res
}

// sameDate compares at day granularity, the resolution the sheet stores.
func (r *Resolver) sameDate(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return translate.SameDay(*a, *b, r.loc)
}
