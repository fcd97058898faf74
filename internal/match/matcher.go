// Package match resolves an unlinked spreadsheet row to zero or one existing
// canonical task. The bias is deliberate: when a match is ambiguous the row
// becomes a new task. An occasional duplicate is recoverable; two distinct
// tasks silently merged are not.
package match

import (
	"time"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/translate"
)

// DefaultDateTolerance is the planned-date proximity window for title-based
// matching. Wide enough to absorb timezone wobble on date-only cells, narrow
// enough that last week's "Submit report" is a different task.
const DefaultDateTolerance = 24 * time.Hour

// Directive says what the orchestrator should do with a row.
type Directive int

const (
	// LinkExisting links the row to the task named in Result.TaskID.
	LinkExisting Directive = iota
	// CreateNew creates a fresh canonical task from the row.
	CreateNew
)

// Result is the matcher's decision for one row.
type Result struct {
	Directive  Directive
	TaskID     string // populated for LinkExisting
	Candidates int    // candidates considered, for the cycle log
}

// Matcher matches rows against the full, atomically-fetched task list for a
// domain. Partial task lists produce false negatives, so the orchestrator
// always hands over a complete snapshot.
type Matcher struct {
	tolerance time.Duration
	loc       *time.Location
}

// New creates a matcher. A zero tolerance falls back to DefaultDateTolerance.
func New(loc *time.Location, tolerance time.Duration) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultDateTolerance
	}
	if loc == nil {
		loc = time.Local
	}
	return &Matcher{tolerance: tolerance, loc: loc}
}

// Match decides whether row corresponds to an existing task in domain.
// fields is the row already normalized by the translator; tasks is the
// complete canonical snapshot for the domain.
func (m *Matcher) Match(fields translate.RowFields, domain models.Domain, tasks []models.CanonicalTask) Result {
	// An explicit link with matching domain is authoritative. A task the
	// snapshot shows claimed by a row is off limits: this row cannot be the
	// claiming one, or the orchestrator's row index would have resolved it
	// before asking the matcher.
	if fields.Link != "" {
		for i := range tasks {
			if tasks[i].ID == fields.Link && tasks[i].Domain == domain && tasks[i].ExternalRowID == "" {
				return Result{Directive: LinkExisting, TaskID: tasks[i].ID, Candidates: 1}
			}
		}
		// Dangling or contested link: fall through to fuzzy matching; the
		// orchestrator has already surfaced the integrity error.
	}

	title := models.NormalizeTitle(fields.Title)
	if title == "" {
		return Result{Directive: CreateNew}
	}

	var hits []string
	for i := range tasks {
		t := &tasks[i]
		if t.Domain != domain {
			continue
		}
		// A task linked to some row already has its remote counterpart; a
		// second row with the same title is a distinct task.
		if t.ExternalRowID != "" {
			continue
		}
		if models.NormalizeTitle(t.Title) != title {
			continue
		}
		if !m.datesClose(fields.PlannedDate, t.PlannedDate) {
			continue
		}
		hits = append(hits, t.ID)
	}

	if len(hits) == 1 {
		return Result{Directive: LinkExisting, TaskID: hits[0], Candidates: 1}
	}
	// Zero or ambiguous: never guess.
	return Result{Directive: CreateNew, Candidates: len(hits)}
}

// datesClose applies the proximity window. Two absent dates are proximate;
// one absent date is not.
func (m *Matcher) datesClose(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	diff := a.Sub(*b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.tolerance
}
