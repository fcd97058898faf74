// Package translate converts between spreadsheet row columns and canonical
// task fields. Conversion is stateless and domain-aware: each domain's
// vocabulary supplies the column layout and the priority/status encodings.
package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/vocab"
)

// FieldError reports a single untranslatable field. The rest of the record
// still translates; callers leave the offending field untouched on both sides.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %v)", e.Field, e.Reason, e.Value)
}

// RowFields is a remote row normalized into canonical shape. Set tracks which
// fields translated successfully so a FieldError never zeroes a field.
type RowFields struct {
	Title        string
	Priority     models.Priority
	Status       models.Status
	PlannedDate  *time.Time
	TargetDate   *time.Time
	HardDeadline *time.Time
	Done         bool
	CompletedOn  *time.Time
	Link         string

	Set map[string]bool
}

// Has reports whether the named field translated cleanly.
func (f *RowFields) Has(field string) bool {
	return f.Set[field]
}

// Translator converts rows for one domain.
type Translator struct {
	vocab *vocab.Vocabulary
	loc   *time.Location
}

// New creates a translator for the given domain vocabulary. loc is the user's
// local timezone, applied to every naive timestamp.
func New(v *vocab.Vocabulary, loc *time.Location) *Translator {
	if loc == nil {
		loc = time.Local
	}
	return &Translator{vocab: v, loc: loc}
}

// Location returns the timezone naive remote dates are interpreted in.
func (t *Translator) Location() *time.Location {
	return t.loc
}

// ToCanonical normalizes a remote row into canonical field values. Fields
// that fail to translate are reported individually and excluded from the
// result's Set map; everything else is still usable.
func (t *Translator) ToCanonical(row models.RemoteRow) (RowFields, []*FieldError) {
	cols := t.vocab.Columns
	fields := RowFields{Set: make(map[string]bool)}
	var errs []*FieldError

	fields.Title = row.StringColumn(cols.Title)
	fields.Set["title"] = true

	fields.Link = row.StringColumn(cols.Link)
	fields.Set["link"] = true

	if label := row.StringColumn(cols.Priority); label != "" {
		if p, ok := t.vocab.PriorityFromRemote(label); ok {
			fields.Priority = p
			fields.Set["priority"] = true
		} else {
			errs = append(errs, &FieldError{Field: "priority", Value: label, Reason: "not in domain vocabulary"})
		}
	} else {
		fields.Priority = models.PriorityNone
		fields.Set["priority"] = true
	}

	if label := row.StringColumn(cols.Status); label != "" {
		if s, ok := t.vocab.StatusFromRemote(label); ok {
			fields.Status = s
			fields.Set["status"] = true
		} else {
			errs = append(errs, &FieldError{Field: "status", Value: label, Reason: "not in domain vocabulary"})
		}
	} else {
		fields.Status = models.StatusNotStarted
		fields.Set["status"] = true
	}

	fields.Done = parseCheckbox(row.Column(cols.Done))
	fields.Set["done"] = true

	dateCols := []struct {
		name   string
		header string
		dst    **time.Time
	}{
		{"planned_date", cols.Planned, &fields.PlannedDate},
		{"target_date", cols.Target, &fields.TargetDate},
		{"hard_deadline", cols.Deadline, &fields.HardDeadline},
		{"completed_on", cols.Completed, &fields.CompletedOn},
	}
	for _, dc := range dateCols {
		if dc.header == "" {
			continue
		}
		parsed, err := ParseRemoteDate(row.Column(dc.header), t.loc)
		if err != nil {
			errs = append(errs, &FieldError{Field: dc.name, Value: row.Column(dc.header), Reason: err.Error()})
			continue
		}
		*dc.dst = parsed
		fields.Set[dc.name] = true
	}

	return fields, errs
}

// ToRemote renders a canonical task as spreadsheet cell values keyed by
// header name. Protected fields are omitted for protected tasks: they are
// never round-tripped, the resolver owns their values.
func (t *Translator) ToRemote(task models.CanonicalTask) (map[string]any, []*FieldError) {
	cols := t.vocab.Columns
	out := make(map[string]any)
	var errs []*FieldError

	out[cols.Title] = task.Title

	if label, ok := t.vocab.PriorityToRemote(task.Priority); ok {
		out[cols.Priority] = label
	} else {
		errs = append(errs, &FieldError{Field: "priority", Value: task.Priority, Reason: "no remote label in domain vocabulary"})
	}

	if label, ok := t.vocab.StatusToRemote(task.Status); ok {
		out[cols.Status] = label
	} else {
		errs = append(errs, &FieldError{Field: "status", Value: task.Status, Reason: "no remote label in domain vocabulary"})
	}

	if cols.Target != "" {
		out[cols.Target] = FormatRemoteDate(task.TargetDate, t.loc)
	}
	if cols.Deadline != "" {
		out[cols.Deadline] = FormatRemoteDate(task.HardDeadline, t.loc)
	}
	if task.Linked() {
		out[cols.Link] = task.ID
	}

	if !task.Protected() {
		out[cols.Planned] = FormatRemoteDate(task.PlannedDate, t.loc)
		out[cols.Done] = task.Done
		if cols.Completed != "" {
			out[cols.Completed] = FormatRemoteDate(task.CompletedOn, t.loc)
		}
	}

	return out, errs
}

// parseCheckbox maps the remote done checkbox onto a bool. Sheets return
// TRUE/FALSE strings through the values API and bools through others.
func parseCheckbox(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "x", "✓":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}
