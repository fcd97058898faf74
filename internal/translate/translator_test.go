package translate

import (
	"testing"
	"time"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/vocab"
)

func vocabFor(t *testing.T, d models.Domain) *vocab.Vocabulary {
	t.Helper()
	voc, err := vocab.DefaultSet().ForDomain(d)
	if err != nil {
		t.Fatalf("ForDomain(%s): %v", d, err)
	}
	return voc
}

func TestToCanonicalPersonalRow(t *testing.T) {
	tr := New(vocabFor(t, models.DomainPersonal), time.UTC)

	row := models.RemoteRow{
		RowID: "Tasks!2",
		Columns: map[string]any{
			"Task":     "Submit expense report",
			"Priority": "4-Urgent",
			"Status":   "In Progress",
			"Planned":  "2026-08-24",
			"Done":     "FALSE",
			"Task ID":  "ts-ab12cd34",
		},
	}

	fields, errs := tr.ToCanonical(row)
	if len(errs) != 0 {
		t.Fatalf("unexpected field errors: %v", errs)
	}
	if fields.Title != "Submit expense report" {
		t.Errorf("title: got %q", fields.Title)
	}
	if fields.Priority != models.PriorityUrgent {
		t.Errorf("priority: got %s, want urgent", fields.Priority)
	}
	if fields.Status != models.StatusInProgress {
		t.Errorf("status: got %s, want in_progress", fields.Status)
	}
	if fields.Done {
		t.Error("done: got true, want false")
	}
	if fields.Link != "ts-ab12cd34" {
		t.Errorf("link: got %q", fields.Link)
	}
	if fields.PlannedDate == nil || fields.PlannedDate.Format("2006-01-02") != "2026-08-24" {
		t.Errorf("planned date: got %v", fields.PlannedDate)
	}
}

func TestToCanonicalDefaultsForEmptyCells(t *testing.T) {
	tr := New(vocabFor(t, models.DomainWork), time.UTC)

	fields, errs := tr.ToCanonical(models.RemoteRow{
		Columns: map[string]any{"Task Name": "Ship it"},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected field errors: %v", errs)
	}
	if fields.Priority != models.PriorityNone {
		t.Errorf("empty priority cell should default to none, got %s", fields.Priority)
	}
	if fields.Status != models.StatusNotStarted {
		t.Errorf("empty status cell should default to not_started, got %s", fields.Status)
	}
	if fields.PlannedDate != nil {
		t.Errorf("empty planned cell should stay nil, got %v", fields.PlannedDate)
	}
}

func TestToCanonicalUnknownLabelIsFieldError(t *testing.T) {
	tr := New(vocabFor(t, models.DomainWork), time.UTC)

	fields, errs := tr.ToCanonical(models.RemoteRow{
		Columns: map[string]any{
			"Task Name": "Ship it",
			"Priority":  "Whenever",
			"Status":    "Done",
		},
	})
	if len(errs) != 1 || errs[0].Field != "priority" {
		t.Fatalf("expected one priority field error, got %v", errs)
	}
	if fields.Has("priority") {
		t.Error("failed priority should be excluded from Set")
	}
	if !fields.Has("status") || fields.Status != models.StatusDone {
		t.Error("status should still translate when priority fails")
	}
}

func TestRoundTripLabels(t *testing.T) {
	// Translating out and back in must reproduce the canonical value for
	// every priority and status, in every domain.
	for _, d := range []models.Domain{models.DomainPersonal, models.DomainChurch, models.DomainWork} {
		tr := New(vocabFor(t, d), time.UTC)
		voc := vocabFor(t, d)

		for _, p := range []models.Priority{models.PriorityUrgent, models.PriorityHigh, models.PriorityMedium, models.PriorityLow, models.PriorityNone} {
			label, ok := voc.PriorityToRemote(p)
			if !ok {
				t.Fatalf("%s: no label for priority %s", d, p)
			}
			back, ok := voc.PriorityFromRemote(label)
			if !ok || back != p {
				t.Errorf("%s: priority %s -> %q -> %s", d, p, label, back)
			}
		}
		for _, s := range []models.Status{models.StatusNotStarted, models.StatusInProgress, models.StatusWaiting, models.StatusDone} {
			label, ok := voc.StatusToRemote(s)
			if !ok {
				t.Fatalf("%s: no label for status %s", d, s)
			}
			back, ok := voc.StatusFromRemote(label)
			if !ok || back != s {
				t.Errorf("%s: status %s -> %q -> %s", d, s, label, back)
			}
		}

		// Full row round trip through the cell renderer.
		planned := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
		task := models.CanonicalTask{
			ID:            "ts-11112222",
			Domain:        d,
			Title:         "Quarterly review",
			Priority:      models.PriorityUrgent,
			Status:        models.StatusWaiting,
			PlannedDate:   &planned,
			ExternalRowID: "Tasks!4",
		}
		cells, errs := tr.ToRemote(task)
		if len(errs) != 0 {
			t.Fatalf("%s: ToRemote errors: %v", d, errs)
		}
		fields, ferrs := tr.ToCanonical(models.RemoteRow{Columns: cells})
		if len(ferrs) != 0 {
			t.Fatalf("%s: round-trip ToCanonical errors: %v", d, ferrs)
		}
		if fields.Priority != task.Priority || fields.Status != task.Status || fields.Title != task.Title {
			t.Errorf("%s: round trip changed values: %+v", d, fields)
		}
		if fields.PlannedDate == nil || !SameDay(*fields.PlannedDate, planned, time.UTC) {
			t.Errorf("%s: round trip changed planned date: %v", d, fields.PlannedDate)
		}
	}
}

func TestToRemoteOmitsProtectedFields(t *testing.T) {
	tr := New(vocabFor(t, models.DomainPersonal), time.UTC)

	weekly := "weekly"
	planned := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	task := models.CanonicalTask{
		ID:            "ts-55556666",
		Domain:        models.DomainPersonal,
		Title:         "Water the plants",
		Priority:      models.PriorityLow,
		Status:        models.StatusNotStarted,
		RecurringType: &weekly,
		PlannedDate:   &planned,
		Done:          true,
	}

	cells, errs := tr.ToRemote(task)
	if len(errs) != 0 {
		t.Fatalf("ToRemote errors: %v", errs)
	}
	for _, header := range []string{"Planned", "Done", "Completed On"} {
		if _, present := cells[header]; present {
			t.Errorf("protected task leaked %q into remote cells", header)
		}
	}
	if cells["Task"] != "Water the plants" {
		t.Error("unprotected fields should still render")
	}
}

func TestParseCheckbox(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"TRUE", true},
		{"yes", true},
		{"x", true},
		{"✓", true},
		{"no", false},
		{"", false},
		{float64(1), true},
		{float64(0), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := parseCheckbox(tc.in); got != tc.want {
			t.Errorf("parseCheckbox(%v): got %v, want %v", tc.in, got, tc.want)
		}
	}
}
