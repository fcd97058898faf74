package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/store"
	"github.com/d-royes/tasksync/internal/translate"
	"github.com/d-royes/tasksync/internal/vocab"
)

const (
	testSheet    = "sheet-1"
	testModified = "Last Modified"
)

var testScope = Scope{Tenant: "t1", Domain: models.DomainPersonal}

// fakeSource is an in-memory spreadsheet. ApplyChanges merges cells into the
// stored row and refreshes its modified timestamp the way the live sheet does.
type fakeSource struct {
	rows       map[string]models.RemoteRow
	failWrites int // fail this many ApplyChanges calls with a transient error
	listErr    error
	writes     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: make(map[string]models.RemoteRow)}
}

func (f *fakeSource) addRow(rowID string, cols map[string]any) {
	f.rows[rowID] = models.RemoteRow{
		RowID:   rowID,
		SheetID: testSheet,
		Columns: cols,
	}
}

func (f *fakeSource) ListRows(ctx context.Context, sheetID string) ([]models.RemoteRow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.RemoteRow, 0, len(ids))
	for _, id := range ids {
		row := f.rows[id]
		cols := make(map[string]any, len(row.Columns))
		for k, v := range row.Columns {
			cols[k] = v
		}
		row.Columns = cols
		if ts, err := translate.ParseRemoteDate(cols[testModified], time.UTC); err == nil && ts != nil {
			row.ModifiedAt = *ts
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSource) ApplyChanges(ctx context.Context, sheetID string, changes []models.RowChange) error {
	if f.failWrites > 0 {
		f.failWrites--
		return &TransientError{Op: "apply changes", Err: errors.New("rate limited")}
	}
	for _, change := range changes {
		row, ok := f.rows[change.RowID]
		if !ok {
			return fmt.Errorf("no such row %s", change.RowID)
		}
		for k, v := range change.Columns {
			row.Columns[k] = v
		}
		f.rows[change.RowID] = row
	}
	f.writes++
	return nil
}

func (f *fakeSource) cell(rowID, header string) any {
	return f.rows[rowID].Columns[header]
}

// flakyStore fails a fixed number of upserts before delegating.
type flakyStore struct {
	*store.Store
	failUpserts int
}

func (f *flakyStore) UpsertTask(ctx context.Context, task models.CanonicalTask) error {
	if f.failUpserts > 0 {
		f.failUpserts--
		return errors.New("disk full")
	}
	return f.Store.UpsertTask(ctx, task)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupTaskStore(t *testing.T) *store.Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := store.OpenDB(conn)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, src *fakeSource, st *store.Store, clock *fakeClock) *Engine {
	t.Helper()
	idSeq := 0
	return New(Options{
		Source:   src,
		Tasks:    st,
		Vocab:    vocab.DefaultSet(),
		Recorder: st,
		Location: time.UTC,
		SheetIDs: map[models.Domain]string{models.DomainPersonal: testSheet},
		Now:      clock.Now,
		NewID: func() (string, error) {
			idSeq++
			return fmt.Sprintf("ts-%08d", idSeq), nil
		},
	})
}

func seedLinkedTask(t *testing.T, st *store.Store, id, rowID string, ts time.Time) models.CanonicalTask {
	t.Helper()
	task := models.CanonicalTask{
		ID:                 id,
		Tenant:             testScope.Tenant,
		Domain:             testScope.Domain,
		Title:              "Submit report",
		Status:             models.StatusNotStarted,
		Priority:           models.PriorityMedium,
		ExternalRowID:      rowID,
		ExternalModifiedAt: ts,
		UpdatedAt:          ts,
		SyncStatus:         models.SyncSynced,
	}
	if err := st.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func linkedRowCells(title, priority, status, modified string) map[string]any {
	return map[string]any{
		"Task":       title,
		"Priority":   priority,
		"Status":     status,
		"Done":       "FALSE",
		testModified: modified,
	}
}

func TestSyncCreatesTaskFromNewRow(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	clock := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	src.addRow("Tasks!2", map[string]any{
		"Task":     "Buy groceries",
		"Priority": "1-Low",
		"Status":   "Not Started",
		"Planned":  "2026-08-25",
		"Done":     "FALSE",
	})

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.Created != 1 {
		t.Errorf("created: got %d, want 1", summary.Created)
	}
	if summary.UpdatedRemote != 0 {
		t.Errorf("link writeback must not count as a remote update: %d", summary.UpdatedRemote)
	}

	tasks, err := st.ListTasks(context.Background(), testScope.Tenant, testScope.Domain)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Title != "Buy groceries" || task.Priority != models.PriorityLow {
		t.Errorf("task fields: %+v", task)
	}
	if task.ExternalRowID != "Tasks!2" || task.SyncStatus != models.SyncSynced {
		t.Errorf("link state: %+v", task)
	}

	// The row learned its task ID and the engine stamped the modified cell.
	if got := src.cell("Tasks!2", "Task ID"); got != task.ID {
		t.Errorf("row link cell: got %v, want %s", got, task.ID)
	}
	if src.cell("Tasks!2", testModified) == nil {
		t.Error("modified cell not stamped")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	clock := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	src.addRow("Tasks!2", map[string]any{
		"Task":     "Buy groceries",
		"Priority": "1-Low",
		"Status":   "Not Started",
		"Done":     "FALSE",
	})

	eng := newTestEngine(t, src, st, clock)
	if _, err := eng.RunSync(context.Background(), testScope); err != nil {
		t.Fatalf("first run: %v", err)
	}

	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.IsZero() {
		t.Errorf("second cycle should change nothing: %+v", second)
	}

	clock.advance(time.Hour)
	third, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !third.IsZero() {
		t.Errorf("third cycle should change nothing: %+v", third)
	}
}

func TestSyncPullsNewerRemoteEdit(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0001", "Tasks!2", t0)
	cells := linkedRowCells("Submit report", "4-Urgent", "Not Started", t0.Add(time.Hour).Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.UpdatedLocal != 1 || summary.UpdatedRemote != 0 {
		t.Fatalf("summary: %+v", summary)
	}

	got, err := st.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Priority != models.PriorityUrgent {
		t.Errorf("priority not pulled: %s", got.Priority)
	}
	if !got.ExternalModifiedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("external modified not advanced: %v", got.ExternalModifiedAt)
	}
	if src.writes != 0 {
		t.Errorf("pull must not write to the sheet, got %d writes", src.writes)
	}
}

func TestSyncPushesNewerLocalEdit(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0002", "Tasks!2", t0)
	task.Status = models.StatusInProgress
	task.UpdatedAt = t0.Add(time.Hour)
	if err := st.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("update seed: %v", err)
	}

	cells := linkedRowCells("Submit report", "2-Medium", "Not Started", t0.Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.UpdatedRemote != 1 || summary.UpdatedLocal != 0 {
		t.Fatalf("summary: %+v", summary)
	}

	if got := src.cell("Tasks!2", "Status"); got != "In Progress" {
		t.Errorf("status cell: got %v", got)
	}

	// The persisted external timestamp matches the stamped modified cell, so
	// the next cycle sees its own write.
	got, _ := st.GetTask(context.Background(), task.ID)
	if !got.ExternalModifiedAt.Equal(clock.t) {
		t.Errorf("external modified: got %v, want %v", got.ExternalModifiedAt, clock.t)
	}

	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.IsZero() {
		t.Errorf("push should converge in one cycle: %+v", second)
	}
}

func TestSyncHoldsProtectedFields(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0003", "Tasks!2", t0)
	weekly := "weekly"
	task.RecurringType = &weekly
	planned := t0
	task.PlannedDate = &planned
	if err := st.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("update seed: %v", err)
	}

	// Remote side is newer and flips the protected done checkbox.
	cells := linkedRowCells("Submit report", "2-Medium", "Not Started", t0.Add(time.Hour).Format(time.RFC3339))
	cells["Task ID"] = task.ID
	cells["Done"] = "TRUE"
	cells["Planned"] = "2026-09-01"
	src.addRow("Tasks!2", cells)

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.ConflictsSkipped != 1 {
		t.Fatalf("conflicts skipped: got %d, want 1", summary.ConflictsSkipped)
	}

	got, _ := st.GetTask(context.Background(), task.ID)
	if got.Done {
		t.Error("protected done flag was overwritten")
	}
	if !translate.SameDay(*got.PlannedDate, t0, time.UTC) {
		t.Errorf("protected planned date was overwritten: %v", got.PlannedDate)
	}
	if got.SyncStatus != models.SyncConflict {
		t.Errorf("sync status: got %s, want conflict", got.SyncStatus)
	}
	if src.writes != 0 {
		t.Error("held fields must not be pushed back to the sheet")
	}

	conflicts, err := st.RecentConflicts(context.Background(), testScope.Tenant, 10, nil)
	if err != nil {
		t.Fatalf("RecentConflicts: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflict records, got %d", len(conflicts))
	}

	// Re-running does not re-count or re-record the same standing conflict.
	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.ConflictsSkipped != 0 {
		t.Errorf("standing conflict re-counted: %+v", second)
	}
	conflicts, _ = st.RecentConflicts(context.Background(), testScope.Tenant, 10, nil)
	if len(conflicts) != 2 {
		t.Errorf("standing conflict re-recorded: %d records", len(conflicts))
	}
}

func TestSyncAmbiguousMatchCreatesNew(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}

	// Two unlinked tasks with the same normalized title and no dates.
	for _, id := range []string{"ts-aaaa0004", "ts-aaaa0005"} {
		task := models.CanonicalTask{
			ID: id, Tenant: testScope.Tenant, Domain: testScope.Domain,
			Title: "Standup notes", Status: models.StatusNotStarted,
			Priority: models.PriorityNone, UpdatedAt: t0, SyncStatus: models.SyncLocalOnly,
		}
		if err := st.UpsertTask(context.Background(), task); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	src.addRow("Tasks!2", map[string]any{"Task": "Standup notes", "Done": "FALSE"})

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.Created != 1 || summary.DuplicatesCreated != 1 {
		t.Fatalf("summary: %+v", summary)
	}

	tasks, _ := st.ListTasks(context.Background(), testScope.Tenant, testScope.Domain)
	if len(tasks) != 3 {
		t.Errorf("expected 3 tasks after duplicate creation, got %d", len(tasks))
	}
}

func TestSyncSkipsRowAfterRetryBudget(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0006", "Tasks!2", t0)
	task.Status = models.StatusInProgress
	task.UpdatedAt = t0.Add(time.Hour)
	if err := st.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("update seed: %v", err)
	}
	cells := linkedRowCells("Submit report", "2-Medium", "Not Started", t0.Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	src.failWrites = 3 // exhaust the retry budget
	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.SkippedTransient != 1 || summary.UpdatedRemote != 0 {
		t.Fatalf("summary: %+v", summary)
	}

	// The canonical timestamp was not advanced, so the next cycle recomputes
	// and reissues the same write.
	got, _ := st.GetTask(context.Background(), task.ID)
	if !got.ExternalModifiedAt.Equal(t0) {
		t.Errorf("timestamp advanced despite failed write: %v", got.ExternalModifiedAt)
	}

	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.UpdatedRemote != 1 {
		t.Fatalf("retry cycle should land the write: %+v", second)
	}
	if got := src.cell("Tasks!2", "Status"); got != "In Progress" {
		t.Errorf("status cell after recovery: got %v", got)
	}
}

func TestSyncDuplicateRowOfLinkedTaskCreatesNew(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0008", "Tasks!2", t0)
	cells := linkedRowCells("Submit report", "2-Medium", "Not Started", t0.Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	// The same row copied without its link cell.
	src.addRow("Tasks!3", map[string]any{"Task": "Submit report", "Done": "FALSE"})

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("duplicate row should become its own task: %+v", summary)
	}

	tasks, _ := st.ListTasks(context.Background(), testScope.Tenant, testScope.Domain)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	got, _ := st.GetTask(context.Background(), task.ID)
	if got.ExternalRowID != "Tasks!2" {
		t.Errorf("original task's link moved: %q", got.ExternalRowID)
	}
	if cell := src.cell("Tasks!2", "Task ID"); cell != task.ID {
		t.Errorf("original row link cell: got %v, want %s", cell, task.ID)
	}
	newID := src.cell("Tasks!3", "Task ID")
	if newID == nil || newID == task.ID {
		t.Errorf("duplicate row link cell: got %v", newID)
	}

	// Links stay put on later cycles.
	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.IsZero() {
		t.Errorf("links oscillated: %+v", second)
	}
}

func TestSyncCountsFailedHousekeepingUpsert(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0009", "Tasks!2", t0)
	// Remote timestamp moved with no value changes, so only the stored
	// external timestamp needs refreshing.
	cells := linkedRowCells("Submit report", "2-Medium", "Not Started", t0.Add(time.Hour).Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	flaky := &flakyStore{Store: st, failUpserts: 1}
	eng := New(Options{
		Source:   src,
		Tasks:    flaky,
		Vocab:    vocab.DefaultSet(),
		Recorder: st,
		Location: time.UTC,
		SheetIDs: map[models.Domain]string{models.DomainPersonal: testSheet},
		Now:      clock.Now,
	})

	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.SkippedTransient != 1 {
		t.Fatalf("failed refresh not counted: %+v", summary)
	}

	// The next cycle lands the refresh.
	clock.advance(time.Hour)
	second, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.SkippedTransient != 0 {
		t.Errorf("refresh still failing: %+v", second)
	}
	got, _ := st.GetTask(context.Background(), task.ID)
	if !got.ExternalModifiedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("external modified not refreshed: %v", got.ExternalModifiedAt)
	}
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0.Add(2 * time.Hour)}

	task := seedLinkedTask(t, st, "ts-aaaa0007", "Tasks!2", t0)
	cells := linkedRowCells("Submit report", "4-Urgent", "Not Started", t0.Add(time.Hour).Format(time.RFC3339))
	cells["Task ID"] = task.ID
	src.addRow("Tasks!2", cells)

	idSeq := 0
	eng := New(Options{
		Source:   src,
		Tasks:    st,
		Vocab:    vocab.DefaultSet(),
		Recorder: st,
		Location: time.UTC,
		SheetIDs: map[models.Domain]string{models.DomainPersonal: testSheet},
		DryRun:   true,
		Now:      clock.Now,
		NewID: func() (string, error) {
			idSeq++
			return fmt.Sprintf("ts-dry%05d", idSeq), nil
		},
	})

	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.UpdatedLocal != 1 {
		t.Fatalf("dry run should still report the diff: %+v", summary)
	}

	got, _ := st.GetTask(context.Background(), task.ID)
	if got.Priority != models.PriorityMedium {
		t.Error("dry run wrote to the store")
	}
	if src.writes != 0 {
		t.Error("dry run wrote to the sheet")
	}
	history, _ := st.HistoryTail(context.Background(), testScope.Tenant, 10)
	if len(history) != 0 {
		t.Error("dry run recorded cycle history")
	}
}

func TestSyncDanglingLinkRematches(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	clock := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	cells := map[string]any{
		"Task":    "Orphaned row",
		"Done":    "FALSE",
		"Task ID": "ts-gone1234",
	}
	src.addRow("Tasks!2", cells)

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("dangling link should fall back to create: %+v", summary)
	}

	// The row's link cell was repaired to the new task.
	tasks, _ := st.ListTasks(context.Background(), testScope.Tenant, testScope.Domain)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if got := src.cell("Tasks!2", "Task ID"); got != tasks[0].ID {
		t.Errorf("link cell: got %v, want %s", got, tasks[0].ID)
	}
}

func TestSyncAbortsWhenSpreadsheetUnreachable(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("connection refused")
	st := setupTaskStore(t)
	clock := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	eng := newTestEngine(t, src, st, clock)
	summary, err := eng.RunSync(context.Background(), testScope)
	if err == nil {
		t.Fatal("expected connectivity error")
	}
	if !IsConnectivity(err) {
		t.Errorf("error type: %v", err)
	}
	if !summary.IsZero() {
		t.Errorf("aborted cycle must change nothing: %+v", summary)
	}

	// The failed cycle still lands in history with its error.
	history, herr := st.HistoryTail(context.Background(), testScope.Tenant, 10)
	if herr != nil {
		t.Fatalf("HistoryTail: %v", herr)
	}
	if len(history) != 1 || history[0].Error == "" {
		t.Errorf("history: %+v", history)
	}
}

func TestSyncUnconfiguredDomain(t *testing.T) {
	src := newFakeSource()
	st := setupTaskStore(t)
	clock := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	eng := newTestEngine(t, src, st, clock)
	_, err := eng.RunSync(context.Background(), Scope{Tenant: "t1", Domain: models.DomainWork})
	if err == nil {
		t.Fatal("expected error for domain without a sheet")
	}
}
