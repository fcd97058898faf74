// Package engine drives full reconciliation cycles between the spreadsheet
// task source and the canonical document store: fetch both snapshots, match
// unlinked rows, diff linked pairs, apply the diffs to whichever side is
// stale, and persist the cross-reference identifiers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/d-royes/tasksync/internal/match"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/resolve"
	"github.com/d-royes/tasksync/internal/store"
	"github.com/d-royes/tasksync/internal/translate"
	"github.com/d-royes/tasksync/internal/vocab"
)

// Options configures an Engine.
type Options struct {
	Source   SpreadsheetSource
	Tasks    store.TaskStore
	Vocab    vocab.Provider
	Recorder Recorder // optional

	// Location is the user's timezone for naive remote dates.
	Location *time.Location
	// BaseDir hosts the per-scope lock files. Empty disables locking
	// (tests drive cycles directly).
	BaseDir string
	// SheetIDs maps each domain to its spreadsheet.
	SheetIDs map[models.Domain]string
	// DateTolerance is the matcher's planned-date proximity window.
	DateTolerance time.Duration
	// DryRun computes every diff but writes nothing anywhere.
	DryRun bool

	// Now and NewID are injectable for deterministic tests.
	Now   func() time.Time
	NewID func() (string, error)
}

// Engine runs sync cycles. Safe for concurrent use across distinct scopes;
// cycles within one scope are serialized by the scope lock.
type Engine struct {
	opts Options
}

// New creates an engine, filling option defaults.
func New(opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = store.GenerateID
	}
	return &Engine{opts: opts}
}

// remoteWrite is one queued spreadsheet row update plus the canonical task
// state to persist once the write lands. Persisting only after the remote
// write succeeds is what lets a crashed cycle resume: the missing write is
// simply recomputed and reissued next time.
type remoteWrite struct {
	change      models.RowChange
	task        models.CanonicalTask
	countRemote bool // false for link-writeback-only updates
}

// RunSync executes one reconciliation cycle for the scope.
func (e *Engine) RunSync(ctx context.Context, scope Scope) (SyncSummary, error) {
	var summary SyncSummary

	sheetID, ok := e.opts.SheetIDs[scope.Domain]
	if !ok || sheetID == "" {
		return summary, fmt.Errorf("no sheet configured for domain %q", scope.Domain)
	}
	voc, err := e.opts.Vocab.ForDomain(scope.Domain)
	if err != nil {
		return summary, err
	}

	if e.opts.BaseDir != "" {
		locker := newScopeLocker(e.opts.BaseDir, scope)
		if err := locker.acquire(lockTimeout); err != nil {
			return summary, err
		}
		defer locker.release()
	}

	started := e.opts.Now()
	slog.Info("sync cycle starting", "tenant", scope.Tenant, "domain", scope.Domain, "sheet", sheetID)

	rows, tasks, err := e.fetchSnapshots(ctx, scope, sheetID)
	if err != nil {
		e.recordCycle(ctx, scope, started, summary, err)
		return summary, err
	}

	tr := translate.New(voc, e.opts.Location)
	matcher := match.New(e.opts.Location, e.opts.DateTolerance)
	resolver := resolve.New(e.opts.Location)

	byID := make(map[string]*models.CanonicalTask, len(tasks))
	byRowID := make(map[string]*models.CanonicalTask)
	for i := range tasks {
		t := &tasks[i]
		byID[t.ID] = t
		if t.ExternalRowID != "" {
			byRowID[t.ExternalRowID] = t
		}
	}

	var (
		pendingRemote []remoteWrite
		conflicts     []store.ConflictRecord
	)

	for i := range rows {
		row := &rows[i]
		fields, ferrs := tr.ToCanonical(*row)
		for _, fe := range ferrs {
			slog.Warn("field failed to translate, leaving untouched",
				"row", row.RowID, "field", fe.Field, "reason", fe.Reason)
		}

		task, adopted := e.resolveLink(row, fields, scope, byID, byRowID)

		if task == nil {
			res := matcher.Match(fields, scope.Domain, tasks)
			if res.Directive == match.LinkExisting {
				task = byID[res.TaskID]
				task.ExternalRowID = row.RowID
				byRowID[row.RowID] = task
				adopted = true
			} else {
				if created := e.createFromRow(ctx, scope, row, fields, voc, &summary, res, &pendingRemote); created {
					continue
				}
				summary.SkippedTransient++
				continue
			}
		}

		e.reconcilePair(ctx, scope, row, task, fields, adopted, tr, resolver, voc,
			&summary, &pendingRemote, &conflicts)
	}

	e.applyRemoteWrites(ctx, sheetID, voc.Columns.Modified, pendingRemote, &summary)

	if e.opts.Recorder != nil && !e.opts.DryRun {
		if err := e.opts.Recorder.RecordConflicts(ctx, conflicts); err != nil {
			slog.Warn("record conflicts failed", "err", err)
		}
	}
	e.recordCycle(ctx, scope, started, summary, nil)

	slog.Info("sync cycle finished",
		"tenant", scope.Tenant, "domain", scope.Domain,
		"created", summary.Created, "updated_local", summary.UpdatedLocal,
		"updated_remote", summary.UpdatedRemote, "conflicts", summary.ConflictsSkipped,
		"duplicates", summary.DuplicatesCreated, "skipped", summary.SkippedTransient)
	return summary, nil
}

// fetchSnapshots pulls both sides concurrently. Either side entirely
// unreachable aborts the cycle: there is nothing meaningful to reconcile
// against half a picture.
func (e *Engine) fetchSnapshots(ctx context.Context, scope Scope, sheetID string) ([]models.RemoteRow, []models.CanonicalTask, error) {
	var (
		rows  []models.RemoteRow
		tasks []models.CanonicalTask
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := withRetry(gctx, "list rows", func() error {
			var err error
			rows, err = e.opts.Source.ListRows(gctx, sheetID)
			return err
		})
		if err != nil {
			return &ConnectivityError{System: "spreadsheet", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		err := withRetry(gctx, "list tasks", func() error {
			var err error
			tasks, err = e.opts.Tasks.ListTasks(gctx, scope.Tenant, scope.Domain)
			return err
		})
		if err != nil {
			return &ConnectivityError{System: "store", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rows, tasks, nil
}

// resolveLink finds the canonical task a row is linked to, if any. A link
// pointing at a missing or cross-domain task is surfaced and the row treated
// as unlinked for this cycle.
func (e *Engine) resolveLink(row *models.RemoteRow, fields translate.RowFields, scope Scope,
	byID, byRowID map[string]*models.CanonicalTask) (*models.CanonicalTask, bool) {

	if task := byRowID[row.RowID]; task != nil {
		return task, false
	}
	if fields.Link == "" {
		return nil, false
	}

	task := byID[fields.Link]
	switch {
	case task == nil || task.Domain != scope.Domain:
		lerr := &LinkIntegrityError{RowID: row.RowID, TaskID: fields.Link}
		slog.Warn("link integrity failure, re-matching row", "err", lerr)
		return nil, false
	case task.ExternalRowID != "" && task.ExternalRowID != row.RowID:
		// Task already claimed by another row; linking this one too would
		// break the one-task-per-row invariant.
		slog.Warn("task already linked to a different row, re-matching",
			"task", task.ID, "row", row.RowID, "linked_row", task.ExternalRowID)
		return nil, false
	default:
		task.ExternalRowID = row.RowID
		byRowID[row.RowID] = task
		return task, true
	}
}

// createFromRow materializes a new canonical task from an unmatched row and
// queues the link writeback. Returns false if the store write failed.
func (e *Engine) createFromRow(ctx context.Context, scope Scope, row *models.RemoteRow,
	fields translate.RowFields, voc *vocab.Vocabulary, summary *SyncSummary, res match.Result,
	pendingRemote *[]remoteWrite) bool {

	id, err := e.opts.NewID()
	if err != nil {
		slog.Error("generate task id", "err", err)
		return false
	}

	now := e.opts.Now()
	task := models.CanonicalTask{
		ID:                 id,
		Tenant:             scope.Tenant,
		Domain:             scope.Domain,
		Title:              fields.Title,
		Status:             fields.Status,
		Priority:           fields.Priority,
		PlannedDate:        fields.PlannedDate,
		TargetDate:         fields.TargetDate,
		HardDeadline:       fields.HardDeadline,
		Done:               fields.Done,
		CompletedOn:        fields.CompletedOn,
		ExternalRowID:      row.RowID,
		ExternalModifiedAt: row.ModifiedAt,
		UpdatedAt:          now,
		SyncStatus:         models.SyncPending,
	}

	if !e.opts.DryRun {
		if err := e.opts.Tasks.UpsertTask(ctx, task); err != nil {
			slog.Error("create task from row", "row", row.RowID, "err", err)
			return false
		}
	}

	summary.Created++
	if res.Candidates > 1 {
		summary.DuplicatesCreated++
		slog.Info("ambiguous match, created new task instead of merging",
			"row", row.RowID, "candidates", res.Candidates, "task", id)
	}

	// The row learns its task ID on the same cycle.
	linked := task
	linked.SyncStatus = models.SyncSynced
	e.queueRowUpdate(pendingRemote, models.RowChange{
		RowID:   row.RowID,
		Columns: map[string]any{voc.Columns.Link: id},
	}, linked, false)
	return true
}

// reconcilePair translates, resolves, and applies the diff for one linked
// pair. All diffs of a pair flow one direction, decided by the record
// timestamps.
func (e *Engine) reconcilePair(ctx context.Context, scope Scope, row *models.RemoteRow,
	task *models.CanonicalTask, fields translate.RowFields, adopted bool,
	tr *translate.Translator, resolver *resolve.Resolver, voc *vocab.Vocabulary,
	summary *SyncSummary, pendingRemote *[]remoteWrite, conflicts *[]store.ConflictRecord) {

	compared := *task
	compared.ExternalModifiedAt = row.ModifiedAt
	res := resolver.Resolve(compared, fields)

	desired := models.SyncSynced
	if len(res.ProtectedHeld) > 0 {
		desired = models.SyncConflict
		if task.SyncStatus != models.SyncConflict {
			summary.ConflictsSkipped++
			for _, field := range res.ProtectedHeld {
				*conflicts = append(*conflicts, store.ConflictRecord{
					Tenant:    scope.Tenant,
					Domain:    scope.Domain,
					TaskID:    task.ID,
					Field:     field,
					Canonical: fmt.Sprintf("%v", protectedCanonicalValue(task, field)),
					Remote:    fmt.Sprintf("%v", protectedRemoteValue(fields, field)),
				})
			}
			slog.Warn("protected fields held, remote values discarded",
				"task", task.ID, "fields", res.ProtectedHeld)
		}
	}

	linkStale := fields.Link != task.ID

	switch {
	case len(res.WriteToLocal) > 0:
		updated := *task
		applyFieldDiffs(&updated, fields, res.WriteToLocal)
		updated.UpdatedAt = e.opts.Now()
		updated.ExternalModifiedAt = row.ModifiedAt
		updated.SyncStatus = desired
		if !e.opts.DryRun {
			if err := e.opts.Tasks.UpsertTask(ctx, updated); err != nil {
				slog.Error("apply remote fields", "task", task.ID, "err", err)
				summary.SkippedTransient++
				return
			}
		}
		*task = updated
		summary.UpdatedLocal++
		if linkStale {
			e.queueLinkWriteback(pendingRemote, row, *task, voc)
		}

	case len(res.WriteToRemote) > 0:
		updated := *task
		updated.SyncStatus = desired
		change := models.RowChange{
			RowID:   row.RowID,
			Columns: e.remoteCells(tr, voc, updated, res.WriteToRemote),
		}
		if linkStale {
			change.Columns[voc.Columns.Link] = task.ID
		}
		e.queueRowUpdate(pendingRemote, change, updated, true)

	default:
		// Both sides agree on every comparable field.
		if linkStale {
			e.queueLinkWriteback(pendingRemote, row, *task, voc)
			return
		}
		if task.SyncStatus != desired || adopted || !task.ExternalModifiedAt.Equal(row.ModifiedAt) {
			updated := *task
			updated.SyncStatus = desired
			updated.ExternalModifiedAt = row.ModifiedAt
			if !e.opts.DryRun {
				if err := e.opts.Tasks.UpsertTask(ctx, updated); err != nil {
					slog.Error("update sync status", "task", task.ID, "err", err)
					summary.SkippedTransient++
					return
				}
			}
			*task = updated
		}
	}
}

// queueLinkWriteback repairs a missing or stale link value on the row.
func (e *Engine) queueLinkWriteback(pendingRemote *[]remoteWrite,
	row *models.RemoteRow, task models.CanonicalTask, voc *vocab.Vocabulary) {

	task.SyncStatus = models.SyncSynced
	e.queueRowUpdate(pendingRemote, models.RowChange{
		RowID:   row.RowID,
		Columns: map[string]any{voc.Columns.Link: task.ID},
	}, task, false)
}

// queueRowUpdate queues one spreadsheet write for the apply phase.
func (e *Engine) queueRowUpdate(pendingRemote *[]remoteWrite,
	change models.RowChange, task models.CanonicalTask, countRemote bool) {

	*pendingRemote = append(*pendingRemote, remoteWrite{
		change:      change,
		task:        task,
		countRemote: countRemote,
	})
}

// applyRemoteWrites pushes queued row changes one record at a time, so one
// stubborn row cannot abort the rest. The canonical timestamps are persisted
// only after the remote write lands.
func (e *Engine) applyRemoteWrites(ctx context.Context, sheetID, modifiedHeader string, writes []remoteWrite, summary *SyncSummary) {
	for _, w := range writes {
		writeTime := e.opts.Now()
		if e.opts.DryRun {
			if w.countRemote {
				summary.UpdatedRemote++
			}
			continue
		}

		// The modified cell and the persisted external timestamp carry the
		// same instant, so the engine's own write is never mistaken for a
		// fresh remote edit on the next cycle.
		if modifiedHeader != "" {
			w.change.Columns[modifiedHeader] = writeTime.In(e.opts.Location).Format(time.RFC3339)
		}

		err := withRetry(ctx, "write row "+w.change.RowID, func() error {
			return e.opts.Source.ApplyChanges(ctx, sheetID, []models.RowChange{w.change})
		})
		if err != nil {
			slog.Warn("row write abandoned after retries", "row", w.change.RowID, "err", err)
			summary.SkippedTransient++
			continue
		}

		task := w.task
		task.ExternalModifiedAt = writeTime
		if err := e.opts.Tasks.UpsertTask(ctx, task); err != nil {
			// The remote write landed; next cycle sees equal values and
			// re-persists the link state without re-writing the sheet.
			slog.Error("persist after remote write", "task", task.ID, "err", err)
		}
		if w.countRemote {
			summary.UpdatedRemote++
		}
	}
}

func (e *Engine) recordCycle(ctx context.Context, scope Scope, started time.Time, summary SyncSummary, runErr error) {
	if e.opts.Recorder == nil || e.opts.DryRun {
		return
	}
	rec := store.CycleRecord{
		Tenant:            scope.Tenant,
		Domain:            scope.Domain,
		StartedAt:         started,
		FinishedAt:        e.opts.Now(),
		Created:           summary.Created,
		UpdatedLocal:      summary.UpdatedLocal,
		UpdatedRemote:     summary.UpdatedRemote,
		ConflictsSkipped:  summary.ConflictsSkipped,
		DuplicatesCreated: summary.DuplicatesCreated,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := e.opts.Recorder.RecordCycle(ctx, rec); err != nil {
		slog.Warn("record cycle failed", "err", err)
	}
}

// remoteCells renders the fields of a directional diff as sheet cells, plus
// the engine-maintained modified timestamp.
func (e *Engine) remoteCells(tr *translate.Translator, voc *vocab.Vocabulary,
	task models.CanonicalTask, diffs []resolve.FieldDiff) map[string]any {

	all, errs := tr.ToRemote(task)
	for _, fe := range errs {
		slog.Warn("field failed to render for remote write", "task", task.ID, "field", fe.Field, "reason", fe.Reason)
	}

	cells := make(map[string]any, len(diffs)+1)
	for _, d := range diffs {
		header := fieldHeader(voc.Columns, d.Field)
		if header == "" {
			continue
		}
		if v, ok := all[header]; ok {
			cells[header] = v
		}
	}
	return cells
}

// fieldHeader maps a canonical field name to its sheet header.
func fieldHeader(cols vocab.Columns, field string) string {
	switch field {
	case resolve.FieldTitle:
		return cols.Title
	case resolve.FieldPriority:
		return cols.Priority
	case resolve.FieldStatus:
		return cols.Status
	case resolve.FieldPlannedDate:
		return cols.Planned
	case resolve.FieldTargetDate:
		return cols.Target
	case resolve.FieldHardDeadline:
		return cols.Deadline
	case resolve.FieldDone:
		return cols.Done
	case resolve.FieldCompletedOn:
		return cols.Completed
	}
	return ""
}

// applyFieldDiffs writes remote-won field values onto the task.
func applyFieldDiffs(task *models.CanonicalTask, fields translate.RowFields, diffs []resolve.FieldDiff) {
	for _, d := range diffs {
		switch d.Field {
		case resolve.FieldTitle:
			task.Title = fields.Title
		case resolve.FieldPriority:
			task.Priority = fields.Priority
		case resolve.FieldStatus:
			task.Status = fields.Status
		case resolve.FieldPlannedDate:
			task.PlannedDate = fields.PlannedDate
		case resolve.FieldTargetDate:
			task.TargetDate = fields.TargetDate
		case resolve.FieldHardDeadline:
			task.HardDeadline = fields.HardDeadline
		case resolve.FieldDone:
			task.Done = fields.Done
		case resolve.FieldCompletedOn:
			task.CompletedOn = fields.CompletedOn
		}
	}
}

// protectedCanonicalValue extracts the canonical side of a held field for the
// conflict record.
func protectedCanonicalValue(task *models.CanonicalTask, field string) any {
	switch field {
	case resolve.FieldPlannedDate:
		return task.PlannedDate
	case resolve.FieldDone:
		return task.Done
	case resolve.FieldCompletedOn:
		return task.CompletedOn
	}
	return nil
}

// protectedRemoteValue extracts the discarded remote side of a held field.
func protectedRemoteValue(fields translate.RowFields, field string) any {
	switch field {
	case resolve.FieldPlannedDate:
		return fields.PlannedDate
	case resolve.FieldDone:
		return fields.Done
	case resolve.FieldCompletedOn:
		return fields.CompletedOn
	}
	return nil
}
