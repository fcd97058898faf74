package models

import (
	"strings"
	"time"
)

// Domain partitions tasks into isolated vocabularies (personal, church, work).
// Duplicate matching and conflict resolution never cross domains.
type Domain string

const (
	DomainPersonal Domain = "personal"
	DomainChurch   Domain = "church"
	DomainWork     Domain = "work"
)

// SyncStatus tracks where a task sits in the reconciliation lifecycle.
type SyncStatus string

const (
	SyncLocalOnly SyncStatus = "local_only"
	SyncPending   SyncStatus = "pending"
	SyncSynced    SyncStatus = "synced"
	SyncConflict  SyncStatus = "conflict"
)

// Priority is the canonical, domain-agnostic priority scale. Per-domain
// spreadsheet encodings ("4-Urgent", bare "Urgent") map onto these tiers.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// Status is the canonical task status.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWaiting    Status = "waiting"
	StatusDone       Status = "done"
)

// CanonicalTask is the document-store-resident task, the durable identity
// once linked to a spreadsheet row.
type CanonicalTask struct {
	ID       string   `json:"id"`
	Tenant   string   `json:"tenant"`
	Domain   Domain   `json:"domain"`
	Title    string   `json:"title"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	PlannedDate  *time.Time `json:"planned_date,omitempty"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
	HardDeadline *time.Time `json:"hard_deadline,omitempty"`

	// RecurringType non-nil marks the task as protected: recurrence-managed
	// fields are never overwritten from the spreadsheet side.
	RecurringType *string  `json:"recurring_type,omitempty"`
	RecurringDays []string `json:"recurring_days,omitempty"`

	Done        bool       `json:"done"`
	CompletedOn *time.Time `json:"completed_on,omitempty"`

	// ExternalRowID links to the spreadsheet row; empty until linked.
	ExternalRowID      string     `json:"external_row_id,omitempty"`
	ExternalModifiedAt time.Time  `json:"external_modified_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	SyncStatus         SyncStatus `json:"sync_status"`
}

// Protected reports whether the recurrence-managed fields on this task are
// shielded from spreadsheet-side writes.
func (t *CanonicalTask) Protected() bool {
	return t.RecurringType != nil
}

// Linked reports whether the task references a spreadsheet row.
func (t *CanonicalTask) Linked() bool {
	return t.ExternalRowID != ""
}

// RemoteRow is the spreadsheet-native representation of a task: an untyped
// column map keyed by header name, plus the row's stable identifier.
type RemoteRow struct {
	RowID      string         `json:"row_id"`
	SheetID    string         `json:"sheet_id"`
	Columns    map[string]any `json:"columns"`
	ModifiedAt time.Time      `json:"modified_at"`
}

// Column returns the named column value, or nil when absent.
func (r *RemoteRow) Column(name string) any {
	if r.Columns == nil {
		return nil
	}
	return r.Columns[name]
}

// StringColumn returns the named column as a trimmed string ("" when absent
// or not string-shaped).
func (r *RemoteRow) StringColumn(name string) string {
	s, ok := r.Column(name).(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// RowChange is a single pending write against a spreadsheet row. Columns maps
// header name to the new cell value.
type RowChange struct {
	RowID   string         `json:"row_id"`
	Columns map[string]any `json:"columns"`
}

// IsValidDomain checks if a domain is one of the configured partitions.
func IsValidDomain(d Domain) bool {
	switch d {
	case DomainPersonal, DomainChurch, DomainWork:
		return true
	}
	return false
}

// IsValidPriority checks if a priority is on the canonical scale.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// IsValidStatus checks if a status is canonical.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusWaiting, StatusDone:
		return true
	}
	return false
}

// IsValidSyncStatus checks if a sync status is a known lifecycle state.
func IsValidSyncStatus(s SyncStatus) bool {
	switch s {
	case SyncLocalOnly, SyncPending, SyncSynced, SyncConflict:
		return true
	}
	return false
}

// NormalizeTitle lowercases and collapses whitespace for duplicate matching.
// Matching compares normalized titles, never raw ones.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
