// Package output provides styled terminal output helpers (success, error,
// warning, task and summary formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/d-royes/tasksync/internal/engine"
	"github.com/d-royes/tasksync/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		models.PriorityNone:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusNotStarted: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusWaiting:    lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
	syncStatusStyles = map[models.SyncStatus]lipgloss.Style{
		models.SyncLocalOnly: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		models.SyncPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SyncSynced:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.SyncConflict:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeConflict      = "conflict"
	ErrCodeLocked        = "scope_locked"
	ErrCodeConnectivity  = "connectivity"
	ErrCodeDatabaseError = "database_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	errObj := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
	data, _ := json.MarshalIndent(errObj, "", "  ")
	fmt.Println(string(data))
}

// FormatStatus formats a status with color
func FormatStatus(s models.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatPriority formats a priority with color
func FormatPriority(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return string(p)
	}
	return style.Render(fmt.Sprintf("[%s]", p))
}

// FormatSyncStatus formats a sync status with color
func FormatSyncStatus(s models.SyncStatus) string {
	style, ok := syncStatusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// FormatTaskShort formats a task as a single line
func FormatTaskShort(task *models.CanonicalTask) string {
	var parts []string
	parts = append(parts, titleStyle.Render(task.ID))
	parts = append(parts, FormatPriority(task.Priority))
	parts = append(parts, task.Title)
	parts = append(parts, subtleStyle.Render(string(task.Domain)))
	if task.PlannedDate != nil {
		parts = append(parts, subtleStyle.Render(task.PlannedDate.Format("2006-01-02")))
	}
	parts = append(parts, FormatStatus(task.Status))
	parts = append(parts, FormatSyncStatus(task.SyncStatus))
	return strings.Join(parts, "  ")
}

// FormatTaskLong formats a task with every field on its own line
func FormatTaskLong(task *models.CanonicalTask) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", task.ID, task.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Domain: %s | Status: %s | Priority: %s\n",
		task.Domain, FormatStatus(task.Status), FormatPriority(task.Priority)))

	writeDate := func(label string, t *time.Time) {
		if t != nil {
			sb.WriteString(fmt.Sprintf("%s: %s\n", label, t.Format("2006-01-02")))
		}
	}
	writeDate("Planned", task.PlannedDate)
	writeDate("Target", task.TargetDate)
	writeDate("Deadline", task.HardDeadline)

	if task.Done {
		if task.CompletedOn != nil {
			sb.WriteString(fmt.Sprintf("Done: yes (%s)\n", task.CompletedOn.Format("2006-01-02")))
		} else {
			sb.WriteString("Done: yes\n")
		}
	}
	if task.RecurringType != nil {
		sb.WriteString(fmt.Sprintf("Recurring: %s", *task.RecurringType))
		if len(task.RecurringDays) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(task.RecurringDays, ", ")))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Sync: %s", FormatSyncStatus(task.SyncStatus)))
	if task.Linked() {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("  row %s", task.ExternalRowID)))
	}
	sb.WriteString("\n")
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Updated %s", FormatTimeAgo(task.UpdatedAt))))
	sb.WriteString("\n")

	return sb.String()
}

// FormatSummary renders a cycle summary as one line per nonzero counter.
func FormatSummary(s engine.SyncSummary) string {
	if s.IsZero() {
		return subtleStyle.Render("Nothing to sync; already up to date.")
	}
	var sb strings.Builder
	line := func(n int, label string) {
		if n > 0 {
			sb.WriteString(fmt.Sprintf("  %d %s\n", n, label))
		}
	}
	line(s.Created, "created")
	line(s.UpdatedLocal, "updated locally")
	line(s.UpdatedRemote, "updated on sheet")
	if s.ConflictsSkipped > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("  %d conflicts held", s.ConflictsSkipped)))
		sb.WriteString("\n")
	}
	line(s.DuplicatesCreated, "ambiguous matches created as new")
	if s.SkippedTransient > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("  %d rows skipped after retries", s.SkippedTransient)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// TerminalWidth returns the current terminal width, defaulting to 80 when
// stdout is not a terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Truncate shortens s to width runes with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
