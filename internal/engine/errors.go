package engine

import (
	"errors"
	"fmt"
)

// TransientError marks a remote failure worth retrying: timeouts, rate
// limits, 5xx. Exhausting the retry budget for one record skips that record,
// never the cycle.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConnectivityError means one of the two systems is entirely unreachable.
// This is the only condition that aborts a cycle early.
type ConnectivityError struct {
	System string // "spreadsheet" or "store"
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.System, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// LinkIntegrityError means a stored link points at a task that no longer
// exists. The row is treated as unlinked for the current cycle and handed
// back to the matcher.
type LinkIntegrityError struct {
	RowID  string
	TaskID string
}

func (e *LinkIntegrityError) Error() string {
	return fmt.Sprintf("row %s links to missing task %s", e.RowID, e.TaskID)
}

// ErrScopeLocked is returned when another cycle already holds the scope.
var ErrScopeLocked = errors.New("sync scope is locked by another cycle")
