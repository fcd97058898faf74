package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockTimeout        = 500 * time.Millisecond
	lockInitialBackoff = 5 * time.Millisecond
	lockMaxBackoff     = 50 * time.Millisecond
)

// scopeLocker serializes sync cycles per (tenant, domain) scope using OS file
// locks. Neither external system offers mutual exclusion, so the lock lives
// here. It is released automatically when the process exits, crashes
// included.
type scopeLocker struct {
	lockPath string
	lockFile *os.File
}

// newScopeLocker creates a locker for a scope under baseDir.
func newScopeLocker(baseDir string, scope Scope) *scopeLocker {
	name := fmt.Sprintf("sync-%s-%s.lock", scope.Tenant, scope.Domain)
	return &scopeLocker{
		lockPath: filepath.Join(baseDir, ".tasksync", name),
	}
}

// acquire attempts to take the scope lock with bounded backoff. On timeout it
// reports the current holder.
func (l *scopeLocker) acquire(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.lockFile = f

	deadline := time.Now().Add(timeout)
	backoff := lockInitialBackoff

	for {
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}

		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.lockFile.Close()
			l.lockFile = nil
			return fmt.Errorf("%w (holder: %s)", ErrScopeLocked, holder)
		}

		time.Sleep(backoff)
		if backoff < lockMaxBackoff {
			backoff *= 2
			if backoff > lockMaxBackoff {
				backoff = lockMaxBackoff
			}
		}
	}
}

// release releases the scope lock.
func (l *scopeLocker) release() error {
	if l.lockFile == nil {
		return nil
	}
	l.lockFile.Truncate(0)
	l.unlock()
	l.lockFile.Close()
	l.lockFile = nil
	return nil
}

// writeHolder records process info in the lock file for diagnostics.
func (l *scopeLocker) writeHolder() {
	if l.lockFile == nil {
		return
	}
	l.lockFile.Truncate(0)
	l.lockFile.Seek(0, 0)
	fmt.Fprintf(l.lockFile, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.lockFile.Sync()
}

// readHolder reads holder info from the lock file.
func (l *scopeLocker) readHolder() string {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return "unknown"
	}

	var pid, timestamp string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "pid:") {
			pid = strings.TrimPrefix(line, "pid:")
		} else if strings.HasPrefix(line, "time:") {
			timestamp = strings.TrimPrefix(line, "time:")
		}
	}
	if pid == "" {
		return "unknown"
	}

	if pidInt, err := strconv.Atoi(pid); err == nil && !isProcessAlive(pidInt) {
		return fmt.Sprintf("pid:%s since %s (STALE - process dead)", pid, timestamp)
	}
	return fmt.Sprintf("pid:%s since %s", pid, timestamp)
}

// tryLock and unlock are implemented in platform-specific files:
// - lock_unix.go for Unix systems (flock)
// - lock_windows.go for Windows (LockFileEx)
