package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/d-royes/tasksync/internal/models"
)

func TestScopeLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()
	scope := Scope{Tenant: "t1", Domain: models.DomainPersonal}

	first := newScopeLocker(dir, scope)
	if err := first.acquire(time.Second); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.release()

	second := newScopeLocker(dir, scope)
	err := second.acquire(50 * time.Millisecond)
	if err == nil {
		second.release()
		t.Fatal("second acquire should fail while first holds the lock")
	}
	if !errors.Is(err, ErrScopeLocked) {
		t.Errorf("error should wrap ErrScopeLocked: %v", err)
	}
}

func TestScopeLockReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	scope := Scope{Tenant: "t1", Domain: models.DomainWork}

	l := newScopeLocker(dir, scope)
	if err := l.acquire(time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := l.release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again := newScopeLocker(dir, scope)
	if err := again.acquire(time.Second); err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	again.release()
}

func TestScopeLocksAreIndependentPerScope(t *testing.T) {
	dir := t.TempDir()

	a := newScopeLocker(dir, Scope{Tenant: "t1", Domain: models.DomainPersonal})
	if err := a.acquire(time.Second); err != nil {
		t.Fatalf("acquire personal: %v", err)
	}
	defer a.release()

	// A different domain in the same tenant locks independently.
	b := newScopeLocker(dir, Scope{Tenant: "t1", Domain: models.DomainChurch})
	if err := b.acquire(time.Second); err != nil {
		t.Fatalf("acquire church: %v", err)
	}
	b.release()
}
