package storage

import (
	"context"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// Versioning pass-through. These calls change or inspect the backend's
// checked-out version; the adapter forwards them without interpretation.
// Mutating calls take the exclusive lock so no concurrent storage operation
// observes a mid-transition version. Backends without versioning support
// (no types.Versioner) refuse all of them as unsupported.

func (a *Adapter) versioner(op string) (types.Versioner, error) {
	v, ok := a.backend.(types.Versioner)
	if !ok {
		return nil, unsupported(op, "the backend does not support versioning")
	}
	return v, nil
}

// Commit persists the session's uncommitted changes as a new snapshot.
func (a *Adapter) Commit(ctx context.Context, message string) (id types.SnapshotID, err error) {
	defer func(start time.Time) { a.record("commit", start, err) }(time.Now())

	v, err := a.versioner("commit")
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	id, berr := v.Commit(ctx, message)
	a.mu.Unlock()
	if err = wrapBackendErr("commit", berr); err != nil {
		return "", err
	}
	return id, nil
}

// Checkout moves the session to the given version. Subsequent storage
// operations observe that version's namespace, and capability flags may
// change with it.
func (a *Adapter) Checkout(ctx context.Context, ref types.VersionRef) (err error) {
	defer func(start time.Time) { a.record("checkout", start, err) }(time.Now())

	v, err := a.versioner("checkout")
	if err != nil {
		return err
	}
	a.mu.Lock()
	berr := v.Checkout(ctx, ref)
	a.mu.Unlock()
	return wrapBackendErr("checkout", berr)
}

// NewBranch creates a branch at the current snapshot and switches to it.
func (a *Adapter) NewBranch(ctx context.Context, name string) (err error) {
	defer func(start time.Time) { a.record("new_branch", start, err) }(time.Now())

	v, err := a.versioner("new_branch")
	if err != nil {
		return err
	}
	a.mu.Lock()
	berr := v.NewBranch(ctx, name)
	a.mu.Unlock()
	return wrapBackendErr("new_branch", berr)
}

// Tag names the given snapshot.
func (a *Adapter) Tag(ctx context.Context, name string, id types.SnapshotID) (err error) {
	defer func(start time.Time) { a.record("tag", start, err) }(time.Now())

	v, err := a.versioner("tag")
	if err != nil {
		return err
	}
	a.mu.Lock()
	berr := v.Tag(ctx, name, id)
	a.mu.Unlock()
	return wrapBackendErr("tag", berr)
}

// Reset discards the session's uncommitted changes.
func (a *Adapter) Reset(ctx context.Context) (err error) {
	defer func(start time.Time) { a.record("reset", start, err) }(time.Now())

	v, err := a.versioner("reset")
	if err != nil {
		return err
	}
	a.mu.Lock()
	berr := v.Reset(ctx)
	a.mu.Unlock()
	return wrapBackendErr("reset", berr)
}

// CurrentBranch returns the session's branch name, or "" when detached.
func (a *Adapter) CurrentBranch(ctx context.Context) (string, error) {
	v, err := a.versioner("current_branch")
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	name, berr := v.CurrentBranch(ctx)
	a.mu.RUnlock()
	return name, wrapBackendErr("current_branch", berr)
}

// SnapshotID returns the identity of the checked-out snapshot.
func (a *Adapter) SnapshotID(ctx context.Context) (types.SnapshotID, error) {
	v, err := a.versioner("snapshot_id")
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	id, berr := v.SnapshotID(ctx)
	a.mu.RUnlock()
	return id, wrapBackendErr("snapshot_id", berr)
}

// HasUncommittedChanges reports whether the session holds writes or deletes
// not yet committed.
func (a *Adapter) HasUncommittedChanges(ctx context.Context) (bool, error) {
	v, err := a.versioner("has_uncommitted_changes")
	if err != nil {
		return false, err
	}
	a.mu.RLock()
	dirty, berr := v.HasUncommittedChanges(ctx)
	a.mu.RUnlock()
	return dirty, wrapBackendErr("has_uncommitted_changes", berr)
}
