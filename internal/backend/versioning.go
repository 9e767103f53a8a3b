package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// Commit flushes the staging area into a new snapshot and advances the
// session's branch to it. Staged values become content-addressed blobs;
// writing a blob that already exists is a harmless overwrite with identical
// bytes.
func (s *Store) Commit(ctx context.Context, message string) (types.SnapshotID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly() {
		return "", fmt.Errorf("cannot commit: session is detached on snapshot %s", s.snapshot)
	}
	if len(s.staged) == 0 && len(s.tombstones) == 0 {
		return "", fmt.Errorf("cannot commit: no uncommitted changes")
	}

	manifest := make(map[string]manifestEntry, len(s.manifest)+len(s.staged))
	for key, entry := range s.manifest {
		manifest[key] = entry
	}
	for key := range s.tombstones {
		delete(manifest, key)
	}
	for key, data := range s.staged {
		hash := hashValue(data)
		if err := s.objects.PutObject(ctx, blobKey(hash), data); err != nil {
			return "", fmt.Errorf("writing blob for key %q: %w", key, err)
		}
		manifest[key] = manifestEntry{Hash: hash, Size: uint64(len(data))}
	}

	doc := snapshotDoc{
		Message:   message,
		Committed: time.Now().UTC(),
		Manifest:  manifest,
	}
	if s.snapshot != InitialSnapshotID {
		doc.Parent = s.snapshot
	}
	doc.ID = snapshotID(doc)

	if err := s.writeSnapshot(ctx, doc); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := s.writeRef(ctx, branchRefKey(s.branch), doc.ID); err != nil {
		return "", fmt.Errorf("advancing branch %q: %w", s.branch, err)
	}

	s.snapshot = doc.ID
	s.manifest = manifest
	s.staged = make(map[string][]byte)
	s.tombstones = make(map[string]struct{})

	s.logger.Info("committed snapshot",
		"branch", s.branch,
		"snapshot", string(doc.ID),
		"keys", len(manifest))
	return doc.ID, nil
}

// Checkout moves the session to another version. Uncommitted changes block
// the move; Reset or Commit first. Checking out a tag or raw snapshot leaves
// the session detached and read-only.
func (s *Store) Checkout(ctx context.Context, ref types.VersionRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.staged) > 0 || len(s.tombstones) > 0 {
		return fmt.Errorf("cannot checkout %s: session has uncommitted changes", ref)
	}

	var (
		id     types.SnapshotID
		branch string
	)
	switch ref.Kind {
	case types.RefBranch:
		head, err := s.readRef(ctx, branchRefKey(ref.Name))
		if err != nil {
			if types.IsNotFound(err) {
				return fmt.Errorf("branch %q does not exist", ref.Name)
			}
			return err
		}
		id, branch = head, ref.Name
	case types.RefTag:
		tagged, err := s.readRef(ctx, tagRefKey(ref.Name))
		if err != nil {
			if types.IsNotFound(err) {
				return fmt.Errorf("tag %q does not exist", ref.Name)
			}
			return err
		}
		id = tagged
	case types.RefSnapshot:
		id = types.SnapshotID(ref.Name)
	default:
		return fmt.Errorf("unknown version ref kind %d", ref.Kind)
	}

	doc, err := s.readSnapshot(ctx, id)
	if err != nil {
		return err
	}

	s.snapshot = id
	s.manifest = doc.Manifest
	s.branch = branch

	s.logger.Debug("checked out version",
		"ref", ref.String(),
		"snapshot", string(id),
		"read_only", branch == "")
	return nil
}

// NewBranch creates a branch at the current snapshot and switches the
// session to it. Staged changes carry over and will commit to the new
// branch.
func (s *Store) NewBranch(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	exists, err := s.refExists(ctx, branchRefKey(name))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("branch %q already exists", name)
	}
	if s.snapshot != InitialSnapshotID {
		if err := s.writeRef(ctx, branchRefKey(name), s.snapshot); err != nil {
			return fmt.Errorf("creating branch %q: %w", name, err)
		}
	}
	s.branch = name
	return nil
}

// Tag names the given snapshot. Tags are immutable: naming an existing tag
// fails.
func (s *Store) Tag(ctx context.Context, name string, id types.SnapshotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	exists, err := s.refExists(ctx, tagRefKey(name))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag %q already exists", name)
	}
	if _, err := s.readSnapshot(ctx, id); err != nil {
		return err
	}
	return s.writeRef(ctx, tagRefKey(name), id)
}

// Reset discards every staged write and delete.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = make(map[string][]byte)
	s.tombstones = make(map[string]struct{})
	return nil
}

// CurrentBranch returns the session's branch, or "" when detached.
func (s *Store) CurrentBranch(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branch, nil
}

// SnapshotID returns the identity of the checked-out snapshot.
func (s *Store) SnapshotID(_ context.Context) (types.SnapshotID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// HasUncommittedChanges reports whether the staging area is non-empty.
func (s *Store) HasUncommittedChanges(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.staged) > 0 || len(s.tombstones) > 0, nil
}

// Log returns the snapshot history from the checked-out snapshot back to the
// root, newest first.
func (s *Store) Log(ctx context.Context) ([]types.SnapshotInfo, error) {
	s.mu.RLock()
	id := s.snapshot
	s.mu.RUnlock()

	var history []types.SnapshotInfo
	for id != "" && id != InitialSnapshotID {
		doc, err := s.readSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		history = append(history, types.SnapshotInfo{
			ID:        doc.ID,
			Parent:    doc.Parent,
			Message:   doc.Message,
			Committed: doc.Committed,
		})
		id = doc.Parent
	}
	return history, nil
}
