package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/driftstore/driftstore/internal/objstore"
	"github.com/driftstore/driftstore/pkg/types"
)

// DefaultBranch is the branch a repository starts on.
const DefaultBranch = "main"

// InitialSnapshotID identifies the implicit empty snapshot every repository
// begins at, before the first commit.
const InitialSnapshotID = types.SnapshotID("base")

// Store is one session against a versioned repository. It implements
// types.Backend, types.Sizer, and types.Versioner.
type Store struct {
	mu      sync.RWMutex
	objects objstore.ObjectStore
	logger  *slog.Logger

	branch     string // "" when detached on a tag or snapshot
	snapshot   types.SnapshotID
	manifest   map[string]manifestEntry
	staged     map[string][]byte
	tombstones map[string]struct{}
}

var (
	_ types.Backend   = (*Store)(nil)
	_ types.Sizer     = (*Store)(nil)
	_ types.Versioner = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the session's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithBranch selects the branch to open instead of DefaultBranch.
func WithBranch(name string) Option {
	return func(s *Store) { s.branch = name }
}

// Open starts a session on a branch of the repository stored in objects. A
// branch with no ref yet yields an empty writable session at
// InitialSnapshotID; the first Commit creates both the snapshot and the ref.
func Open(ctx context.Context, objects objstore.ObjectStore, opts ...Option) (*Store, error) {
	s := &Store{
		objects:    objects,
		logger:     slog.Default(),
		branch:     DefaultBranch,
		snapshot:   InitialSnapshotID,
		manifest:   make(map[string]manifestEntry),
		staged:     make(map[string][]byte),
		tombstones: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	head, err := s.readRef(ctx, branchRefKey(s.branch))
	if err == nil {
		doc, derr := s.readSnapshot(ctx, head)
		if derr != nil {
			return nil, derr
		}
		s.snapshot = head
		s.manifest = doc.Manifest
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	s.logger.Debug("session opened",
		"branch", s.branch,
		"snapshot", string(s.snapshot),
		"keys", len(s.manifest))
	return s, nil
}

// readOnly reports whether the session is detached. Callers must hold mu.
func (s *Store) readOnly() bool { return s.branch == "" }

// Get returns the bytes of key restricted to rng, seen through the staging
// area layered over the checked-out snapshot.
func (s *Store) Get(ctx context.Context, key string, rng types.BackendRange) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, key, rng)
}

func (s *Store) getLocked(ctx context.Context, key string, rng types.BackendRange) ([]byte, error) {
	if _, gone := s.tombstones[key]; gone {
		return nil, &types.NotFoundError{Key: key}
	}
	if data, ok := s.staged[key]; ok {
		part, err := objstore.ApplyRange(data, rng)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(part))
		copy(out, part)
		return out, nil
	}
	entry, ok := s.manifest[key]
	if !ok {
		return nil, &types.NotFoundError{Key: key}
	}
	data, err := s.objects.GetObjectRange(ctx, blobKey(entry.Hash), rng)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, fmt.Errorf("repository corrupt: blob %s for key %q missing", entry.Hash, key)
		}
		return nil, err
	}
	return data, nil
}

// GetPartialValues resolves a batch of range requests. Every distinct key is
// resolved first: a missing key fails the whole batch with a NotFoundError
// naming it. Range-level failures after resolution are carried per result.
func (s *Store) GetPartialValues(ctx context.Context, reqs []types.RangeRequest) ([]types.RangeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range reqs {
		if !s.existsLocked(req.Key) {
			return nil, &types.NotFoundError{Key: req.Key}
		}
	}

	results := make([]types.RangeResult, len(reqs))
	for i, req := range reqs {
		data, err := s.getLocked(ctx, req.Key, req.Range)
		results[i] = types.RangeResult{Data: data, Err: err}
	}
	return results, nil
}

func (s *Store) existsLocked(key string) bool {
	if _, gone := s.tombstones[key]; gone {
		return false
	}
	if _, ok := s.staged[key]; ok {
		return true
	}
	_, ok := s.manifest[key]
	return ok
}

// Set stages a full-object write.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly() {
		return fmt.Errorf("session is read-only: detached on snapshot %s", s.snapshot)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.staged[key] = stored
	delete(s.tombstones, key)
	return nil
}

// Delete stages the removal of key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly() {
		return fmt.Errorf("session is read-only: detached on snapshot %s", s.snapshot)
	}
	if !s.existsLocked(key) {
		return &types.NotFoundError{Key: key}
	}
	delete(s.staged, key)
	if _, ok := s.manifest[key]; ok {
		s.tombstones[key] = struct{}{}
	}
	return nil
}

// GetSize returns the byte length of key.
func (s *Store) GetSize(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, gone := s.tombstones[key]; gone {
		return 0, &types.NotFoundError{Key: key}
	}
	if data, ok := s.staged[key]; ok {
		return uint64(len(data)), nil
	}
	entry, ok := s.manifest[key]
	if !ok {
		return 0, &types.NotFoundError{Key: key}
	}
	return entry.Size, nil
}

// List returns every key visible to the session, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.ListPrefix(ctx, "")
}

// ListPrefix returns every visible key under prefix, sorted.
func (s *Store) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.manifest)+len(s.staged))
	for key := range s.manifest {
		seen[key] = struct{}{}
	}
	for key := range s.staged {
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		if _, gone := s.tombstones[key]; gone {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ListDirItems returns the immediate children of prefix: keys directly under
// it and one entry per child prefix, sorted with keys before prefixes.
func (s *Store) ListDirItems(ctx context.Context, prefix string) ([]types.DirItem, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var items []types.DirItem
	childPrefixes := make(map[string]struct{})
	for _, key := range keys {
		rest := key[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			childPrefixes[prefix+rest[:i+1]] = struct{}{}
			continue
		}
		items = append(items, types.DirItem{Name: key, Kind: types.DirItemKey})
	}
	children := make([]string, 0, len(childPrefixes))
	for child := range childPrefixes {
		children = append(children, child)
	}
	sort.Strings(children)
	for _, child := range children {
		items = append(items, types.DirItem{Name: child, Kind: types.DirItemPrefix})
	}
	return items, nil
}

// SupportsDeletes reports whether the session can delete keys. Detached
// sessions are read-only, so the answer changes with checkouts and must be
// queried fresh by callers.
func (s *Store) SupportsDeletes(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.readOnly(), nil
}

// SupportsPartialWrites reports false: values are immutable content-addressed
// blobs, and rewriting a sub-range in place would break their addressing.
func (s *Store) SupportsPartialWrites(_ context.Context) (bool, error) {
	return false, nil
}

func blobKey(hash string) string { return "objects/" + hash }

func hashValue(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
