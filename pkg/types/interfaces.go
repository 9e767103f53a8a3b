package types

import (
	"context"
)

// Backend defines the interface consumed by the storage adapter. Keys are
// plain strings at this level; validation against the namespace grammar is
// the adapter's job.
type Backend interface {
	// Get returns the bytes of key restricted to rng. A missing key yields
	// an error for which IsNotFound reports true.
	Get(ctx context.Context, key string, rng BackendRange) ([]byte, error)

	// GetPartialValues resolves a batch of (key, range) requests in one
	// call. The returned slice has one entry per request, in request order;
	// a request-level failure is carried in its RangeResult rather than
	// failing the batch.
	GetPartialValues(ctx context.Context, reqs []RangeRequest) ([]RangeResult, error)

	// Set writes the full value of key, creating or overwriting it.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. A missing key yields an error for which
	// IsNotFound reports true.
	Delete(ctx context.Context, key string) error

	// List returns every key in the namespace, order unspecified.
	List(ctx context.Context) ([]string, error)

	// ListPrefix returns every key under prefix, order unspecified.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// ListDirItems returns the immediate children of prefix: keys directly
	// under it and one entry per child prefix.
	ListDirItems(ctx context.Context, prefix string) ([]DirItem, error)

	// SupportsDeletes reports whether Delete is currently available. The
	// answer may change between calls (e.g. after a checkout), so callers
	// must not cache it.
	SupportsDeletes(ctx context.Context) (bool, error)

	// SupportsPartialWrites reports whether the backend could accept
	// in-place sub-range writes.
	SupportsPartialWrites(ctx context.Context) (bool, error)
}

// Sizer is an optional Backend capability for querying per-key byte sizes.
type Sizer interface {
	// GetSize returns the size of key in bytes. A missing key yields an
	// error for which IsNotFound reports true.
	GetSize(ctx context.Context, key string) (uint64, error)
}

// Versioner is an optional Backend capability exposing the versioning
// operations of the underlying store. The adapter passes these through
// without interpretation.
type Versioner interface {
	// Commit persists the session's uncommitted changes as a new snapshot
	// and returns its identifier.
	Commit(ctx context.Context, message string) (SnapshotID, error)

	// Checkout moves the session to the given version.
	Checkout(ctx context.Context, ref VersionRef) error

	// NewBranch creates a branch at the current snapshot and switches the
	// session to it.
	NewBranch(ctx context.Context, name string) error

	// Tag names the given snapshot.
	Tag(ctx context.Context, name string, id SnapshotID) error

	// Reset discards all uncommitted changes in the session.
	Reset(ctx context.Context) error

	// CurrentBranch returns the session's branch name, or "" when the
	// session is detached on a snapshot or tag.
	CurrentBranch(ctx context.Context) (string, error)

	// SnapshotID returns the identity of the checked-out snapshot.
	SnapshotID(ctx context.Context) (SnapshotID, error)

	// HasUncommittedChanges reports whether the session holds writes or
	// deletes not yet committed.
	HasUncommittedChanges(ctx context.Context) (bool, error)
}

// MetricsCollector receives operation outcomes from the adapter. The
// prometheus-backed implementation lives in internal/metrics.
type MetricsCollector interface {
	RecordOperation(op string, seconds float64, success bool)
	RecordBytes(op string, n int)
}
