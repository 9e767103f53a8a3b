package storage

import (
	"context"
)

// PartialWrite describes one in-place sub-range write: Data replacing the
// bytes of an object starting at Offset.
type PartialWrite struct {
	Offset uint64
	Data   []byte
}

// Readable is the read capability of a store. Absence of a key is reported
// through the found result, never as an error.
type Readable interface {
	// Get fetches the whole object at key.
	Get(ctx context.Context, key Key) (data []byte, found bool, err error)

	// GetPartial fetches the requested byte ranges of the object at key in
	// one backend call, returning the per-range results in request order.
	// found is false when the object itself does not exist.
	GetPartial(ctx context.Context, key Key, ranges []ByteRange) (data [][]byte, found bool, err error)

	// SizeKey returns the object's byte length. Backends that cannot report
	// sizes fail with an unsupported error.
	SizeKey(ctx context.Context, key Key) (size uint64, found bool, err error)
}

// Writable is the write capability of a store.
type Writable interface {
	// Set writes or overwrites the whole object at key.
	Set(ctx context.Context, key Key, value []byte) error

	// SetPartial would write sub-ranges of an existing object in place.
	// This adapter never supports it; the call always fails with an
	// unsupported error.
	SetPartial(ctx context.Context, key Key, writes []PartialWrite) error

	// Erase removes the object at key. Erasing an absent key is a
	// successful no-op. Fails with an unsupported error when the backend
	// does not currently support deletion.
	Erase(ctx context.Context, key Key) error

	// ErasePrefix removes every object under prefix. Not atomic: a failure
	// partway through leaves an undefined subset of the keys erased.
	ErasePrefix(ctx context.Context, prefix Prefix) error
}

// Listable is the listing and sizing capability of a store.
type Listable interface {
	// List returns every key in the namespace, order unspecified.
	List(ctx context.Context) ([]Key, error)

	// ListPrefix returns every key under prefix, recursively.
	ListPrefix(ctx context.Context, prefix Prefix) ([]Key, error)

	// ListDir returns one level of the hierarchy directly under prefix,
	// partitioned into immediate keys and immediate child prefixes.
	ListDir(ctx context.Context, prefix Prefix) ([]Key, []Prefix, error)

	// SizePrefix returns the total byte size of all objects under prefix.
	// When the backend has no aggregate query this costs one listing plus
	// one size query per key.
	SizePrefix(ctx context.Context, prefix Prefix) (uint64, error)

	// Size returns the total byte size of the namespace.
	Size(ctx context.Context) (uint64, error)
}

// ReadWritable combines the read and write capabilities.
type ReadWritable interface {
	Readable
	Writable
}
