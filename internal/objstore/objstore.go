package objstore

import (
	"context"
	"fmt"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ObjectStore is flat, unversioned object storage. Missing keys are reported
// with types.NotFoundError.
type ObjectStore interface {
	// GetObject fetches the whole object at key.
	GetObject(ctx context.Context, key string) ([]byte, error)

	// GetObjectRange fetches the part of the object selected by rng.
	GetObjectRange(ctx context.Context, key string, rng types.BackendRange) ([]byte, error)

	// PutObject writes or overwrites the object at key.
	PutObject(ctx context.Context, key string, data []byte) error

	// DeleteObject removes the object at key.
	DeleteObject(ctx context.Context, key string) error

	// ListObjects returns the keys of every object under prefix, sorted.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// HeadObject returns metadata for the object at key without its bytes.
	HeadObject(ctx context.Context, key string) (ObjectInfo, error)
}

// ApplyRange applies rng to an in-memory object, following HTTP Range
// semantics: a window extending past the end is truncated, a suffix longer
// than the object yields the whole object, and an offset at or past the end
// is an error.
func ApplyRange(data []byte, rng types.BackendRange) ([]byte, error) {
	n := uint64(len(data))
	if rng.Suffix {
		count := uint64(rng.Count)
		if count >= n {
			return data, nil
		}
		return data[n-count:], nil
	}
	if rng.Start == 0 && rng.Count < 0 {
		return data, nil
	}
	if rng.Start >= n && !(rng.Start == 0 && n == 0) {
		return nil, fmt.Errorf("range %s out of bounds for object of %d bytes", rng, n)
	}
	if rng.Count < 0 {
		return data[rng.Start:], nil
	}
	end := rng.Start + uint64(rng.Count)
	if end > n {
		end = n
	}
	return data[rng.Start:end], nil
}
