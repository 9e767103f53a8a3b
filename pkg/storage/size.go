package storage

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftstore/driftstore/pkg/types"
)

// SizePrefix computes the total byte size of all objects under prefix. The
// backend exposes no aggregate query, so the adapter lists the keys and fans
// out one size query per key, each under its own shared lock, and sums the
// results. The first failure cancels the remaining queries and propagates; no
// partial sum is ever returned. Cost is O(keys under prefix) backend calls
// plus one listing.
func (a *Adapter) SizePrefix(ctx context.Context, prefix Prefix) (total uint64, err error) {
	defer func(start time.Time) { a.record("size_prefix", start, err) }(time.Now())

	sizer, ok := a.backend.(types.Sizer)
	if !ok {
		return 0, unsupported("size_prefix", "the backend does not support querying the size of a key")
	}

	keys, err := a.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}

	var sum atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			a.mu.RLock()
			size, berr := sizer.GetSize(gctx, key.String())
			a.mu.RUnlock()
			// A key reported by the listing moments ago is expected to
			// exist; absence here is surfaced, not swallowed.
			if werr := wrapBackendErr("size_prefix", berr); werr != nil {
				return werr
			}
			sum.Add(size)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}
	return sum.Load(), nil
}

// Size returns the total byte size of the namespace, equal to SizePrefix of
// the root.
func (a *Adapter) Size(ctx context.Context) (uint64, error) {
	return a.SizePrefix(ctx, RootPrefix())
}
