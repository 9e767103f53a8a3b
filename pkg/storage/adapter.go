package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// Adapter exposes a types.Backend through the Readable, Writable and
// Listable capability interfaces. It holds the only reference to the backend
// handle and shares it across concurrent operations under a reader/writer
// lock: storage calls take the shared lock, versioning calls the exclusive
// one. The Adapter adds no retries, caching, or timeouts of its own.
type Adapter struct {
	mu      sync.RWMutex
	backend types.Backend
	metrics types.MetricsCollector
}

// Compile-time checks that Adapter satisfies every capability interface.
var (
	_ Readable     = (*Adapter)(nil)
	_ Writable     = (*Adapter)(nil)
	_ Listable     = (*Adapter)(nil)
	_ ReadWritable = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics wires a metrics collector into the adapter. Every public
// operation records its duration and outcome.
func WithMetrics(m types.MetricsCollector) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New wraps backend in an Adapter.
func New(backend types.Backend, opts ...Option) *Adapter {
	a := &Adapter{backend: backend}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) record(op string, start time.Time, err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordOperation(op, time.Since(start).Seconds(), err == nil)
}

// Capability guard. Flags are queried on every gated call rather than cached:
// the backend's answer can change between calls, e.g. after a checkout onto a
// read-only snapshot.

func (a *Adapter) deletesSupported(ctx context.Context) (bool, error) {
	a.mu.RLock()
	ok, err := a.backend.SupportsDeletes(ctx)
	a.mu.RUnlock()
	if err != nil {
		return false, wrapBackendErr("supports_deletes", err)
	}
	return ok, nil
}

func (a *Adapter) partialWritesSupported(ctx context.Context) (bool, error) {
	a.mu.RLock()
	ok, err := a.backend.SupportsPartialWrites(ctx)
	a.mu.RUnlock()
	if err != nil {
		return false, wrapBackendErr("supports_partial_writes", err)
	}
	return ok, nil
}

// Get fetches the whole object at key. An absent key yields found=false.
func (a *Adapter) Get(ctx context.Context, key Key) (data []byte, found bool, err error) {
	defer func(start time.Time) { a.record("get", start, err) }(time.Now())

	a.mu.RLock()
	data, berr := a.backend.Get(ctx, key.String(), types.EntireObject)
	a.mu.RUnlock()

	found, err = absentIfNotFound("get", berr)
	if err != nil || !found {
		return nil, found, err
	}
	if a.metrics != nil {
		a.metrics.RecordBytes("get", len(data))
	}
	return data, true, nil
}

// GetPartial fetches the requested byte ranges of the object at key. All
// ranges are translated up front, batched into a single backend call sharing
// the key, and unpacked in request order.
//
// An absent object yields found=false for the whole call. A per-range
// NotFound after the object's key was resolved is a backend contract
// violation and fails the call outright; substituting empty bytes would
// silently corrupt the caller's view.
func (a *Adapter) GetPartial(ctx context.Context, key Key, ranges []ByteRange) (data [][]byte, found bool, err error) {
	defer func(start time.Time) { a.record("get_partial", start, err) }(time.Now())

	reqs := make([]types.RangeRequest, 0, len(ranges))
	for _, r := range ranges {
		br, terr := TranslateRange(r)
		if terr != nil {
			return nil, false, terr
		}
		reqs = append(reqs, types.RangeRequest{Key: key.String(), Range: br})
	}

	a.mu.RLock()
	results, berr := a.backend.GetPartialValues(ctx, reqs)
	a.mu.RUnlock()

	found, err = absentIfNotFound("get_partial", berr)
	if err != nil || !found {
		return nil, found, err
	}
	if len(results) != len(reqs) {
		return nil, false, &Error{
			Kind: KindOther,
			Op:   "get_partial",
			Msg:  fmt.Sprintf("backend returned %d results for %d requests", len(results), len(reqs)),
		}
	}

	out := make([][]byte, len(results))
	for i, res := range results {
		if res.Err != nil {
			if types.IsNotFound(res.Err) {
				return nil, false, &Error{
					Kind: KindOther,
					Op:   "get_partial",
					Msg:  fmt.Sprintf("backend reported a missing range for resolved key %q", key),
					Err:  res.Err,
				}
			}
			return nil, false, wrapBackendErr("get_partial", res.Err)
		}
		out[i] = res.Data
		if a.metrics != nil {
			a.metrics.RecordBytes("get_partial", len(res.Data))
		}
	}
	return out, true, nil
}

// SizeKey returns the byte length of the object at key. Backends that do not
// implement types.Sizer cannot answer size queries at all, so the call fails
// as unsupported rather than guessing.
func (a *Adapter) SizeKey(ctx context.Context, key Key) (size uint64, found bool, err error) {
	defer func(start time.Time) { a.record("size_key", start, err) }(time.Now())

	sizer, ok := a.backend.(types.Sizer)
	if !ok {
		return 0, false, unsupported("size_key", "the backend does not support querying the size of a key")
	}

	a.mu.RLock()
	size, berr := sizer.GetSize(ctx, key.String())
	a.mu.RUnlock()

	found, err = absentIfNotFound("size_key", berr)
	if err != nil || !found {
		return 0, found, err
	}
	return size, true, nil
}

// Set writes or overwrites the whole object at key. Full-object writes are
// always supported; there is no capability gate.
func (a *Adapter) Set(ctx context.Context, key Key, value []byte) (err error) {
	defer func(start time.Time) { a.record("set", start, err) }(time.Now())

	a.mu.RLock()
	berr := a.backend.Set(ctx, key.String(), value)
	a.mu.RUnlock()

	if err = wrapBackendErr("set", berr); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.RecordBytes("set", len(value))
	}
	return nil
}

// SetPartial always fails as unsupported. The capability flag is still
// consulted so a failing backend surfaces its own error, but a true flag only
// means the backend could theoretically accept sub-range writes; this adapter
// never implements the encoding needed to issue them safely, so it refuses
// either way.
func (a *Adapter) SetPartial(ctx context.Context, key Key, writes []PartialWrite) (err error) {
	defer func(start time.Time) { a.record("set_partial", start, err) }(time.Now())

	if _, err = a.partialWritesSupported(ctx); err != nil {
		return err
	}
	return unsupported("set_partial", "the store does not support partial writes")
}

// Erase removes the object at key. Erasing an absent key is a successful
// no-op; a backend without delete support fails as unsupported regardless of
// whether key exists.
func (a *Adapter) Erase(ctx context.Context, key Key) (err error) {
	defer func(start time.Time) { a.record("erase", start, err) }(time.Now())

	ok, err := a.deletesSupported(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return unsupported("erase", "the store does not support deletion")
	}

	a.mu.RLock()
	berr := a.backend.Delete(ctx, key.String())
	a.mu.RUnlock()

	_, err = absentIfNotFound("erase", berr)
	return err
}

// ErasePrefix removes every object under prefix by listing the keys and
// deleting them one by one. Deletion order is unspecified and there is no
// atomicity: a failure partway through leaves an undefined subset erased,
// reported with the key at which deletion stopped.
func (a *Adapter) ErasePrefix(ctx context.Context, prefix Prefix) (err error) {
	defer func(start time.Time) { a.record("erase_prefix", start, err) }(time.Now())

	ok, err := a.deletesSupported(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return unsupported("erase_prefix", "the store does not support deletion")
	}

	keys, err := a.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		a.mu.RLock()
		berr := a.backend.Delete(ctx, key.String())
		a.mu.RUnlock()

		// A key deleted by a concurrent caller is not a failure.
		if _, derr := absentIfNotFound("erase_prefix", berr); derr != nil {
			return &Error{
				Kind: KindOther,
				Op:   "erase_prefix",
				Msg:  fmt.Sprintf("stopped at key %q; earlier keys under %q may already be erased", key, prefix),
				Err:  berr,
			}
		}
	}
	return nil
}

// List returns every key in the namespace. Each string reported by the
// backend is re-validated; a malformed one fails the listing.
func (a *Adapter) List(ctx context.Context) (keys []Key, err error) {
	defer func(start time.Time) { a.record("list", start, err) }(time.Now())

	a.mu.RLock()
	raw, berr := a.backend.List(ctx)
	a.mu.RUnlock()

	if err = wrapBackendErr("list", berr); err != nil {
		return nil, err
	}
	return parseKeys("list", raw)
}

// ListPrefix returns every key under prefix, recursively.
func (a *Adapter) ListPrefix(ctx context.Context, prefix Prefix) (keys []Key, err error) {
	defer func(start time.Time) { a.record("list_prefix", start, err) }(time.Now())

	a.mu.RLock()
	raw, berr := a.backend.ListPrefix(ctx, prefix.String())
	a.mu.RUnlock()

	if err = wrapBackendErr("list_prefix", berr); err != nil {
		return nil, err
	}
	return parseKeys("list_prefix", raw)
}

// ListDir returns one structural level of the hierarchy under prefix,
// partitioned into immediate keys and immediate child prefixes.
func (a *Adapter) ListDir(ctx context.Context, prefix Prefix) (keys []Key, children []Prefix, err error) {
	defer func(start time.Time) { a.record("list_dir", start, err) }(time.Now())

	a.mu.RLock()
	items, berr := a.backend.ListDirItems(ctx, prefix.String())
	a.mu.RUnlock()

	if err = wrapBackendErr("list_dir", berr); err != nil {
		return nil, nil, err
	}

	for _, item := range items {
		switch item.Kind {
		case types.DirItemKey:
			key, kerr := ParseKey(item.Name)
			if kerr != nil {
				return nil, nil, &Error{Kind: KindInvalidAddress, Op: "list_dir", Msg: fmt.Sprintf("backend returned malformed key %q", item.Name), Err: kerr}
			}
			keys = append(keys, key)
		case types.DirItemPrefix:
			child, perr := ParsePrefix(item.Name)
			if perr != nil {
				return nil, nil, &Error{Kind: KindInvalidAddress, Op: "list_dir", Msg: fmt.Sprintf("backend returned malformed prefix %q", item.Name), Err: perr}
			}
			children = append(children, child)
		default:
			return nil, nil, &Error{Kind: KindOther, Op: "list_dir", Msg: fmt.Sprintf("backend returned unknown dir item kind %d", item.Kind)}
		}
	}
	return keys, children, nil
}

func parseKeys(op string, raw []string) ([]Key, error) {
	keys := make([]Key, 0, len(raw))
	for _, s := range raw {
		key, err := ParseKey(s)
		if err != nil {
			return nil, &Error{Kind: KindInvalidAddress, Op: op, Msg: fmt.Sprintf("backend returned malformed key %q", s), Err: err}
		}
		keys = append(keys, key)
	}
	return keys, nil
}
