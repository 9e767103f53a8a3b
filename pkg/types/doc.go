/*
Package types defines the interfaces and shared value types that sit between
the storage adapter and a versioned object store backend.

The central contract is Backend: the minimal surface a versioned store must
expose for the adapter in pkg/storage to drive it. Optional capabilities are
modeled as separate interfaces discovered by type assertion:

  - Sizer: per-key byte sizes. Older backends may not report sizes at all,
    in which case size queries through the adapter fail as unsupported.
  - Versioner: commit, checkout, branch, and tag operations. The adapter
    passes these through verbatim; it never interprets version state itself.

Runtime capability flags (SupportsDeletes, SupportsPartialWrites) are part of
Backend proper because they must be queried fresh on every gated call: a
backend's capabilities can change between calls, for example when a session
moves from a branch to a read-only snapshot checkout.
*/
package types
