/*
Package storage exposes a versioned object store through a generic
key/prefix storage surface.

The Adapter is the public face of the package. It wraps a types.Backend
behind a reader/writer lock and implements four capability interfaces:
Readable, Writable, Listable, and ReadWritable. Every storage operation
acquires a shared lock on the backend handle for the duration of its backend
call, so reads, writes, and listings from concurrent goroutines interleave
freely against the same checked-out version. Versioning operations
(Commit, Checkout, NewBranch, Tag, Reset) take the exclusive lock so that no
concurrent storage call observes a mid-transition version.

Three smaller pieces support the facade:

  - Key and Prefix validate the namespace grammar. Every string coming from
    a caller or from a backend listing passes through ParseKey/ParsePrefix;
    a malformed string from the backend is an error, never a panic.
  - ByteRange and TranslateRange convert generic byte-range requests into
    the backend's native addressing. The one shape with no backend form,
    a from-the-end offset combined with a length, is rejected outright
    rather than approximated.
  - The error taxonomy in errors.go maps every backend outcome into exactly
    one of four kinds. Absence is not an error on read and delete paths:
    Get reports it with found=false and Erase treats it as a completed
    no-op.

The adapter performs no retries and imposes no timeouts; both belong to the
backend or the caller.
*/
package storage
