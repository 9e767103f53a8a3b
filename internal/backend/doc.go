/*
Package backend implements the reference versioned store behind the storage
adapter.

A Store is a session against a repository persisted in an
objstore.ObjectStore. The session holds a checked-out snapshot (reached via
a branch, a tag, or a raw snapshot ID) plus a staging area of uncommitted
writes and deletes. Reads see the staging area layered over the snapshot's
manifest; Commit flushes staged values as content-addressed blobs, writes a
new snapshot document, and advances the branch ref.

Repository layout inside the object store:

	objects/<sha256>      content-addressed value blobs
	snapshots/<id>        JSON snapshot documents (parent, message, manifest)
	refs/branches/<name>  branch head pointers
	refs/tags/<name>      tag pointers

Sessions checked out on a tag or snapshot ID are detached and read-only;
SupportsDeletes reports false for them and true on a branch, so the
capability answer genuinely varies at runtime. Partial in-place writes are
never supported.
*/
package backend
