/*
Package objstore provides the flat object storage that the versioned store
in internal/backend persists into.

ObjectStore is a plain key/value surface with byte-range reads: no versions,
no capability flags, no namespace grammar. Two implementations exist, the
mutex-guarded in-memory Memory store used by tests and local repositories,
and the S3 store built on aws-sdk-go-v2. Both report missing keys with
types.NotFoundError so callers can branch on absence without inspecting
messages.
*/
package objstore
