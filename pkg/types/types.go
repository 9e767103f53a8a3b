package types

import (
	"errors"
	"fmt"
	"time"
)

// BackendRange is the backend's native byte addressing for reads. The zero
// value is a zero-length window at offset 0; EntireObject selects the whole
// object.
type BackendRange struct {
	// Start is the forward offset of the first byte. Ignored when Suffix
	// is set.
	Start uint64

	// Count is the number of bytes to read, or -1 to read through the end
	// of the object.
	Count int64

	// Suffix selects the final Count bytes of the object regardless of its
	// total length.
	Suffix bool
}

// EntireObject selects all bytes of an object.
var EntireObject = BackendRange{Count: -1}

// RangeFrom selects the bytes from offset through the end of the object.
func RangeFrom(offset uint64) BackendRange {
	return BackendRange{Start: offset, Count: -1}
}

// RangeFromLength selects exactly length bytes starting at offset.
func RangeFromLength(offset, length uint64) BackendRange {
	return BackendRange{Start: offset, Count: int64(length)}
}

// SuffixLength selects the final length bytes of the object.
func SuffixLength(length uint64) BackendRange {
	return BackendRange{Suffix: true, Count: int64(length)}
}

func (r BackendRange) String() string {
	switch {
	case r.Suffix:
		return fmt.Sprintf("suffix(%d)", r.Count)
	case r.Count < 0:
		return fmt.Sprintf("from(%d)", r.Start)
	default:
		return fmt.Sprintf("from(%d,len=%d)", r.Start, r.Count)
	}
}

// RangeRequest pairs a key with a byte range for batched partial reads.
type RangeRequest struct {
	Key   string
	Range BackendRange
}

// RangeResult carries the outcome of a single RangeRequest.
type RangeResult struct {
	Data []byte
	Err  error
}

// DirItemKind distinguishes the two entry kinds of a one-level listing.
type DirItemKind int

const (
	DirItemKey DirItemKind = iota
	DirItemPrefix
)

// DirItem is one entry of a structural (one-level) listing: either a key
// directly under the listed prefix or an immediate child prefix.
type DirItem struct {
	Name string
	Kind DirItemKind
}

// SnapshotID identifies an immutable point-in-time state of the namespace.
// IDs are assigned by the backend.
type SnapshotID string

// VersionRefKind selects how a VersionRef resolves to a snapshot.
type VersionRefKind int

const (
	RefBranch VersionRefKind = iota
	RefTag
	RefSnapshot
)

// VersionRef names a version to check out: a branch tip, a tag, or a
// snapshot ID.
type VersionRef struct {
	Kind VersionRefKind
	Name string
}

// BranchRef references the tip of a branch.
func BranchRef(name string) VersionRef {
	return VersionRef{Kind: RefBranch, Name: name}
}

// TagRef references a tagged snapshot.
func TagRef(name string) VersionRef {
	return VersionRef{Kind: RefTag, Name: name}
}

// SnapshotRef references a snapshot by ID.
func SnapshotRef(id SnapshotID) VersionRef {
	return VersionRef{Kind: RefSnapshot, Name: string(id)}
}

func (r VersionRef) String() string {
	switch r.Kind {
	case RefBranch:
		return "branch:" + r.Name
	case RefTag:
		return "tag:" + r.Name
	default:
		return "snapshot:" + r.Name
	}
}

// SnapshotInfo describes one committed snapshot.
type SnapshotInfo struct {
	ID        SnapshotID `json:"id"`
	Parent    SnapshotID `json:"parent,omitempty"`
	Message   string     `json:"message"`
	Committed time.Time  `json:"committed"`
}

// NotFoundError reports that a key does not exist in the backend's current
// version. It is a first-class outcome, not a failure: the adapter converts
// it to absence on read paths and to a no-op on delete paths.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// IsNotFound reports whether err, at any level of wrapping, is a
// NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
