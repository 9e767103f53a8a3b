package storage

import (
	"fmt"

	"github.com/driftstore/driftstore/pkg/types"
)

// ByteRange is a caller-facing request for a sub-range of an object's bytes.
// It can express shapes the backend cannot address; TranslateRange decides
// which ones are representable. The zero value is a zero-length window at
// offset 0; use EntireRange for a whole-object read.
type ByteRange struct {
	fromEnd bool
	offset  uint64
	length  int64 // -1 when no length was given
}

// EntireRange selects all bytes of an object.
func EntireRange() ByteRange {
	return ByteRange{length: -1}
}

// RangeFrom selects the bytes from offset through the end of the object.
func RangeFrom(offset uint64) ByteRange {
	return ByteRange{offset: offset, length: -1}
}

// RangeFromLength selects exactly length bytes starting at offset.
func RangeFromLength(offset, length uint64) ByteRange {
	return ByteRange{offset: offset, length: int64(length)}
}

// SuffixRange selects the final length bytes of the object, without
// reference to its total size.
func SuffixRange(length uint64) ByteRange {
	return ByteRange{fromEnd: true, length: int64(length)}
}

// RangeFromEnd selects length bytes ending offset bytes before the end of
// the object. With offset zero it is equivalent to SuffixRange; any other
// offset has no backend representation and fails translation.
func RangeFromEnd(offset, length uint64) ByteRange {
	return ByteRange{fromEnd: true, offset: offset, length: int64(length)}
}

// FromEnd reports whether the range is anchored at the end of the object.
func (r ByteRange) FromEnd() bool { return r.fromEnd }

// Offset returns the range's offset, measured backward from the end when
// FromEnd reports true.
func (r ByteRange) Offset() uint64 { return r.offset }

// Length returns the requested byte count and whether one was given.
func (r ByteRange) Length() (uint64, bool) {
	if r.length < 0 {
		return 0, false
	}
	return uint64(r.length), true
}

func (r ByteRange) String() string {
	switch {
	case r.fromEnd && r.length < 0:
		return fmt.Sprintf("end-%d..", r.offset)
	case r.fromEnd:
		return fmt.Sprintf("end-%d..+%d", r.offset, r.length)
	case r.length < 0:
		return fmt.Sprintf("%d..", r.offset)
	default:
		return fmt.Sprintf("%d..+%d", r.offset, r.length)
	}
}

// TranslateRange converts a generic byte-range request into the backend's
// native addressing form.
//
// Forward ranges translate directly: with a length to an exact window, and
// without one to an open-ended read. A pure suffix (last N bytes) becomes the
// backend's suffix form. A from-the-end range with a non-zero offset is
// rejected: the backend has no way to address it, and a clear refusal beats a
// silently wrong range.
func TranslateRange(r ByteRange) (types.BackendRange, error) {
	switch {
	case !r.fromEnd && r.length < 0:
		return types.RangeFrom(r.offset), nil
	case !r.fromEnd:
		return types.RangeFromLength(r.offset, uint64(r.length)), nil
	case r.offset == 0 && r.length >= 0:
		return types.SuffixLength(uint64(r.length)), nil
	default:
		return types.BackendRange{}, &Error{
			Kind: KindUnsupported,
			Op:   "translate_range",
			Msg:  fmt.Sprintf("byte ranges from the end with an offset are not supported: %s", r),
		}
	}
}
