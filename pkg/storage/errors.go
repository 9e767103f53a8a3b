package storage

import (
	"errors"
	"fmt"

	"github.com/driftstore/driftstore/pkg/types"
)

// Kind classifies every outcome the adapter can surface.
type Kind int

const (
	// KindNotFound marks an absent key. Read and delete paths never surface
	// it: Get reports absence with found=false and Erase completes as a
	// no-op. It appears as an error only where absence is itself
	// exceptional, such as a just-listed key vanishing during size
	// aggregation.
	KindNotFound Kind = iota

	// KindUnsupported marks an operation the backend currently lacks the
	// capability for, or one this adapter never implements. Never retried.
	KindUnsupported

	// KindInvalidAddress marks a malformed key or prefix string, whether it
	// came from the caller or from a backend listing.
	KindInvalidAddress

	// KindOther carries any other backend failure opaquely. The adapter
	// never pattern-matches it further.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnsupported:
		return "unsupported"
	case KindInvalidAddress:
		return "invalid_address"
	default:
		return "other"
	}
}

// Error is the single error type surfaced by the adapter.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two adapter errors by Kind, so callers can compare against
// &Error{Kind: KindUnsupported} with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// ErrorKind returns the Kind carried by err, or KindOther when err is not an
// adapter error.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsUnsupported reports whether err is an adapter error of KindUnsupported.
func IsUnsupported(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUnsupported
}

// IsInvalidAddress reports whether err is an adapter error of
// KindInvalidAddress.
func IsInvalidAddress(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidAddress
}

func unsupported(op, msg string) error {
	return &Error{Kind: KindUnsupported, Op: op, Msg: msg}
}

// wrapBackendErr maps a backend outcome into the adapter taxonomy, keeping
// NotFound as an error. It is the strict half of the mapping pair, for paths
// where absence is exceptional.
func wrapBackendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if types.IsNotFound(err) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	return &Error{Kind: KindOther, Op: op, Err: err}
}

// absentIfNotFound maps a backend outcome into the adapter taxonomy,
// converting NotFound into absence. It is the lenient half of the mapping
// pair, used on every read and delete path.
func absentIfNotFound(op string, err error) (found bool, _ error) {
	if err == nil {
		return true, nil
	}
	if types.IsNotFound(err) {
		return false, nil
	}
	return false, &Error{Kind: KindOther, Op: op, Err: err}
}
