// Package urbiserr defines the error vocabulary shared by every Urbis
// component. Each public operation returns an error built from one of the
// Kind values below instead of the original C sources' per-module integer
// codes (GEOM_ERR_*, PAGE_ERR_*, KD_ERR_*, QT_ERR_*, DM_ERR_*, SI_ERR_*).
package urbiserr

import (
	"errors"
	"fmt"
)

// Kind classifies the failure. The zero Kind is never produced by this
// package; a successful operation returns a nil error, not a Kind.
type Kind int

const (
	// InvalidArg covers nil/empty input where disallowed, a malformed MBR,
	// or k == 0 for knn.
	InvalidArg Kind = iota + 1
	// Alloc covers dynamic-memory failure or capacity exhaustion.
	Alloc
	// IO covers file open/read/write/seek failures.
	IO
	// Parse covers malformed GeoJSON/WKT input.
	Parse
	// NotFound covers an id absent from a pool/tree, or a missing file/slot.
	NotFound
	// Full covers a page at capacity after a retry.
	Full
	// Corrupt covers header magic mismatch, an oversized object_count on
	// deserialize, or a checksum mismatch on verify.
	Corrupt
	// Version covers a file format version newer than this build supports.
	Version
	// InvalidGeometry covers construction of a geometry that fails its
	// minimum-vertex or minimum-ring invariant.
	InvalidGeometry
	// Unsupported covers a recognized-but-unimplemented WKT/GeoJSON
	// variant.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "invalid_arg"
	case Alloc:
		return "alloc"
	case IO:
		return "io"
	case Parse:
		return "parse"
	case NotFound:
		return "not_found"
	case Full:
		return "full"
	case Corrupt:
		return "corrupt"
	case Version:
		return "version"
	case InvalidGeometry:
		return "invalid_geometry"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across package boundaries. It
// is comparable by Kind via errors.Is, and unwraps to any underlying cause
// via errors.As/errors.Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("urbis: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("urbis: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, urbiserr.New(urbiserr.NotFound, "")) or, more simply,
// Is(err, NotFound).
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return o.Kind == e.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err's Kind matches kind. It is the idiomatic way to
// branch on failure category without type-asserting *Error directly.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
