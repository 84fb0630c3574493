package xdr

import (
	"errors"
	"fmt"
)

// ============================================================================
// Decode Error Taxonomy
// ============================================================================

// ErrorKind classifies why a decode step failed.
type ErrorKind int

const (
	// KindIncomplete means the buffer ended inside a fixed-size field.
	// It is not a protocol violation: more bytes may still arrive.
	KindIncomplete ErrorKind = iota + 1

	// KindConstraint means a decoded scalar fell outside its allowed range
	// (a flag outside {0,1}, a stable mode above 2, a data length larger
	// than its count).
	KindConstraint

	// KindMalformed means a declared length overruns the buffer for a field
	// that has no partial-read fallback (handle and name bodies).
	KindMalformed
)

// Sentinel errors matched with errors.Is. Every *DecodeError unwraps to
// exactly one of them.
var (
	ErrIncomplete          = errors.New("xdr: incomplete")
	ErrConstraintViolation = errors.New("xdr: constraint violation")
	ErrMalformed           = errors.New("xdr: malformed")
)

func (k ErrorKind) String() string {
	switch k {
	case KindIncomplete:
		return "incomplete"
	case KindConstraint:
		return "constraint"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// DecodeError describes a failed field decode.
type DecodeError struct {
	Kind ErrorKind

	// Field names the wire field being decoded (e.g. "handle length").
	Field string

	// Offset is the position of the field within the decoder's buffer.
	Offset int

	// Need and Have are set for Incomplete and Malformed errors.
	Need uint64
	Have int

	// Value and Limit are set for constraint violations.
	Value uint64
	Limit uint64
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindConstraint:
		return fmt.Sprintf("%s: %s at offset %d: value %d exceeds %d", e.sentinel(), e.Field, e.Offset, e.Value, e.Limit)
	default:
		return fmt.Sprintf("%s: %s at offset %d: need %d bytes, have %d", e.sentinel(), e.Field, e.Offset, e.Need, e.Have)
	}
}

// Unwrap returns the sentinel matching the error kind.
func (e *DecodeError) Unwrap() error {
	return e.sentinel()
}

func (e *DecodeError) sentinel() error {
	switch e.Kind {
	case KindIncomplete:
		return ErrIncomplete
	case KindConstraint:
		return ErrConstraintViolation
	default:
		return ErrMalformed
	}
}

// KindOf returns the taxonomy kind of err, or 0 if err is nil or did not
// originate from this package.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrIncomplete):
		return KindIncomplete
	case errors.Is(err, ErrConstraintViolation):
		return KindConstraint
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	default:
		return 0
	}
}
