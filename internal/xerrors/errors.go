// Package xerrors defines the typed error kinds surfaced by the
// distribution and factorization layers: PreconditionViolated, NotHPD,
// Unimplemented, and CommunicationFailure. Every exported operation that
// can fail returns one of these as an *Error whose message is built with
// fmt.Sprintf, in the style
// the teacher uses for its own fmt.Errorf-based reporting, generalized
// with a Kind that callers can test with errors.Is / As.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an *Error.
type Kind int

const (
	// PreconditionViolated covers shape mismatches, non-square input to
	// Cholesky, invalid alignment, assignment to a viewing target of the
	// wrong size, and writes to a locked view.
	PreconditionViolated Kind = iota
	// NotHPD is returned when the unblocked Cholesky kernel encounters a
	// non-positive diagonal.
	NotHPD
	// Unimplemented marks a redistribution pair that is not (yet)
	// provided, such as MD <-> non-MD.
	Unimplemented
	// CommunicationFailure wraps a failure reported by the underlying
	// messaging collaborator.
	CommunicationFailure
)

func (k Kind) String() string {
	switch k {
	case PreconditionViolated:
		return "precondition violated"
	case NotHPD:
		return "not HPD"
	case Unimplemented:
		return "unimplemented"
	case CommunicationFailure:
		return "communication failure"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module's exported
// operations. It always carries a Kind so that callers can branch on
// failure category with errors.Is against the sentinel kinds below, or
// with As to recover the Kind and message.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error of the same Kind, enabling
// errors.Is(err, xerrors.NotHPDSentinel) style checks via the sentinels
// below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...)}
}

// Precondition builds a PreconditionViolated error.
func Precondition(format string, args ...any) *Error {
	return newf(PreconditionViolated, format, args...)
}

// NotHPDf builds a NotHPD error.
func NotHPDf(format string, args ...any) *Error {
	return newf(NotHPD, format, args...)
}

// UnimplementedF builds an Unimplemented error.
func UnimplementedF(format string, args ...any) *Error {
	return newf(Unimplemented, format, args...)
}

// Communication wraps an underlying messaging failure as
// CommunicationFailure.
func Communication(cause error, format string, args ...any) *Error {
	e := newf(CommunicationFailure, format, args...)
	e.err = cause
	return e
}

// Sentinels usable with errors.Is(err, xerrors.NotHPDSentinel), etc. Each
// carries only a Kind; the message is irrelevant to the Is comparison.
var (
	PreconditionSentinel  = &Error{Kind: PreconditionViolated}
	NotHPDSentinel        = &Error{Kind: NotHPD}
	UnimplementedSentinel = &Error{Kind: Unimplemented}
	CommunicationSentinel = &Error{Kind: CommunicationFailure}
)

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
