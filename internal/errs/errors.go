// Package errs defines the error kinds shared across the streaming pipeline
// and the transport/session layers that drive it.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers (mainly StreamSession) can decide
// whether to retry, close the session, or treat it as fatal at construction.
type Kind int

const (
	// KindConfiguration marks an invalid K, scale percent, or frame shape
	// supplied at construction. Fatal to the session.
	KindConfiguration Kind = iota
	// KindShapeMismatch marks a frame that does not match the session's
	// negotiated geometry. The call is rejected; no state is mutated.
	KindShapeMismatch
	// KindTransportTerminated marks a closed or unusable connection.
	KindTransportTerminated
	// KindTransportTimeout marks a bounded wait that expired. Soft at the
	// encoder's request gate, hard everywhere else.
	KindTransportTimeout
	// KindCodec marks truncated or self-inconsistent packed/compressed
	// data. Never recoverable: the reference frame is now ambiguous.
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindTransportTerminated:
		return "transport_terminated"
	case KindTransportTimeout:
		return "transport_timeout"
	case KindCodec:
		return "codec"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on
// errors.As without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, allowing
// errors.Is(err, errs.New(KindCodec, "", nil)) style checks as well as
// direct Kind comparisons via errs.KindOf.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, returning ok=false if err is not (or
// does not wrap) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
