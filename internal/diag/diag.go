// Package diag defines the fatal error kinds raised during elaboration
// and emission, and the panic/recover plumbing that converts them back
// into ordinary error returns at API boundaries.
package diag

import (
	"github.com/pkg/errors"
)

// Kind classifies a fatal elaboration or emission error.
type Kind int

const (
	// WidthMismatch reports primitive inputs that violate the width rules.
	WidthMismatch Kind = iota
	// OutOfRange reports a bit index or slice outside its operand.
	OutOfRange
	// DanglingVar reports a variable handle used outside its elaboration
	// scope, or a combinational cycle through a wire.
	DanglingVar
	// UnsupportedPrim reports a primitive the backend cannot emit.
	UnsupportedPrim
	// IO wraps file system failures during emission.
	IO
)

func (k Kind) String() string {
	switch k {
	case WidthMismatch:
		return "width mismatch"
	case OutOfRange:
		return "out of range"
	case DanglingVar:
		return "dangling variable"
	case UnsupportedPrim:
		return "unsupported primitive"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside the underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Fatalf aborts elaboration with a typed error. Elaboration runs inside
// user callbacks with no error channel of their own, so fatals travel
// as panics until a Recover at the emission boundary.
func Fatalf(kind Kind, format string, args ...interface{}) {
	panic(&Error{Kind: kind, Err: errors.Errorf(format, args...)})
}

// Wrap attaches a kind to an existing error without panicking.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// Recover converts a panicking *Error into an ordinary error return.
// Panics of any other type are re-raised.
func Recover(errp *error) {
	switch r := recover().(type) {
	case nil:
	case *Error:
		*errp = r
	default:
		panic(r)
	}
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
