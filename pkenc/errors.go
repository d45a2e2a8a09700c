package pkenc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies encryption-key failures into the two cases callers
// need to tell apart: bad input they can fix, and internal conditions they
// can only retry or abort on.
type ErrorKind int

const (
	// KindValue indicates malformed caller input, such as an unparseable
	// encoded key. The handle is left in its prior valid state.
	KindValue ErrorKind = iota

	// KindResource indicates an internal failure: use of an uninitialized
	// handle, a duplication failure, or an error reported by the
	// cryptographic primitive.
	KindResource
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is the error type returned by all pkenc operations. It carries the
// failing operation name and, where available, the underlying primitive's
// diagnostic error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("pkenc (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsValueError reports whether err is a pkenc error caused by malformed
// caller input.
func IsValueError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValue
}

// IsResourceError reports whether err is a pkenc error caused by an internal
// or primitive-level failure.
func IsResourceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindResource
}

func valueError(op string, err error) error {
	return &Error{Kind: KindValue, Op: op, Err: err}
}

func resourceError(op string, err error) error {
	return &Error{Kind: KindResource, Op: op, Err: err}
}

var errNotInitialized = errors.New("key is not initialized")
