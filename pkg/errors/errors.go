// Package errors augments the standard errors package with sentinel error
// values that can wrap a nested cause without resorting to
// fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New builds a new sentinel Error with a fixed message.
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error with a stable message and an optional wrapped cause.
//
// Wrapping a sentinel returns a derived copy that still matches the
// sentinel under errors.Is, which is how the engine's error taxonomy
// maps onto process exit codes.
type Error struct {
	msg      string
	err      error
	sentinel *Error
}

// Error message, including the cause when present.
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap the nested cause
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap derives a new error from this sentinel with a nested cause.
func (e *Error) Wrap(err error) *Error {
	root := e
	if e.sentinel != nil {
		root = e.sentinel
	}
	return &Error{msg: e.msg, err: err, sentinel: root}
}

// WrapMessage derives a new error with a cause built from a format string.
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is reports whether this error matches target: either directly, through
// the sentinel it derives from, or through its wrapped cause.
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if e == nil {
		return false
	}
	if e.sentinel != nil && e.sentinel == target {
		return true
	}
	return e.err != nil && stderr.Is(e.err, target)
}

// As finds the first error in err's chain that matches target
// (a shortcut to the standard lib errors.As).
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to the standard lib errors.Is).
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
