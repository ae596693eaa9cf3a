// Package apperr defines the error taxonomy shared across service layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transport layers can map it to a status code
// without inspecting message text.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
	KindGenerator  Kind = "generator"
)

// Error is a kinded error that wraps an optional cause.
type Error struct {
	Kind    Kind
	Msg     string
	Timeout bool
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation reports malformed or missing required input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports that the operation target does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Storage reports a persistence layer failure.
func Storage(msg string, cause error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, cause: cause}
}

// Generator reports an external insight generation failure.
func Generator(msg string, cause error) *Error {
	return &Error{Kind: KindGenerator, Msg: msg, cause: cause}
}

// GeneratorTimeout reports that an insight generation call exceeded its
// deadline. Distinct from other generator failures so callers can tell a
// slow model apart from a broken one.
func GeneratorTimeout(msg string, cause error) *Error {
	return &Error{Kind: KindGenerator, Msg: msg, Timeout: true, cause: cause}
}

// KindOf returns the kind of err, or an empty Kind for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsTimeout reports whether err is a generator timeout.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Timeout
}
