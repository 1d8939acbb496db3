package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category returned alongside the
// human-readable message in API responses.
type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindNoCapacity  Kind = "no_capacity"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindPersistence Kind = "persistence_error"
)

// Error is a categorized application error. Message is safe to show to the
// caller; Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed input field.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NoCapacity reports an exhausted resource (no free slot, room occupied).
// User-correctable, not a system fault.
func NoCapacity(message string) *Error {
	return &Error{Kind: KindNoCapacity, Message: message}
}

// NotFound reports an identifier that did not resolve.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a lost race at the persistence boundary.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Persistence wraps an infrastructural store failure.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "A database error occurred. Please try again.", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindPersistence for
// uncategorized errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// MessageOf extracts the user-facing message from err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred."
}
