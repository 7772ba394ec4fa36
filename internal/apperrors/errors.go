// Package apperrors defines the small, stable set of error kinds the service
// layer reports to its callers.
//
// Operations return an *Error whose Kind is one of the sentinels below, so
// callers branch with errors.Is:
//
//	if errors.Is(err, apperrors.ErrNotFound) { ... }
//
// The underlying store or upload failure is never part of the message; it is
// logged where it happens.
package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrNotFound        = errors.New("not found")
	ErrRetrievalFailed = errors.New("retrieval failed")
	ErrCreationFailed  = errors.New("creation failed")
	ErrUpdateFailed    = errors.New("update failed")
	ErrDeletionFailed  = errors.New("deletion failed")
	ErrValidation      = errors.New("validation failed")
)

// Error is an operation failure of a given Kind with a caller-facing message.
type Error struct {
	Kind    error
	Message string
}

// Error implements error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

// Unwrap lets errors.Is match the Kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates an *Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NotFound creates a NotFound error for a resource and identifier.
func NotFound(resource string, id int64) *Error {
	return New(ErrNotFound, fmt.Sprintf("%s with id %d not found", resource, id))
}
