package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures for callers and the HTTP layer.
type ErrorKind string

const (
	KindInvalidInput          ErrorKind = "invalid_input"
	KindNotFound              ErrorKind = "not_found"
	KindAmbiguousLocation     ErrorKind = "ambiguous_location"
	KindDataSourceUnavailable ErrorKind = "data_source_unavailable"
	KindNarrativeService      ErrorKind = "narrative_service"
)

// Error is a typed analysis error. Kind drives propagation policy: input and
// geocoding kinds are fatal to the request, narrative kind never is.
type Error struct {
	Kind    ErrorKind
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

// NewError creates a typed error without a cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a typed error around a cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
