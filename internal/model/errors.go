package model

import (
	"errors"
	"fmt"
)

// ErrKind classifies domain errors so that the transport layer can map them
// to HTTP status codes without string matching.
type ErrKind string

const (
	KindUnauthorized      ErrKind = "UNAUTHORIZED"
	KindAccessDenied      ErrKind = "ACCESS_DENIED"
	KindNotFound          ErrKind = "NOT_FOUND"
	KindInvalidTransition ErrKind = "INVALID_TRANSITION"
	KindValidation        ErrKind = "VALIDATION_ERROR"
)

// DomainError is the error type returned by the lifecycle and aggregation
// engines. It is always recoverable by the caller; engines never retry.
type DomainError struct {
	Kind    ErrKind `json:"kind"`
	Message string  `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unauthorizedf creates an authentication-level error.
func Unauthorizedf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedf creates a capability-level error.
func AccessDeniedf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a missing-entity error.
func NotFoundf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionf creates an illegal-edge error. Callers are expected to
// name both the current and the attempted status in the message.
func InvalidTransitionf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// Validationf creates a malformed-input error.
func Validationf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, unwrapping as needed. Errors outside the
// taxonomy report an empty kind.
func KindOf(err error) ErrKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrKind) bool {
	return KindOf(err) == kind
}
