// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Uniqueness errors
	ErrConflict = errors.New("conflict with existing entity")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPartialFailure   = errors.New("partial failure in composite operation")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "application", "internship", "user"
	Op      string // Operation that failed, e.g., "Submit", "LogHours"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidState checks if the error signals a transition attempted from the
// wrong state. A caller seeing this should refresh its view; it may be the
// loser of a race.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}

// IsConflict checks if the error is a uniqueness / at-most-one-active violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsUnauthorized checks if the actor was not permitted to act on the entity.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsStoreUnavailable checks if the error is a transient infrastructure failure.
// This is the only kind that is retried internally, and only once.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsPartialFailure checks if a composite write failed after a partial commit.
func IsPartialFailure(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

// Kind returns the wire-level kind string for an error. The interface layer
// uses it to render structured {kind, message} responses.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return "validation_error"
	case IsNotFound(err):
		return "not_found_error"
	case IsInvalidState(err):
		return "invalid_state_error"
	case IsConflict(err):
		return "conflict_error"
	case IsUnauthorized(err):
		return "authorization_error"
	case IsPartialFailure(err):
		return "partial_failure_error"
	case IsStoreUnavailable(err):
		return "store_unavailable_error"
	default:
		return "internal_error"
	}
}
