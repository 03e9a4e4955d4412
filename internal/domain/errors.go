package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer above the store.
// Services wrap these with context; callers check them with errors.Is.
var (
	// ErrNotFound is returned when a referenced work group, task, project,
	// membership, or catalog entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor lacks the role required for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an action violates a lifecycle invariant,
	// e.g. archiving a task that is not DONE or editing an archived task.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument is returned when the caller supplied inconsistent data,
	// e.g. a project member who does not belong to the work group.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned on uniqueness violations.
	ErrConflict = errors.New("conflict")

	// ErrBadRequest is returned for requests that can never succeed as issued,
	// such as removing yourself through the remove-member action.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthenticated is returned when no actor identity is available.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError describes a single invalid field on an entity.
// It unwraps to ErrInvalidArgument.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidArgument so validation failures match the taxonomy.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
