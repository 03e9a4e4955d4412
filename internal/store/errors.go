package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or a write violates a check or not-null constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrReferenced is returned when deleting an entity that other rows still point at.
	ErrReferenced = errors.New("entity is still referenced")

	// ErrTransactionFailed is returned when a transaction cannot begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrWorkGroupNotFound  = fmt.Errorf("%w: work group", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("%w: membership", ErrNotFound)
	ErrProjectNotFound    = fmt.Errorf("%w: project", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("%w: task", ErrNotFound)
	ErrStatusNotFound     = fmt.Errorf("%w: task status", ErrNotFound)
	ErrPriorityNotFound   = fmt.Errorf("%w: task priority", ErrNotFound)

	// ErrMembershipExists is returned when a user already belongs to the work group.
	ErrMembershipExists = fmt.Errorf("%w: membership", ErrDuplicate)
	// ErrNameExists is returned when a catalog entry with the same name exists.
	ErrNameExists = fmt.Errorf("%w: name", ErrDuplicate)
)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a store-specific error with additional context.
type StoreError struct {
	Entity    string // e.g. "task", "membership"
	Operation string // e.g. "create", "update"
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
