package service

import (
	"errors"
	"fmt"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/store"
)

// Error wraps a failure of a service operation.
//
// Err is always errors.Is-compatible with one of the domain sentinel errors
// when the failure is a rule violation; transient failures keep their
// original cause.
type Error struct {
	// Operation is the failed operation, e.g. "add_member".
	Operation string
	// Message is safe to show to API clients.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// fail builds a rule violation of the given kind.
func fail(operation string, kind error, message string) error {
	return &Error{Operation: operation, Message: message, Err: kind}
}

// wrap translates a store or validation error into the domain taxonomy.
// Errors that are already service errors pass through unchanged.
func wrap(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return &Error{Operation: operation, Message: ve.Error(), Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Operation: operation, Message: message, Err: fmt.Errorf("%w: %w", domain.ErrNotFound, err)}
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrReferenced):
		return &Error{Operation: operation, Message: message, Err: fmt.Errorf("%w: %w", domain.ErrConflict, err)}
	case errors.Is(err, store.ErrInvalidEntity):
		return &Error{Operation: operation, Message: message, Err: fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)}
	}
	return &Error{Operation: operation, Message: message, Err: err}
}
