package api

import (
	"errors"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/go-playground/validator/v10"
)

// MapErrorToStatusCode maps the domain error taxonomy to HTTP status codes.
// Anything outside the taxonomy is an internal error.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message that is safe to show to clients.
// Rule violations carry a message written for clients; every other error
// gets a generic text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	status := MapErrorToStatusCode(err)
	var se *service.Error
	if status != http.StatusInternalServerError && errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	switch status {
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusForbidden:
		return "You are not allowed to perform this action"
	case http.StatusUnprocessableEntity:
		return "The operation is not allowed in the current state"
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusConflict:
		return "Resource already exists"
	case http.StatusUnauthorized:
		return "Authentication required"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

// SanitizeValidationError turns a validator error into a client message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return "Invalid " + fe.Field() + ": " + validationTagMessage(fe.Tag())
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "uuid":
		return "must be a UUID"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
