package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"invalid state", domain.ErrInvalidState, http.StatusUnprocessableEntity},
		{"invalid argument", domain.ErrInvalidArgument, http.StatusBadRequest},
		{"bad request", domain.ErrBadRequest, http.StatusBadRequest},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"validation error", domain.NewValidationError("title", "cannot be empty"), http.StatusBadRequest},
		{"wrapped", &service.Error{Operation: "op", Message: "m", Err: fmt.Errorf("%w: row", domain.ErrNotFound)}, http.StatusNotFound},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Run("rule violation message is shown", func(t *testing.T) {
		err := &service.Error{Operation: "archive_task", Message: "Only DONE tasks can be archived", Err: domain.ErrInvalidState}
		assert.Equal(t, "Only DONE tasks can be archived", GetSafeErrorMessage(err))
	})

	t.Run("internal errors are generic", func(t *testing.T) {
		err := &service.Error{
			Operation: "create_task",
			Message:   "failed to save task",
			Err:       errors.New(`pq: relation "tasks" does not exist`),
		}
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
		assert.NotContains(t, msg, "tasks")
	})

	t.Run("bare sentinel", func(t *testing.T) {
		assert.Equal(t, "Resource not found", GetSafeErrorMessage(domain.ErrNotFound))
	})

	t.Run("validation error", func(t *testing.T) {
		assert.Equal(t, "invalid id: has invalid format",
			GetSafeErrorMessage(domain.NewValidationError("id", "has invalid format")))
	})
}

func TestHandleAPIErrorDoesNotLeakDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()

	HandleAPIError(rec, req, fmt.Errorf("query failed: postgres://admin:hunter2@db:5432/app"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "hunter2"))
	assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
}

func TestSanitizeValidationError(t *testing.T) {
	type request struct {
		Title string `json:"title" validate:"required"`
	}
	err := shared.ValidateRequest(request{})
	assert.Equal(t, "Invalid Title: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
