package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Maximum lengths accepted for work group and project text fields.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 2000
)

// WorkGroup is the top-level tenant container that owns memberships and projects.
type WorkGroup struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// NewWorkGroup creates a WorkGroup with a fresh ID and validates it.
func NewWorkGroup(name, description string) (*WorkGroup, error) {
	wg := &WorkGroup{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	if err := wg.Validate(); err != nil {
		return nil, err
	}
	return wg, nil
}

// Validate checks the WorkGroup fields.
func (w *WorkGroup) Validate() error {
	if w.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if w.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(w.Name) > MaxNameLength {
		return NewValidationError("name", "too long")
	}
	if len(w.Description) > MaxDescriptionLength {
		return NewValidationError("description", "too long")
	}
	return nil
}
