package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Well-known status names the task lifecycle depends on.
const (
	// StatusNotStarted is the default status of new tasks.
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	// StatusDone is the only status from which a task can be archived.
	StatusDone = "DONE"
)

// TaskStatus is a globally administered catalog entry describing task progress.
type TaskStatus struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Visible bool      `json:"visible"`
}

// NewTaskStatus creates a visible TaskStatus and validates it.
func NewTaskStatus(name string) (*TaskStatus, error) {
	s := &TaskStatus{ID: uuid.New(), Name: strings.TrimSpace(name), Visible: true}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the TaskStatus fields.
func (s *TaskStatus) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if s.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(s.Name) > MaxNameLength {
		return NewValidationError("name", "too long")
	}
	return nil
}

// TaskPriority is a globally administered catalog entry ranking tasks.
type TaskPriority struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Level   int       `json:"level"`
	Visible bool      `json:"visible"`
}

// NewTaskPriority creates a visible TaskPriority and validates it.
func NewTaskPriority(name string, level int) (*TaskPriority, error) {
	p := &TaskPriority{ID: uuid.New(), Name: strings.TrimSpace(name), Level: level, Visible: true}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the TaskPriority fields.
func (p *TaskPriority) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if p.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(p.Name) > MaxNameLength {
		return NewValidationError("name", "too long")
	}
	if p.Level < 0 {
		return NewValidationError("level", "cannot be negative")
	}
	return nil
}
