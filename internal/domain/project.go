package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Project groups tasks of a single work group. Members must each be members
// of that work group. Tasks reference their project; the project does not
// track its tasks.
type Project struct {
	ID          uuid.UUID `json:"id"`
	WorkGroupID uuid.UUID `json:"work_group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Members     []string  `json:"members"`
}

// NewProject creates a Project with a fresh ID and validates it.
func NewProject(workGroupID uuid.UUID, title, description string) (*Project, error) {
	p := &Project{
		ID:          uuid.New(),
		WorkGroupID: workGroupID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Members:     []string{},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the Project fields.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if p.WorkGroupID == uuid.Nil {
		return NewValidationError("work_group_id", "cannot be empty")
	}
	if p.Title == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if len(p.Title) > MaxTitleLength {
		return NewValidationError("title", "too long")
	}
	if len(p.Description) > MaxDescriptionLength {
		return NewValidationError("description", "too long")
	}
	return nil
}
