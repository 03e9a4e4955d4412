package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength is the maximum length of task and project titles.
const MaxTitleLength = 200

// Task is a unit of work owned by exactly one work group.
//
// The work group relation is immutable. ProjectID, when set, must reference a
// project of the same work group. Once Archived is true the task can no longer
// be edited; it can only be deleted.
type Task struct {
	ID              uuid.UUID  `json:"id"`
	WorkGroupID     uuid.UUID  `json:"work_group_id"`
	ProjectID       *uuid.UUID `json:"project_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StatusID        uuid.UUID  `json:"status_id"`
	PriorityID      *uuid.UUID `json:"priority_id,omitempty"`
	AssignedMembers []string   `json:"assigned_members"`
	Archived        bool       `json:"archived"`
	CreateTime      time.Time  `json:"create_time"`
	UpdateTime      time.Time  `json:"update_time"`
}

// Validate checks the Task fields.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if t.WorkGroupID == uuid.Nil {
		return NewValidationError("work_group_id", "cannot be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if len(t.Title) > MaxTitleLength {
		return NewValidationError("title", "too long")
	}
	if len(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", "too long")
	}
	if t.StatusID == uuid.Nil {
		return NewValidationError("status_id", "cannot be empty")
	}
	if t.PriorityID != nil && *t.PriorityID == uuid.Nil {
		return NewValidationError("priority_id", "cannot be the nil UUID")
	}
	if t.CreateTime.IsZero() || t.UpdateTime.IsZero() {
		return NewValidationError("timestamps", "must be set")
	}
	return nil
}

// InProject reports whether the task is currently linked to the given project.
func (t *Task) InProject(projectID uuid.UUID) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}

// NormalizeUserIDs trims, de-duplicates and sorts a set of user IDs.
// Empty entries are dropped.
func NormalizeUserIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
