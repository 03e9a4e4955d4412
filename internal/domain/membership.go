package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership is the role a user holds within a work group.
// It is unique per (WorkGroupID, UserID).
type Membership struct {
	WorkGroupID uuid.UUID `json:"work_group_id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMembership creates a Membership and validates it.
func NewMembership(workGroupID uuid.UUID, userID string, role Role) (*Membership, error) {
	now := time.Now().UTC()
	m := &Membership{
		WorkGroupID: workGroupID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the Membership fields.
func (m *Membership) Validate() error {
	if m.WorkGroupID == uuid.Nil {
		return NewValidationError("work_group_id", "cannot be empty")
	}
	if m.UserID == "" {
		return NewValidationError("user_id", "cannot be empty")
	}
	if !m.Role.IsValid() {
		return NewValidationError("role", "must be OWNER, MODERATOR or MEMBER")
	}
	return nil
}

// ChangeRole sets a new role and refreshes UpdatedAt.
func (m *Membership) ChangeRole(role Role) error {
	if !role.IsValid() {
		return NewValidationError("role", "must be OWNER, MODERATOR or MEMBER")
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	return nil
}
