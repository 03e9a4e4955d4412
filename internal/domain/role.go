package domain

import "fmt"

// Role is the role a user holds inside a work group.
// The stored values are exactly OWNER, MODERATOR and MEMBER.
type Role string

const (
	// RoleNone marks a user without a membership in the work group.
	RoleNone      Role = ""
	RoleOwner     Role = "OWNER"
	RoleModerator Role = "MODERATOR"
	RoleMember    Role = "MEMBER"
)

// ParseRole converts a stored or transmitted value into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleModerator, RoleMember:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
	}
}

// IsValid reports whether r is one of the three membership roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleModerator, RoleMember:
		return true
	}
	return false
}

// String returns the stored representation of the role, or "NONE".
func (r Role) String() string {
	if r == RoleNone {
		return "NONE"
	}
	return string(r)
}
