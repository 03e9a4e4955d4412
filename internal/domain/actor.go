package domain

// Actor is the resolved identity of the caller of a core operation.
type Actor struct {
	// UserID identifies the user; it is the key used in memberships.
	UserID string

	// IsAdmin is the platform administrator capability. It bypasses every
	// group-scoped permission check.
	IsAdmin bool
}

// IsAuthenticated reports whether the actor carries a user identity.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}
