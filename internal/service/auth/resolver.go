// Package auth resolves the caller's identity from a bearer token. Tokens are
// issued elsewhere; this package only verifies them and maps their claims to
// a domain.Actor.
package auth

import (
	"context"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
)

// IdentityResolver turns a bearer token into the acting user.
type IdentityResolver interface {
	// Resolve verifies tokenString and returns the actor it identifies.
	// Errors are one of the sentinel errors of this package.
	Resolve(ctx context.Context, tokenString string) (domain.Actor, *Claims, error)
}

// Claims are the verified claims the resolver relies on.
type Claims struct {
	// UserID is the value of the configured user claim.
	UserID string
	// Roles merges the top-level "roles" claim and "realm_access.roles".
	Roles     []string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// HasRole reports whether role is among the token roles.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
