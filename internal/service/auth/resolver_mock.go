package auth

import (
	"context"

	"github.com/dcmc-apps/taskmanager/internal/domain"
)

// MockIdentityResolver is an IdentityResolver for tests.
type MockIdentityResolver struct {
	// ResolveFunc, when set, handles every call.
	ResolveFunc func(ctx context.Context, tokenString string) (domain.Actor, *Claims, error)

	// Actors maps token strings to actors when ResolveFunc is nil.
	// Unknown tokens fail with ErrInvalidToken.
	Actors map[string]domain.Actor
}

var _ IdentityResolver = (*MockIdentityResolver)(nil)

// Resolve implements IdentityResolver.
func (m *MockIdentityResolver) Resolve(ctx context.Context, tokenString string) (domain.Actor, *Claims, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, tokenString)
	}
	if tokenString == "" {
		return domain.Actor{}, nil, ErrMissingToken
	}
	actor, ok := m.Actors[tokenString]
	if !ok {
		return domain.Actor{}, nil, ErrInvalidToken
	}
	return actor, &Claims{UserID: actor.UserID}, nil
}
