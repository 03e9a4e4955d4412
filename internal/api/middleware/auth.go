package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/service/auth"
)

// AuthMiddleware resolves the caller's identity from a bearer token.
type AuthMiddleware struct {
	resolver auth.IdentityResolver
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(resolver auth.IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate validates the Authorization header and stores the resulting
// domain.Actor in the request context. Requests without a valid token are
// rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		actor, _, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken),
				errors.Is(err, auth.ErrMissingIdentity):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err)
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		ctx := shared.WithActor(r.Context(), actor)
		log := logger.FromContextOrDefault(ctx, slog.Default()).With(slog.String("user_id", actor.UserID))
		ctx = logger.WithLogger(ctx, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
