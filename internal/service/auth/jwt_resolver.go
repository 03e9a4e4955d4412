package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/config"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
)

// hmacResolver verifies HS256-signed tokens.
type hmacResolver struct {
	signingKey []byte
	adminRole  string
	userClaim  string
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration    // Allowed time difference for validation to handle clock drift
}

var _ IdentityResolver = (*hmacResolver)(nil)

// NewJWTResolver creates an IdentityResolver for HMAC-SHA256 signed tokens.
func NewJWTResolver(cfg config.AuthConfig) (IdentityResolver, error) {
	return newJWTResolver(cfg, time.Now)
}

func newJWTResolver(cfg config.AuthConfig, now func() time.Time) (*hmacResolver, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if cfg.UserClaim == "" {
		return nil, fmt.Errorf("user claim must be configured")
	}
	return &hmacResolver{
		signingKey: []byte(cfg.JWTSecret),
		adminRole:  cfg.AdminRole,
		userClaim:  cfg.UserClaim,
		timeFunc:   now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// Resolve implements IdentityResolver.
func (r *hmacResolver) Resolve(ctx context.Context, tokenString string) (domain.Actor, *Claims, error) {
	log := logger.FromContext(ctx)

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.Actor{}, nil, ErrMissingToken
	}

	now := r.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(r.clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.signingKey, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired", "error", err)
			return domain.Actor{}, nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: token not yet valid", "error", err)
			return domain.Actor{}, nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return domain.Actor{}, nil, ErrInvalidToken
		}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return domain.Actor{}, nil, ErrInvalidToken
	}

	claims := r.extract(mapClaims)
	if claims.UserID == "" {
		log.Debug("token validation failed: missing user claim", "claim", r.userClaim)
		return domain.Actor{}, nil, ErrMissingIdentity
	}

	actor := domain.Actor{
		UserID:  claims.UserID,
		IsAdmin: r.adminRole != "" && claims.HasRole(r.adminRole),
	}
	log.Debug("token validated",
		"user_id", actor.UserID,
		"is_admin", actor.IsAdmin,
		"token_id", claims.ID)
	return actor, claims, nil
}

func (r *hmacResolver) extract(mc jwt.MapClaims) *Claims {
	c := &Claims{}
	if v, ok := mc[r.userClaim].(string); ok {
		c.UserID = strings.TrimSpace(v)
	}
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if jti, ok := mc["jti"].(string); ok {
		c.ID = jti
	}

	c.Roles = append(c.Roles, stringList(mc["roles"])...)
	if realm, ok := mc["realm_access"].(map[string]interface{}); ok {
		c.Roles = append(c.Roles, stringList(realm["roles"])...)
	}
	return c
}

// stringList accepts a JSON array of strings or a single string.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
