package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey is the type of request context keys set by the HTTP layer.
type ContextKey string

const (
	// ActorContextKey holds the domain.Actor resolved by the auth middleware.
	ActorContextKey ContextKey = "actor"

	// TraceIDKey holds the request's trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes of a generated trace ID.
	TraceIDLength = 16 // 32 hex characters
)

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(domain.Actor)
	if !ok || !actor.IsAuthenticated() {
		return domain.Actor{}, false
	}
	return actor, true
}

// SetTraceID stores a trace ID in ctx. The ID of the active OpenTelemetry
// span is used when there is one, so logs and spans correlate.
func SetTraceID(ctx context.Context) context.Context {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return context.WithValue(ctx, TraceIDKey, sc.TraceID().String())
	}
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace ID stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(b)
}
