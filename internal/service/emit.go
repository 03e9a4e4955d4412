package service

import (
	"context"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/google/uuid"
)

// publish emits a domain event after a successful commit. The change is
// already durable, so emission failures are logged and not returned.
func publish(ctx context.Context, emitter events.EventEmitter, log *slog.Logger, eventType string, workGroupID uuid.UUID, actorID string, payload any) {
	log = logger.FromContextOrDefault(ctx, log)

	event, err := events.NewDomainEvent(eventType, workGroupID, actorID, payload)
	if err != nil {
		log.Error("failed to build domain event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit domain event",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}

// userPayload is the payload of membership events.
type userPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// taskPayload is the payload of task events.
type taskPayload struct {
	TaskID    uuid.UUID  `json:"task_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
}

// projectPayload is the payload of project events.
type projectPayload struct {
	ProjectID uuid.UUID   `json:"project_id"`
	TaskIDs   []uuid.UUID `json:"task_ids,omitempty"`
	Members   []string    `json:"members,omitempty"`
}

// catalogPayload is the payload of catalog events.
type catalogPayload struct {
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Change string    `json:"change"`
}
