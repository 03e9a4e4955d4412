package events

import (
	"context"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/google/uuid"
)

// AuditedTypes are the events the audit log records: membership and
// ownership changes, task removal from the active board, project bindings
// and catalog edits.
var AuditedTypes = []string{
	WorkGroupCreated,
	WorkGroupDeleted,
	MemberAdded,
	MemberRemoved,
	MemberLeft,
	MemberPromoted,
	MemberDemoted,
	OwnershipTransferred,
	TaskArchived,
	TaskDeleted,
	ProjectDeleted,
	ProjectTasksAssigned,
	ProjectTaskRemoved,
	ProjectMembersSet,
	CatalogChanged,
}

// AuditHandler writes the events it receives to the log at info level.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(log *slog.Logger) *AuditHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuditHandler{logger: log.With(slog.String("component", "audit"))}
}

func (h *AuditHandler) HandleEvent(ctx context.Context, event *DomainEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger)
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.Time("occurred_at", event.CreatedAt),
	}
	if event.WorkGroupID != uuid.Nil {
		attrs = append(attrs, slog.String("work_group_id", event.WorkGroupID.String()))
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, slog.String("payload", string(event.Payload)))
	}
	log.Info("audit event", attrs...)
	return nil
}
