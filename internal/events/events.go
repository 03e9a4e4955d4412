package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	WorkGroupCreated     = "work_group.created"
	WorkGroupUpdated     = "work_group.updated"
	WorkGroupDeleted     = "work_group.deleted"
	MemberAdded          = "membership.added"
	MemberRemoved        = "membership.removed"
	MemberLeft           = "membership.left"
	MemberPromoted       = "membership.promoted"
	MemberDemoted        = "membership.demoted"
	OwnershipTransferred = "membership.ownership_transferred"
	TaskCreated          = "task.created"
	TaskUpdated          = "task.updated"
	TaskArchived         = "task.archived"
	TaskDeleted          = "task.deleted"
	ProjectCreated       = "project.created"
	ProjectUpdated       = "project.updated"
	ProjectDeleted       = "project.deleted"
	ProjectTasksAssigned = "project.tasks_assigned"
	ProjectTaskRemoved   = "project.task_removed"
	ProjectMembersSet    = "project.members_updated"
	CatalogChanged       = "catalog.changed"
)

// DomainEvent records one committed change.
type DomainEvent struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	WorkGroupID uuid.UUID       `json:"work_group_id,omitempty"`
	ActorID     string          `json:"actor_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *DomainEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewDomainEvent creates an event with a fresh id and the current time.
// payload may be nil.
func NewDomainEvent(eventType string, workGroupID uuid.UUID, actorID string, payload any) (*DomainEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &DomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		WorkGroupID: workGroupID,
		ActorID:     actorID,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// EventHandler processes events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *DomainEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *DomainEvent) error
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) EmitEvent(context.Context, *DomainEvent) error { return nil }
