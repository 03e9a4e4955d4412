package service

import (
	"context"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/domain/policy"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// StatusInput holds the fields of a task status. A nil Visible means visible.
type StatusInput struct {
	Name    string
	Visible *bool
}

// StatusPatch changes only the non-nil fields of a task status.
type StatusPatch struct {
	Name    *string
	Visible *bool
}

// PriorityInput holds the fields of a task priority. A nil Visible means visible.
type PriorityInput struct {
	Name    string
	Level   int
	Visible *bool
}

// PriorityPatch changes only the non-nil fields of a task priority.
type PriorityPatch struct {
	Name    *string
	Level   *int
	Visible *bool
}

// CatalogService administers the global task status and priority catalogs.
// Reads are open to every authenticated user; writes require the platform
// administrator capability. The NOT_STARTED and DONE statuses drive the task
// lifecycle and can be hidden but not renamed or deleted.
type CatalogService interface {
	CreateStatus(ctx context.Context, actor domain.Actor, input StatusInput) (*domain.TaskStatus, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, input StatusInput) (*domain.TaskStatus, error)
	PatchStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, patch StatusPatch) (*domain.TaskStatus, error)
	DeleteStatus(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	SetStatusVisible(ctx context.Context, actor domain.Actor, id uuid.UUID, visible bool) (*domain.TaskStatus, error)
	GetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.TaskStatus, error)
	ListStatuses(ctx context.Context, actor domain.Actor, visibleOnly bool) ([]*domain.TaskStatus, error)

	CreatePriority(ctx context.Context, actor domain.Actor, input PriorityInput) (*domain.TaskPriority, error)
	UpdatePriority(ctx context.Context, actor domain.Actor, id uuid.UUID, input PriorityInput) (*domain.TaskPriority, error)
	PatchPriority(ctx context.Context, actor domain.Actor, id uuid.UUID, patch PriorityPatch) (*domain.TaskPriority, error)
	DeletePriority(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	SetPriorityVisible(ctx context.Context, actor domain.Actor, id uuid.UUID, visible bool) (*domain.TaskPriority, error)
	GetPriority(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.TaskPriority, error)
	ListPriorities(ctx context.Context, actor domain.Actor, visibleOnly bool) ([]*domain.TaskPriority, error)
}

type catalogServiceImpl struct {
	statuses   store.TaskStatusStore
	priorities store.TaskPriorityStore
	emitter    events.EventEmitter
	logger     *slog.Logger
}

// NewCatalogService creates a CatalogService over the given catalog stores,
// which may be cache decorators.
func NewCatalogService(statuses store.TaskStatusStore, priorities store.TaskPriorityStore, emitter events.EventEmitter, logger *slog.Logger) (CatalogService, error) {
	if statuses == nil || priorities == nil {
		return nil, &Error{Operation: "create_service", Message: "catalog stores cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogServiceImpl{
		statuses:   statuses,
		priorities: priorities,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "catalog_service")),
	}, nil
}

const (
	kindStatus   = "task_status"
	kindPriority = "task_priority"
)

func requireCatalogAdmin(op string, actor domain.Actor) error {
	if err := requireActor(op, actor); err != nil {
		return err
	}
	if !policy.CanAdministerCatalog(actor.IsAdmin) {
		return fail(op, domain.ErrForbidden, "only administrators can change the task catalog")
	}
	return nil
}

func isBuiltInStatus(name string) bool {
	return name == domain.StatusNotStarted || name == domain.StatusDone
}

func visibleOrDefault(v *bool) bool {
	return v == nil || *v
}

func (s *catalogServiceImpl) changed(ctx context.Context, actor domain.Actor, kind string, id uuid.UUID, change string) {
	s.logger.Info("catalog changed",
		slog.String("kind", kind),
		slog.String("id", id.String()),
		slog.String("change", change),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.CatalogChanged, uuid.Nil, actor.UserID, catalogPayload{Kind: kind, ID: id, Change: change})
}

func (s *catalogServiceImpl) CreateStatus(ctx context.Context, actor domain.Actor, input StatusInput) (*domain.TaskStatus, error) {
	const op = "create_task_status"
	if err := requireCatalogAdmin(op, actor); err != nil {
		return nil, err
	}
	ts, err := domain.NewTaskStatus(input.Name)
	if err != nil {
		return nil, wrap(op, "invalid task status", err)
	}
	ts.Visible = visibleOrDefault(input.Visible)
	if err := s.statuses.Create(ctx, ts); err != nil {
		return nil, wrap(op, "a task status with this name already exists", err)
	}
	s.changed(ctx, actor, kindStatus, ts.ID, "created")
	return ts, nil
}

func (s *catalogServiceImpl) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, input StatusInput) (*domain.TaskStatus, error) {
	name := input.Name
	visible := visibleOrDefault(input.Visible)
	return s.modifyStatus(ctx, "update_task_status", actor, id, StatusPatch{Name: &name, Visible: &visible})
}

func (s *catalogServiceImpl) PatchStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, patch StatusPatch) (*domain.TaskStatus, error) {
	return s.modifyStatus(ctx, "patch_task_status", actor, id, patch)
}

func (s *catalogServiceImpl) SetStatusVisible(ctx context.Context, actor domain.Actor, id uuid.UUID, visible bool) (*domain.TaskStatus, error) {
	return s.modifyStatus(ctx, "set_task_status_visibility", actor, id, StatusPatch{Visible: &visible})
}

func (s *catalogServiceImpl) modifyStatus(ctx context.Context, op string, actor domain.Actor, id uuid.UUID, patch StatusPatch) (*domain.TaskStatus, error) {
	if err := requireCatalogAdmin(op, actor); err != nil {
		return nil, err
	}
	ts, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "task status not found", err)
	}
	if patch.Name != nil && *patch.Name != ts.Name {
		if isBuiltInStatus(ts.Name) {
			return nil, fail(op, domain.ErrInvalidState, "built-in status "+ts.Name+" cannot be renamed")
		}
		ts.Name = *patch.Name
	}
	if patch.Visible != nil {
		ts.Visible = *patch.Visible
	}
	if err := ts.Validate(); err != nil {
		return nil, wrap(op, "invalid task status", err)
	}
	if err := s.statuses.Update(ctx, ts); err != nil {
		return nil, wrap(op, "failed to update task status", err)
	}
	s.changed(ctx, actor, kindStatus, ts.ID, "updated")
	return ts, nil
}

func (s *catalogServiceImpl) DeleteStatus(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_task_status"
	if err := requireCatalogAdmin(op, actor); err != nil {
		return err
	}
	ts, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		return wrap(op, "task status not found", err)
	}
	if isBuiltInStatus(ts.Name) {
		return fail(op, domain.ErrInvalidState, "built-in status "+ts.Name+" cannot be deleted")
	}
	if err := s.statuses.Delete(ctx, id); err != nil {
		return wrap(op, "task status is still used by tasks", err)
	}
	s.changed(ctx, actor, kindStatus, id, "deleted")
	return nil
}

func (s *catalogServiceImpl) GetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.TaskStatus, error) {
	const op = "get_task_status"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	ts, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "task status not found", err)
	}
	return ts, nil
}

func (s *catalogServiceImpl) ListStatuses(ctx context.Context, actor domain.Actor, visibleOnly bool) ([]*domain.TaskStatus, error) {
	const op = "list_task_statuses"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	list := s.statuses.List
	if visibleOnly {
		list = s.statuses.ListVisible
	}
	out, err := list(ctx)
	if err != nil {
		return nil, wrap(op, "failed to list task statuses", err)
	}
	if out == nil {
		out = []*domain.TaskStatus{}
	}
	return out, nil
}

func (s *catalogServiceImpl) CreatePriority(ctx context.Context, actor domain.Actor, input PriorityInput) (*domain.TaskPriority, error) {
	const op = "create_task_priority"
	if err := requireCatalogAdmin(op, actor); err != nil {
		return nil, err
	}
	tp, err := domain.NewTaskPriority(input.Name, input.Level)
	if err != nil {
		return nil, wrap(op, "invalid task priority", err)
	}
	tp.Visible = visibleOrDefault(input.Visible)
	if err := s.priorities.Create(ctx, tp); err != nil {
		return nil, wrap(op, "a task priority with this name already exists", err)
	}
	s.changed(ctx, actor, kindPriority, tp.ID, "created")
	return tp, nil
}

func (s *catalogServiceImpl) UpdatePriority(ctx context.Context, actor domain.Actor, id uuid.UUID, input PriorityInput) (*domain.TaskPriority, error) {
	name, level := input.Name, input.Level
	visible := visibleOrDefault(input.Visible)
	return s.modifyPriority(ctx, "update_task_priority", actor, id, PriorityPatch{Name: &name, Level: &level, Visible: &visible})
}

func (s *catalogServiceImpl) PatchPriority(ctx context.Context, actor domain.Actor, id uuid.UUID, patch PriorityPatch) (*domain.TaskPriority, error) {
	return s.modifyPriority(ctx, "patch_task_priority", actor, id, patch)
}

func (s *catalogServiceImpl) SetPriorityVisible(ctx context.Context, actor domain.Actor, id uuid.UUID, visible bool) (*domain.TaskPriority, error) {
	return s.modifyPriority(ctx, "set_task_priority_visibility", actor, id, PriorityPatch{Visible: &visible})
}

func (s *catalogServiceImpl) modifyPriority(ctx context.Context, op string, actor domain.Actor, id uuid.UUID, patch PriorityPatch) (*domain.TaskPriority, error) {
	if err := requireCatalogAdmin(op, actor); err != nil {
		return nil, err
	}
	tp, err := s.priorities.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "task priority not found", err)
	}
	if patch.Name != nil {
		tp.Name = *patch.Name
	}
	if patch.Level != nil {
		tp.Level = *patch.Level
	}
	if patch.Visible != nil {
		tp.Visible = *patch.Visible
	}
	if err := tp.Validate(); err != nil {
		return nil, wrap(op, "invalid task priority", err)
	}
	if err := s.priorities.Update(ctx, tp); err != nil {
		return nil, wrap(op, "failed to update task priority", err)
	}
	s.changed(ctx, actor, kindPriority, tp.ID, "updated")
	return tp, nil
}

func (s *catalogServiceImpl) DeletePriority(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_task_priority"
	if err := requireCatalogAdmin(op, actor); err != nil {
		return err
	}
	if err := s.priorities.Delete(ctx, id); err != nil {
		return wrap(op, "task priority could not be deleted", err)
	}
	s.changed(ctx, actor, kindPriority, id, "deleted")
	return nil
}

func (s *catalogServiceImpl) GetPriority(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.TaskPriority, error) {
	const op = "get_task_priority"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	tp, err := s.priorities.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "task priority not found", err)
	}
	return tp, nil
}

func (s *catalogServiceImpl) ListPriorities(ctx context.Context, actor domain.Actor, visibleOnly bool) ([]*domain.TaskPriority, error) {
	const op = "list_task_priorities"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	list := s.priorities.List
	if visibleOnly {
		list = s.priorities.ListVisible
	}
	out, err := list(ctx)
	if err != nil {
		return nil, wrap(op, "failed to list task priorities", err)
	}
	if out == nil {
		out = []*domain.TaskPriority{}
	}
	return out, nil
}
