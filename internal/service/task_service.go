package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/domain/policy"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// CreateTaskInput holds the fields of a new task. A nil StatusID selects the
// NOT_STARTED catalog entry; a nil CreateTime means now.
type CreateTaskInput struct {
	WorkGroupID     uuid.UUID
	Title           string
	Description     string
	StatusID        *uuid.UUID
	PriorityID      *uuid.UUID
	AssignedMembers []string
	CreateTime      *time.Time
}

// UpdateTaskInput replaces every editable field of a task. A nil StatusID
// resets the status to NOT_STARTED and a nil PriorityID clears the priority.
type UpdateTaskInput struct {
	Title           string
	Description     string
	StatusID        *uuid.UUID
	PriorityID      *uuid.UUID
	AssignedMembers []string
}

// PartialUpdateTaskInput changes only the non-nil fields of a task.
type PartialUpdateTaskInput struct {
	Title           *string
	Description     *string
	StatusID        *uuid.UUID
	PriorityID      *uuid.UUID
	AssignedMembers *[]string
}

// TaskService manages tasks and their ACTIVE -> ARCHIVED lifecycle. Archived
// tasks reject every edit; they can only be deleted.
type TaskService interface {
	CreateTask(ctx context.Context, actor domain.Actor, input CreateTaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error)
	PartialUpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, input PartialUpdateTaskInput) (*domain.Task, error)
	// ArchiveTask archives a DONE task.
	ArchiveTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error)
	// DeleteArchivedTask deletes a task that has been archived.
	DeleteArchivedTask(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	// DeleteTask deletes a task regardless of its archival state.
	DeleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	GetTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, filter store.ArchivedFilter) ([]*domain.Task, error)
}

type taskServiceImpl struct {
	tx      store.Transactor
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (TaskService, error) {
	if tx == nil {
		return nil, &Error{Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tx:      tx,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// resolveStatus returns id when it names an existing status, or the
// NOT_STARTED status when id is nil.
func resolveStatus(ctx context.Context, st store.Stores, op string, id *uuid.UUID) (uuid.UUID, error) {
	if id == nil {
		status, err := st.Statuses.GetByName(ctx, domain.StatusNotStarted)
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, fail(op, domain.ErrInvalidState, "default task status "+domain.StatusNotStarted+" is missing from the catalog")
		}
		if err != nil {
			return uuid.Nil, wrap(op, "failed to read default task status", err)
		}
		return status.ID, nil
	}
	if _, err := st.Statuses.GetByID(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, fail(op, domain.ErrInvalidArgument, "unknown task status")
		}
		return uuid.Nil, wrap(op, "failed to read task status", err)
	}
	return *id, nil
}

func resolvePriority(ctx context.Context, st store.Stores, op string, id *uuid.UUID) (*uuid.UUID, error) {
	if id == nil {
		return nil, nil
	}
	if _, err := st.Priorities.GetByID(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(op, domain.ErrInvalidArgument, "unknown task priority")
		}
		return nil, wrap(op, "failed to read task priority", err)
	}
	p := *id
	return &p, nil
}

func resolveAssignees(ctx context.Context, st store.Stores, op string, workGroupID uuid.UUID, ids []string) ([]string, error) {
	ids = domain.NormalizeUserIDs(ids)
	if err := requireMembers(ctx, st, op, workGroupID, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// loadTask reads a task under a row lock, mapping a missing task to NotFound.
func loadTask(ctx context.Context, st store.Stores, op string, id uuid.UUID) (*domain.Task, error) {
	t, err := st.Tasks.GetForUpdate(ctx, id)
	if err != nil {
		return nil, wrap(op, "task not found", err)
	}
	return t, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, actor domain.Actor, input CreateTaskInput) (*domain.Task, error) {
	const op = "create_task"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New(),
		WorkGroupID: input.WorkGroupID,
		Title:       input.Title,
		Description: input.Description,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if input.CreateTime != nil && !input.CreateTime.IsZero() {
		task.CreateTime = input.CreateTime.UTC()
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := getGroup(ctx, st, op, input.WorkGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, input.WorkGroupID, policy.ActionEditTask, domain.RoleNone); err != nil {
			return err
		}
		var err error
		if task.StatusID, err = resolveStatus(ctx, st, op, input.StatusID); err != nil {
			return err
		}
		if task.PriorityID, err = resolvePriority(ctx, st, op, input.PriorityID); err != nil {
			return err
		}
		if task.AssignedMembers, err = resolveAssignees(ctx, st, op, input.WorkGroupID, input.AssignedMembers); err != nil {
			return err
		}
		if err := task.Validate(); err != nil {
			return wrap(op, "invalid task", err)
		}
		if err := st.Tasks.Create(ctx, task); err != nil {
			return wrap(op, "failed to save task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("work_group_id", task.WorkGroupID.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.TaskCreated, task.WorkGroupID, actor.UserID, taskPayload{TaskID: task.ID})
	return task, nil
}

// editable loads a task for an edit. Group membership is checked before the
// archived state, so outsiders get Forbidden for archived tasks too.
func editable(ctx context.Context, st store.Stores, op string, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	task, err := loadTask(ctx, st, op, id)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, st, op, actor, task.WorkGroupID, policy.ActionEditTask, domain.RoleNone); err != nil {
		return nil, err
	}
	if task.Archived {
		return nil, fail(op, domain.ErrInvalidState, "archived tasks cannot be edited")
	}
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	const op = "update_task"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if task, err = editable(ctx, st, op, actor, id); err != nil {
			return err
		}
		if task.StatusID, err = resolveStatus(ctx, st, op, input.StatusID); err != nil {
			return err
		}
		if task.PriorityID, err = resolvePriority(ctx, st, op, input.PriorityID); err != nil {
			return err
		}
		if task.AssignedMembers, err = resolveAssignees(ctx, st, op, task.WorkGroupID, input.AssignedMembers); err != nil {
			return err
		}
		task.Title = input.Title
		task.Description = input.Description
		task.UpdateTime = time.Now().UTC()
		return s.save(ctx, st, op, task)
	})
	if err != nil {
		return nil, err
	}
	s.updated(ctx, actor, task)
	return task, nil
}

func (s *taskServiceImpl) PartialUpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, input PartialUpdateTaskInput) (*domain.Task, error) {
	const op = "partial_update_task"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if task, err = editable(ctx, st, op, actor, id); err != nil {
			return err
		}
		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.StatusID != nil {
			if task.StatusID, err = resolveStatus(ctx, st, op, input.StatusID); err != nil {
				return err
			}
		}
		if input.PriorityID != nil {
			if task.PriorityID, err = resolvePriority(ctx, st, op, input.PriorityID); err != nil {
				return err
			}
		}
		if input.AssignedMembers != nil {
			if task.AssignedMembers, err = resolveAssignees(ctx, st, op, task.WorkGroupID, *input.AssignedMembers); err != nil {
				return err
			}
		}
		task.UpdateTime = time.Now().UTC()
		return s.save(ctx, st, op, task)
	})
	if err != nil {
		return nil, err
	}
	s.updated(ctx, actor, task)
	return task, nil
}

func (s *taskServiceImpl) save(ctx context.Context, st store.Stores, op string, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return wrap(op, "invalid task", err)
	}
	if err := st.Tasks.Update(ctx, task); err != nil {
		return wrap(op, "failed to update task", err)
	}
	return nil
}

func (s *taskServiceImpl) updated(ctx context.Context, actor domain.Actor, task *domain.Task) {
	s.logger.Debug("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.TaskUpdated, task.WorkGroupID, actor.UserID, taskPayload{TaskID: task.ID, ProjectID: task.ProjectID})
}

func (s *taskServiceImpl) ArchiveTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	const op = "archive_task"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if task, err = loadTask(ctx, st, op, id); err != nil {
			return err
		}
		status, err := st.Statuses.GetByID(ctx, task.StatusID)
		if err != nil {
			return wrap(op, "failed to read task status", err)
		}
		if status.Name != domain.StatusDone {
			return fail(op, domain.ErrInvalidState, "Only DONE tasks can be archived")
		}
		if task.Archived {
			return fail(op, domain.ErrInvalidState, "task is already archived")
		}
		if _, err := authorize(ctx, st, op, actor, task.WorkGroupID, policy.ActionArchiveTask, domain.RoleNone); err != nil {
			return err
		}

		task.Archived = true
		task.UpdateTime = time.Now().UTC()
		return s.save(ctx, st, op, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task archived",
		slog.String("task_id", id.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.TaskArchived, task.WorkGroupID, actor.UserID, taskPayload{TaskID: id, ProjectID: task.ProjectID})
	return task, nil
}

func (s *taskServiceImpl) DeleteArchivedTask(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_archived_task"
	return s.delete(ctx, op, actor, id, func(ctx context.Context, st store.Stores, task *domain.Task) error {
		if !task.Archived {
			return fail(op, domain.ErrInvalidState, "only archived tasks can be deleted this way")
		}
		_, err := authorize(ctx, st, op, actor, task.WorkGroupID, policy.ActionDeleteArchivedTask, domain.RoleNone)
		return err
	})
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_task"
	return s.delete(ctx, op, actor, id, func(ctx context.Context, st store.Stores, task *domain.Task) error {
		_, err := authorize(ctx, st, op, actor, task.WorkGroupID, policy.ActionDeleteTask, domain.RoleNone)
		return err
	})
}

func (s *taskServiceImpl) delete(ctx context.Context, op string, actor domain.Actor, id uuid.UUID,
	check func(ctx context.Context, st store.Stores, task *domain.Task) error,
) error {
	if err := requireActor(op, actor); err != nil {
		return err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if task, err = loadTask(ctx, st, op, id); err != nil {
			return err
		}
		if err := check(ctx, st, task); err != nil {
			return err
		}
		if err := st.Tasks.Delete(ctx, id); err != nil {
			return wrap(op, "failed to delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.Bool("archived", task.Archived),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.TaskDeleted, task.WorkGroupID, actor.UserID, taskPayload{TaskID: id, ProjectID: task.ProjectID})
	return nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	const op = "get_task"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if task, err = st.Tasks.GetByID(ctx, id); err != nil {
			return wrap(op, "task not found", err)
		}
		_, err = authorize(ctx, st, op, actor, task.WorkGroupID, policy.ActionViewWorkGroup, domain.RoleNone)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, filter store.ArchivedFilter) ([]*domain.Task, error) {
	const op = "list_tasks"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var tasks []*domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := getGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, workGroupID, policy.ActionViewWorkGroup, domain.RoleNone); err != nil {
			return err
		}
		var err error
		if tasks, err = st.Tasks.ListByWorkGroup(ctx, workGroupID, filter); err != nil {
			return wrap(op, "failed to list tasks", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}
