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

// CreateProjectInput holds the fields of a new project.
type CreateProjectInput struct {
	WorkGroupID uuid.UUID
	Title       string
	Description string
	Members     []string
}

// UpdateProjectInput replaces the title and description of a project.
type UpdateProjectInput struct {
	Title       string
	Description string
}

// TaskSummary is a compact view of a task with catalog names resolved.
type TaskSummary struct {
	ID       uuid.UUID
	Title    string
	Status   string
	Priority string
	Archived bool
}

// ProjectService manages projects and the binding of tasks and members to
// them. A task and its project always belong to the same work group.
type ProjectService interface {
	CreateProject(ctx context.Context, actor domain.Actor, input CreateProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateProjectInput) (*domain.Project, error)
	// DeleteProject removes the project; its tasks stay in the work group unlinked.
	DeleteProject(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	GetProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Project, error)
	ListProjects(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID) ([]*domain.Project, error)
	// AssignTasksToProject links every task to the project, or none of them.
	AssignTasksToProject(ctx context.Context, actor domain.Actor, projectID uuid.UUID, taskIDs []uuid.UUID) ([]*domain.Task, error)
	RemoveTaskFromProject(ctx context.Context, actor domain.Actor, projectID, taskID uuid.UUID) (*domain.Task, error)
	// UpdateProjectMembers replaces the project's member set.
	UpdateProjectMembers(ctx context.Context, actor domain.Actor, projectID uuid.UUID, memberIDs []string) (*domain.Project, error)
	GetProjectTasks(ctx context.Context, actor domain.Actor, projectID uuid.UUID) ([]*domain.Task, error)
	GetProjectTaskSummaries(ctx context.Context, actor domain.Actor, projectID uuid.UUID) ([]TaskSummary, error)
}

type projectServiceImpl struct {
	tx      store.Transactor
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (ProjectService, error) {
	if tx == nil {
		return nil, &Error{Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &projectServiceImpl{
		tx:      tx,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "project_service")),
	}, nil
}

// projectFor reads a project and checks that actor may perform action in its
// work group. Mutating actions also lock the work group row.
func projectFor(ctx context.Context, st store.Stores, op string, actor domain.Actor, id uuid.UUID, action policy.Action) (*domain.Project, error) {
	p, err := st.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "project not found", err)
	}
	if action != policy.ActionViewWorkGroup {
		if _, err := lockGroup(ctx, st, op, p.WorkGroupID); err != nil {
			return nil, err
		}
	}
	if _, err := authorize(ctx, st, op, actor, p.WorkGroupID, action, domain.RoleNone); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectServiceImpl) CreateProject(ctx context.Context, actor domain.Actor, input CreateProjectInput) (*domain.Project, error) {
	const op = "create_project"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	p, err := domain.NewProject(input.WorkGroupID, input.Title, input.Description)
	if err != nil {
		return nil, wrap(op, "invalid project", err)
	}
	p.Members = domain.NormalizeUserIDs(input.Members)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, input.WorkGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, input.WorkGroupID, policy.ActionManageProject, domain.RoleNone); err != nil {
			return err
		}
		if err := requireMembers(ctx, st, op, input.WorkGroupID, p.Members); err != nil {
			return err
		}
		if err := st.Projects.Create(ctx, p); err != nil {
			return wrap(op, "failed to save project", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		slog.String("project_id", p.ID.String()),
		slog.String("work_group_id", p.WorkGroupID.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.ProjectCreated, p.WorkGroupID, actor.UserID, projectPayload{ProjectID: p.ID})
	return p, nil
}

func (s *projectServiceImpl) UpdateProject(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateProjectInput) (*domain.Project, error) {
	const op = "update_project"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var p *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if p, err = projectFor(ctx, st, op, actor, id, policy.ActionManageProject); err != nil {
			return err
		}
		p.Title = input.Title
		p.Description = input.Description
		if err := p.Validate(); err != nil {
			return wrap(op, "invalid project", err)
		}
		if err := st.Projects.Update(ctx, p); err != nil {
			return wrap(op, "failed to update project", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.emitter, s.logger, events.ProjectUpdated, p.WorkGroupID, actor.UserID, projectPayload{ProjectID: p.ID})
	return p, nil
}

func (s *projectServiceImpl) DeleteProject(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_project"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	var p *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if p, err = projectFor(ctx, st, op, actor, id, policy.ActionManageProject); err != nil {
			return err
		}
		if err := st.Projects.Delete(ctx, id); err != nil {
			return wrap(op, "failed to delete project", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("project deleted",
		slog.String("project_id", id.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.ProjectDeleted, p.WorkGroupID, actor.UserID, projectPayload{ProjectID: id})
	return nil
}

func (s *projectServiceImpl) GetProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Project, error) {
	const op = "get_project"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var p *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		p, err = projectFor(ctx, st, op, actor, id, policy.ActionViewWorkGroup)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectServiceImpl) ListProjects(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID) ([]*domain.Project, error) {
	const op = "list_projects"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var projects []*domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := getGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, workGroupID, policy.ActionViewWorkGroup, domain.RoleNone); err != nil {
			return err
		}
		var err error
		if projects, err = st.Projects.ListByWorkGroup(ctx, workGroupID); err != nil {
			return wrap(op, "failed to list projects", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return projects, nil
}

func (s *projectServiceImpl) AssignTasksToProject(ctx context.Context, actor domain.Actor, projectID uuid.UUID, taskIDs []uuid.UUID) ([]*domain.Task, error) {
	const op = "assign_tasks_to_project"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var p *domain.Project
	tasks := []*domain.Task{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if p, err = projectFor(ctx, st, op, actor, projectID, policy.ActionManageProject); err != nil {
			return err
		}

		seen := make(map[uuid.UUID]struct{}, len(taskIDs))
		for _, id := range taskIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			task, err := loadTask(ctx, st, op, id)
			if err != nil {
				return err
			}
			if task.WorkGroupID != p.WorkGroupID {
				return fail(op, domain.ErrInvalidArgument, "task "+id.String()+" belongs to a different work group than the project")
			}
			if task.Archived {
				return fail(op, domain.ErrInvalidState, "archived task "+id.String()+" cannot be assigned to a project")
			}
			tasks = append(tasks, task)
		}

		for _, task := range tasks {
			pid := p.ID
			task.ProjectID = &pid
			if err := st.Tasks.Update(ctx, task); err != nil {
				return wrap(op, "failed to link task", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tasks assigned to project",
		slog.String("project_id", projectID.String()),
		slog.Int("count", len(tasks)),
		slog.String("actor", actor.UserID))
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	publish(ctx, s.emitter, s.logger, events.ProjectTasksAssigned, p.WorkGroupID, actor.UserID, projectPayload{ProjectID: projectID, TaskIDs: ids})
	return tasks, nil
}

func (s *projectServiceImpl) RemoveTaskFromProject(ctx context.Context, actor domain.Actor, projectID, taskID uuid.UUID) (*domain.Task, error) {
	const op = "remove_task_from_project"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		p, err := projectFor(ctx, st, op, actor, projectID, policy.ActionManageProject)
		if err != nil {
			return err
		}
		if task, err = loadTask(ctx, st, op, taskID); err != nil {
			return err
		}
		if task.WorkGroupID != p.WorkGroupID {
			return fail(op, domain.ErrInvalidArgument, "task belongs to a different work group than the project")
		}
		if !task.InProject(projectID) {
			return fail(op, domain.ErrInvalidState, "task is not linked to this project")
		}
		if task.Archived {
			return fail(op, domain.ErrInvalidState, "archived tasks cannot be edited")
		}
		task.ProjectID = nil
		if err := st.Tasks.Update(ctx, task); err != nil {
			return wrap(op, "failed to unlink task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.emitter, s.logger, events.ProjectTaskRemoved, task.WorkGroupID, actor.UserID, projectPayload{ProjectID: projectID, TaskIDs: []uuid.UUID{taskID}})
	return task, nil
}

func (s *projectServiceImpl) UpdateProjectMembers(ctx context.Context, actor domain.Actor, projectID uuid.UUID, memberIDs []string) (*domain.Project, error) {
	const op = "update_project_members"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var p *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if p, err = projectFor(ctx, st, op, actor, projectID, policy.ActionManageProject); err != nil {
			return err
		}
		members := domain.NormalizeUserIDs(memberIDs)
		if err := requireMembers(ctx, st, op, p.WorkGroupID, members); err != nil {
			return err
		}
		p.Members = members
		if err := st.Projects.Update(ctx, p); err != nil {
			return wrap(op, "failed to update project members", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project members replaced",
		slog.String("project_id", projectID.String()),
		slog.Int("count", len(p.Members)),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.ProjectMembersSet, p.WorkGroupID, actor.UserID, projectPayload{ProjectID: projectID, Members: p.Members})
	return p, nil
}

func (s *projectServiceImpl) GetProjectTasks(ctx context.Context, actor domain.Actor, projectID uuid.UUID) ([]*domain.Task, error) {
	const op = "get_project_tasks"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var tasks []*domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := projectFor(ctx, st, op, actor, projectID, policy.ActionViewWorkGroup); err != nil {
			return err
		}
		var err error
		if tasks, err = st.Tasks.ListByProject(ctx, projectID); err != nil {
			return wrap(op, "failed to list project tasks", err)
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

func (s *projectServiceImpl) GetProjectTaskSummaries(ctx context.Context, actor domain.Actor, projectID uuid.UUID) ([]TaskSummary, error) {
	const op = "get_project_task_summaries"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	summaries := []TaskSummary{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := projectFor(ctx, st, op, actor, projectID, policy.ActionViewWorkGroup); err != nil {
			return err
		}
		tasks, err := st.Tasks.ListByProject(ctx, projectID)
		if err != nil {
			return wrap(op, "failed to list project tasks", err)
		}
		statuses, err := st.Statuses.List(ctx)
		if err != nil {
			return wrap(op, "failed to list task statuses", err)
		}
		priorities, err := st.Priorities.List(ctx)
		if err != nil {
			return wrap(op, "failed to list task priorities", err)
		}

		statusNames := make(map[uuid.UUID]string, len(statuses))
		for _, ts := range statuses {
			statusNames[ts.ID] = ts.Name
		}
		priorityNames := make(map[uuid.UUID]string, len(priorities))
		for _, tp := range priorities {
			priorityNames[tp.ID] = tp.Name
		}

		for _, t := range tasks {
			summary := TaskSummary{
				ID:       t.ID,
				Title:    t.Title,
				Status:   statusNames[t.StatusID],
				Archived: t.Archived,
			}
			if t.PriorityID != nil {
				summary.Priority = priorityNames[*t.PriorityID]
			}
			summaries = append(summaries, summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
