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

// UpdateWorkGroupInput holds the replacement name and description of a group.
type UpdateWorkGroupInput struct {
	Name        string
	Description string
}

// MyWorkGroup is a work group together with the caller's role in it.
type MyWorkGroup struct {
	WorkGroup *domain.WorkGroup
	Role      domain.Role
}

// ProjectSummary identifies a project without its members.
type ProjectSummary struct {
	ID    uuid.UUID
	Title string
}

// MemberSummary is one member of a work group.
type MemberSummary struct {
	UserID string
	Role   domain.Role
}

// WorkGroupDetail is a work group with its projects and members.
type WorkGroupDetail struct {
	WorkGroup *domain.WorkGroup
	Projects  []ProjectSummary
	Members   []MemberSummary
}

// WorkGroupService reads and maintains work groups. Group creation and
// membership changes live in MembershipService.
type WorkGroupService interface {
	GetWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.WorkGroup, error)
	// GetWorkGroupDetail returns the group with project and member summaries.
	GetWorkGroupDetail(ctx context.Context, actor domain.Actor, id uuid.UUID) (*WorkGroupDetail, error)
	// ListMyWorkGroups returns every group the actor belongs to, ordered by name.
	ListMyWorkGroups(ctx context.Context, actor domain.Actor) ([]MyWorkGroup, error)
	UpdateWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateWorkGroupInput) (*domain.WorkGroup, error)
	// DeleteWorkGroup removes the group with its memberships, projects and tasks.
	DeleteWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type workGroupServiceImpl struct {
	tx      store.Transactor
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewWorkGroupService creates a WorkGroupService.
func NewWorkGroupService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (WorkGroupService, error) {
	if tx == nil {
		return nil, &Error{Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &workGroupServiceImpl{
		tx:      tx,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "work_group_service")),
	}, nil
}

func (s *workGroupServiceImpl) GetWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.WorkGroup, error) {
	const op = "get_work_group"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var wg *domain.WorkGroup
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if wg, err = getGroup(ctx, st, op, id); err != nil {
			return err
		}
		_, err = authorize(ctx, st, op, actor, id, policy.ActionViewWorkGroup, domain.RoleNone)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wg, nil
}

func (s *workGroupServiceImpl) GetWorkGroupDetail(ctx context.Context, actor domain.Actor, id uuid.UUID) (*WorkGroupDetail, error) {
	const op = "get_work_group_detail"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	detail := &WorkGroupDetail{Projects: []ProjectSummary{}, Members: []MemberSummary{}}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		wg, err := getGroup(ctx, st, op, id)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, id, policy.ActionViewWorkGroup, domain.RoleNone); err != nil {
			return err
		}
		detail.WorkGroup = wg

		projects, err := st.Projects.ListByWorkGroup(ctx, id)
		if err != nil {
			return wrap(op, "failed to list projects", err)
		}
		for _, p := range projects {
			detail.Projects = append(detail.Projects, ProjectSummary{ID: p.ID, Title: p.Title})
		}

		members, err := st.Memberships.ListByWorkGroup(ctx, id)
		if err != nil {
			return wrap(op, "failed to list members", err)
		}
		for _, m := range members {
			detail.Members = append(detail.Members, MemberSummary{UserID: m.UserID, Role: m.Role})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *workGroupServiceImpl) ListMyWorkGroups(ctx context.Context, actor domain.Actor) ([]MyWorkGroup, error) {
	const op = "list_my_work_groups"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	out := []MyWorkGroup{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		memberships, err := st.Memberships.ListByUser(ctx, actor.UserID)
		if err != nil {
			return wrap(op, "failed to list memberships", err)
		}
		if len(memberships) == 0 {
			return nil
		}
		roles := make(map[uuid.UUID]domain.Role, len(memberships))
		ids := make([]uuid.UUID, 0, len(memberships))
		for _, m := range memberships {
			roles[m.WorkGroupID] = m.Role
			ids = append(ids, m.WorkGroupID)
		}
		groups, err := st.WorkGroups.ListByIDs(ctx, ids)
		if err != nil {
			return wrap(op, "failed to list work groups", err)
		}
		for _, wg := range groups {
			out = append(out, MyWorkGroup{WorkGroup: wg, Role: roles[wg.ID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *workGroupServiceImpl) UpdateWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateWorkGroupInput) (*domain.WorkGroup, error) {
	const op = "update_work_group"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	var wg *domain.WorkGroup
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		if wg, err = lockGroup(ctx, st, op, id); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, id, policy.ActionUpdateWorkGroup, domain.RoleNone); err != nil {
			return err
		}
		wg.Name = input.Name
		wg.Description = input.Description
		if err := wg.Validate(); err != nil {
			return wrap(op, "invalid work group", err)
		}
		if err := st.WorkGroups.Update(ctx, wg); err != nil {
			return wrap(op, "failed to update work group", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("work group updated",
		slog.String("work_group_id", id.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.WorkGroupUpdated, id, actor.UserID, nil)
	return wg, nil
}

func (s *workGroupServiceImpl) DeleteWorkGroup(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "delete_work_group"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, id); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, id, policy.ActionDeleteWorkGroup, domain.RoleNone); err != nil {
			return err
		}
		if err := st.WorkGroups.Delete(ctx, id); err != nil {
			return wrap(op, "failed to delete work group", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("work group deleted",
		slog.String("work_group_id", id.String()),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.WorkGroupDeleted, id, actor.UserID, nil)
	return nil
}
