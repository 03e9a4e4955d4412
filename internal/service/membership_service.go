package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/domain/policy"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// CreateWorkGroupInput holds the fields of a new work group.
type CreateWorkGroupInput struct {
	Name        string
	Description string
}

// MembershipService drives the membership state machine of work groups:
// NONE -> MEMBER <-> MODERATOR, plus the single OWNER which only changes
// hands through TransferOwnership. Every transition locks the work group row
// first, so concurrent transitions on one group are serialized.
type MembershipService interface {
	// CreateWorkGroup creates the group and makes actor its OWNER atomically.
	CreateWorkGroup(ctx context.Context, actor domain.Actor, input CreateWorkGroupInput) (*domain.WorkGroup, error)
	AddMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error)
	// PromoteMember turns a MEMBER into a MODERATOR.
	PromoteMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error)
	// DemoteModerator turns a MODERATOR back into a MEMBER.
	DemoteModerator(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error)
	// TransferOwnership makes userID the OWNER and the previous OWNER a MODERATOR.
	TransferOwnership(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) error
	RemoveMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) error
	LeaveGroup(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID) error
}

type membershipServiceImpl struct {
	tx      store.Transactor
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewMembershipService creates a MembershipService.
func NewMembershipService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (MembershipService, error) {
	if tx == nil {
		return nil, &Error{Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &membershipServiceImpl{
		tx:      tx,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "membership_service")),
	}, nil
}

func (s *membershipServiceImpl) CreateWorkGroup(ctx context.Context, actor domain.Actor, input CreateWorkGroupInput) (*domain.WorkGroup, error) {
	const op = "create_work_group"
	if !actor.IsAuthenticated() {
		return nil, fail(op, domain.ErrConflict, "the creating user could not be identified")
	}

	wg, err := domain.NewWorkGroup(input.Name, input.Description)
	if err != nil {
		return nil, wrap(op, "invalid work group", err)
	}
	owner, err := domain.NewMembership(wg.ID, actor.UserID, domain.RoleOwner)
	if err != nil {
		return nil, wrap(op, "invalid owner membership", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if err := st.WorkGroups.Create(ctx, wg); err != nil {
			return wrap(op, "failed to save work group", err)
		}
		if err := st.Memberships.Create(ctx, owner); err != nil {
			return wrap(op, "failed to save owner membership", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create work group",
			slog.String("user_id", actor.UserID),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("work group created",
		slog.String("work_group_id", wg.ID.String()),
		slog.String("owner", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.WorkGroupCreated, wg.ID, actor.UserID, userPayload{UserID: actor.UserID, Role: string(domain.RoleOwner)})
	return wg, nil
}

func (s *membershipServiceImpl) AddMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error) {
	const op = "add_member"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	userID, err := targetUserID(op, userID)
	if err != nil {
		return nil, err
	}

	var created *domain.Membership
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, workGroupID, policy.ActionAddMember, domain.RoleNone); err != nil {
			return err
		}

		role, err := roleOf(ctx, st.Memberships, workGroupID, userID)
		if err != nil {
			return wrap(op, "failed to read membership", err)
		}
		if role != domain.RoleNone {
			return fail(op, domain.ErrInvalidState, "user is already a member of the work group")
		}

		m, err := domain.NewMembership(workGroupID, userID, domain.RoleMember)
		if err != nil {
			return wrap(op, "invalid membership", err)
		}
		if err := st.Memberships.Create(ctx, m); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fail(op, domain.ErrInvalidState, "user is already a member of the work group")
			}
			return wrap(op, "failed to save membership", err)
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member added",
		slog.String("work_group_id", workGroupID.String()),
		slog.String("user_id", userID),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.MemberAdded, workGroupID, actor.UserID, userPayload{UserID: userID, Role: string(domain.RoleMember)})
	return created, nil
}

func (s *membershipServiceImpl) PromoteMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error) {
	const op = "promote_member"
	m, err := s.changeRole(ctx, op, actor, workGroupID, userID, policy.ActionPromoteMember,
		domain.RoleMember, domain.RoleModerator, "only members can be promoted to moderator")
	if err != nil {
		return nil, err
	}
	publish(ctx, s.emitter, s.logger, events.MemberPromoted, workGroupID, actor.UserID, userPayload{UserID: userID, Role: string(domain.RoleModerator)})
	return m, nil
}

func (s *membershipServiceImpl) DemoteModerator(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) (*domain.Membership, error) {
	const op = "demote_moderator"
	m, err := s.changeRole(ctx, op, actor, workGroupID, userID, policy.ActionDemoteModerator,
		domain.RoleModerator, domain.RoleMember, "only moderators can be demoted")
	if err != nil {
		return nil, err
	}
	publish(ctx, s.emitter, s.logger, events.MemberDemoted, workGroupID, actor.UserID, userPayload{UserID: userID, Role: string(domain.RoleMember)})
	return m, nil
}

// changeRole moves a member from one role to another. A target that is not a
// member, or holds a role other than from, is an InvalidState.
func (s *membershipServiceImpl) changeRole(ctx context.Context, op string, actor domain.Actor, workGroupID uuid.UUID, userID string,
	action policy.Action, from, to domain.Role, wrongRole string,
) (*domain.Membership, error) {
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	userID, err := targetUserID(op, userID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Membership
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, workGroupID, action, from); err != nil {
			return err
		}

		target, err := st.Memberships.Get(ctx, workGroupID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return fail(op, domain.ErrInvalidState, "user is not a member of the work group")
		}
		if err != nil {
			return wrap(op, "failed to read membership", err)
		}
		if target.Role != from {
			return fail(op, domain.ErrInvalidState, wrongRole)
		}

		if err := target.ChangeRole(to); err != nil {
			return wrap(op, "invalid role", err)
		}
		if err := st.Memberships.UpdateRole(ctx, workGroupID, userID, to); err != nil {
			return wrap(op, "failed to update membership", err)
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member role changed",
		slog.String("work_group_id", workGroupID.String()),
		slog.String("user_id", userID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("actor", actor.UserID))
	return updated, nil
}

func (s *membershipServiceImpl) TransferOwnership(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) error {
	const op = "transfer_ownership"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	userID, err := targetUserID(op, userID)
	if err != nil {
		return err
	}

	var previousOwner string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, st, op, actor, workGroupID, policy.ActionTransferOwnership, domain.RoleNone); err != nil {
			return err
		}
		// Only the OWNER gets past authorize without the admin flag. An admin
		// may take ownership for themselves when they are a member.
		if userID == actor.UserID && !actor.IsAdmin {
			return fail(op, domain.ErrBadRequest, "you already own this work group")
		}

		target, err := st.Memberships.Get(ctx, workGroupID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return fail(op, domain.ErrInvalidState, "ownership can only be transferred to a member of the work group")
		}
		if err != nil {
			return wrap(op, "failed to read membership", err)
		}
		if target.Role == domain.RoleOwner {
			return fail(op, domain.ErrInvalidState, "user already owns the work group")
		}

		members, err := st.Memberships.ListByWorkGroup(ctx, workGroupID)
		if err != nil {
			return wrap(op, "failed to read memberships", err)
		}
		for _, m := range members {
			if m.Role == domain.RoleOwner {
				previousOwner = m.UserID
				break
			}
		}

		// Demote first: the store allows at most one OWNER per group at any time.
		if previousOwner != "" {
			if err := st.Memberships.UpdateRole(ctx, workGroupID, previousOwner, domain.RoleModerator); err != nil {
				return wrap(op, "failed to demote current owner", err)
			}
		}
		if err := st.Memberships.UpdateRole(ctx, workGroupID, userID, domain.RoleOwner); err != nil {
			return wrap(op, "failed to promote new owner", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("ownership transferred",
		slog.String("work_group_id", workGroupID.String()),
		slog.String("previous_owner", previousOwner),
		slog.String("new_owner", userID),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.OwnershipTransferred, workGroupID, actor.UserID, userPayload{UserID: userID, Role: string(domain.RoleOwner)})
	return nil
}

func (s *membershipServiceImpl) RemoveMember(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID, userID string) error {
	const op = "remove_member"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	userID, err := targetUserID(op, userID)
	if err != nil {
		return err
	}
	if userID == actor.UserID {
		return fail(op, domain.ErrBadRequest, "use leave to remove yourself from a work group")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		// Anyone who may remove at least a MEMBER gets to learn whether the target exists.
		subject, err := authorize(ctx, st, op, actor, workGroupID, policy.ActionRemoveMember, domain.RoleMember)
		if err != nil {
			return err
		}

		target, err := st.Memberships.Get(ctx, workGroupID, userID)
		if err != nil {
			return wrap(op, "user is not a member of the work group", err)
		}
		if target.Role == domain.RoleOwner && subject.IsAdmin {
			return fail(op, domain.ErrInvalidState, "the owner cannot be removed; transfer ownership first")
		}
		if !policy.Allowed(subject, policy.ActionRemoveMember, target.Role) {
			return fail(op, domain.ErrForbidden, forbiddenMessage(policy.ActionRemoveMember))
		}

		if err := st.Memberships.Delete(ctx, workGroupID, userID); err != nil {
			return wrap(op, "failed to delete membership", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed",
		slog.String("work_group_id", workGroupID.String()),
		slog.String("user_id", userID),
		slog.String("actor", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.MemberRemoved, workGroupID, actor.UserID, userPayload{UserID: userID})
	return nil
}

func (s *membershipServiceImpl) LeaveGroup(ctx context.Context, actor domain.Actor, workGroupID uuid.UUID) error {
	const op = "leave_group"
	if err := requireActor(op, actor); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := lockGroup(ctx, st, op, workGroupID); err != nil {
			return err
		}
		m, err := st.Memberships.Get(ctx, workGroupID, actor.UserID)
		if err != nil {
			return wrap(op, "you are not a member of this work group", err)
		}
		if m.Role == domain.RoleOwner {
			return fail(op, domain.ErrBadRequest, "the owner cannot leave; transfer ownership first")
		}
		if err := st.Memberships.Delete(ctx, workGroupID, actor.UserID); err != nil {
			return wrap(op, "failed to delete membership", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("member left",
		slog.String("work_group_id", workGroupID.String()),
		slog.String("user_id", actor.UserID))
	publish(ctx, s.emitter, s.logger, events.MemberLeft, workGroupID, actor.UserID, userPayload{UserID: actor.UserID})
	return nil
}
