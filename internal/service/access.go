package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/domain/policy"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// roleOf returns the user's role in the group, or domain.RoleNone.
func roleOf(ctx context.Context, memberships store.MembershipStore, workGroupID uuid.UUID, userID string) (domain.Role, error) {
	if userID == "" {
		return domain.RoleNone, nil
	}
	m, err := memberships.Get(ctx, workGroupID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, err
	}
	return m.Role, nil
}

// subjectFor reads the actor's current role. Roles are never cached across calls.
func subjectFor(ctx context.Context, memberships store.MembershipStore, workGroupID uuid.UUID, actor domain.Actor) (policy.Subject, error) {
	role, err := roleOf(ctx, memberships, workGroupID, actor.UserID)
	if err != nil {
		return policy.Subject{}, err
	}
	return policy.Subject{Role: role, IsAdmin: actor.IsAdmin}, nil
}

// authorize fails with domain.ErrForbidden unless actor may perform action
// against a member holding target in the given group.
func authorize(ctx context.Context, s store.Stores, op string, actor domain.Actor, workGroupID uuid.UUID, action policy.Action, target domain.Role) (policy.Subject, error) {
	subject, err := subjectFor(ctx, s.Memberships, workGroupID, actor)
	if err != nil {
		return subject, wrap(op, "failed to read membership", err)
	}
	if !policy.Allowed(subject, action, target) {
		return subject, fail(op, domain.ErrForbidden, forbiddenMessage(action))
	}
	return subject, nil
}

// targetUserID trims a user id taken from a request and rejects blanks.
func targetUserID(op, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fail(op, domain.ErrInvalidArgument, "user id is required")
	}
	return userID, nil
}

func requireActor(op string, actor domain.Actor) error {
	if !actor.IsAuthenticated() {
		return fail(op, domain.ErrUnauthenticated, "authentication required")
	}
	return nil
}

func forbiddenMessage(action policy.Action) string {
	switch action {
	case policy.ActionViewWorkGroup, policy.ActionEditTask:
		return "you are not a member of this work group"
	case policy.ActionUpdateWorkGroup, policy.ActionDeleteWorkGroup, policy.ActionTransferOwnership, policy.ActionDemoteModerator:
		return "only the work group owner can do this"
	case policy.ActionRemoveMember:
		return "you cannot remove this member"
	default:
		return "only the owner or a moderator can do this"
	}
}

// lockGroup locks the group row, mapping a missing group to NotFound.
func lockGroup(ctx context.Context, s store.Stores, op string, id uuid.UUID) (*domain.WorkGroup, error) {
	wg, err := s.WorkGroups.LockByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "work group not found", err)
	}
	return wg, nil
}

func getGroup(ctx context.Context, s store.Stores, op string, id uuid.UUID) (*domain.WorkGroup, error) {
	wg, err := s.WorkGroups.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, "work group not found", err)
	}
	return wg, nil
}

// requireMembers fails with InvalidArgument unless every id is a member of the group.
func requireMembers(ctx context.Context, s store.Stores, op string, workGroupID uuid.UUID, userIDs []string) error {
	for _, id := range userIDs {
		role, err := roleOf(ctx, s.Memberships, workGroupID, id)
		if err != nil {
			return wrap(op, "failed to read membership", err)
		}
		if role == domain.RoleNone {
			return fail(op, domain.ErrInvalidArgument, "user "+id+" is not a member of the work group")
		}
	}
	return nil
}
