package service_test

import (
	"sync"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMembershipService_RequiresDependencies(t *testing.T) {
	_, err := service.NewMembershipService(nil, events.NopEmitter{}, nil)
	assert.Error(t, err)

	f := newFixture(t)
	_, err = service.NewMembershipService(f.backend, nil, nil)
	assert.Error(t, err)
}

func TestCreateWorkGroup(t *testing.T) {
	t.Run("creator becomes owner", func(t *testing.T) {
		f := newFixture(t)
		wg, err := f.memberships.CreateWorkGroup(f.ctx, alice, service.CreateWorkGroupInput{Name: "W", Description: "first"})
		require.NoError(t, err)

		assert.Equal(t, "W", wg.Name)
		assert.Equal(t, domain.RoleOwner, f.role(t, wg.ID, alice))
		assert.Equal(t, []string{events.WorkGroupCreated}, f.events.types())
	})

	t.Run("unidentified creator is a conflict", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.memberships.CreateWorkGroup(f.ctx, domain.Actor{}, service.CreateWorkGroupInput{Name: "W"})
		assertKind(t, err, domain.ErrConflict)
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.memberships.CreateWorkGroup(f.ctx, alice, service.CreateWorkGroupInput{Name: "  "})
		assertKind(t, err, domain.ErrInvalidArgument)
		assert.Empty(t, f.events.types())
	})
}

// Create W as alice, add bob, promote bob, then bob tries to promote a non-member.
func TestMembership_PromotionFlow(t *testing.T) {
	f := newFixture(t)
	wg, err := f.memberships.CreateWorkGroup(f.ctx, alice, service.CreateWorkGroupInput{Name: "W"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, f.role(t, wg.ID, alice))

	m, err := f.memberships.AddMember(f.ctx, alice, wg.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, m.Role)
	assert.Equal(t, domain.RoleMember, f.role(t, wg.ID, bob))

	m, err = f.memberships.PromoteMember(f.ctx, alice, wg.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, m.Role)
	assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, bob))

	_, err = f.memberships.PromoteMember(f.ctx, bob, wg.ID, "carol")
	assertKind(t, err, domain.ErrInvalidState)
	assert.Equal(t, domain.RoleNone, f.role(t, wg.ID, carol))
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob, carol)
	f.promote(t, alice, wg.ID, bob)

	tests := []struct {
		name   string
		actor  domain.Actor
		target string
		want   error
	}{
		{"moderator adds", bob, "dave", nil},
		{"already a member", alice, "carol", domain.ErrInvalidState},
		{"member cannot add", carol, "erin", domain.ErrForbidden},
		{"outsider cannot add", domain.Actor{UserID: "mallory"}, "erin", domain.ErrForbidden},
		{"admin adds without membership", admin, "frank", nil},
		{"empty user", alice, "", domain.ErrInvalidArgument},
		{"unauthenticated", domain.Actor{}, "erin", domain.ErrUnauthenticated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.memberships.AddMember(f.ctx, tc.actor, wg.ID, tc.target)
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, domain.RoleMember, f.role(t, wg.ID, domain.Actor{UserID: tc.target}))
				return
			}
			assertKind(t, err, tc.want)
		})
	}

	t.Run("unknown group", func(t *testing.T) {
		_, err := f.memberships.AddMember(f.ctx, alice, uuid.New(), "erin")
		assertKind(t, err, domain.ErrNotFound)
	})
}

func TestPromoteAndDemote(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob, carol, dave)
	f.promote(t, alice, wg.ID, bob)

	t.Run("moderator promotes member", func(t *testing.T) {
		_, err := f.memberships.PromoteMember(f.ctx, bob, wg.ID, "carol")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, carol))
	})

	t.Run("promoting a moderator is invalid", func(t *testing.T) {
		_, err := f.memberships.PromoteMember(f.ctx, alice, wg.ID, "carol")
		assertKind(t, err, domain.ErrInvalidState)
	})

	t.Run("member cannot promote", func(t *testing.T) {
		_, err := f.memberships.PromoteMember(f.ctx, dave, wg.ID, "dave")
		assertKind(t, err, domain.ErrForbidden)
	})

	t.Run("moderator cannot demote", func(t *testing.T) {
		_, err := f.memberships.DemoteModerator(f.ctx, bob, wg.ID, "carol")
		assertKind(t, err, domain.ErrForbidden)
		assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, carol))
	})

	t.Run("owner demotes moderator", func(t *testing.T) {
		m, err := f.memberships.DemoteModerator(f.ctx, alice, wg.ID, "carol")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, m.Role)
		assert.Equal(t, domain.RoleMember, f.role(t, wg.ID, carol))
	})

	t.Run("demoting a member is invalid", func(t *testing.T) {
		_, err := f.memberships.DemoteModerator(f.ctx, alice, wg.ID, "dave")
		assertKind(t, err, domain.ErrInvalidState)
	})

	t.Run("demoting the owner is invalid", func(t *testing.T) {
		_, err := f.memberships.DemoteModerator(f.ctx, admin, wg.ID, "alice")
		assertKind(t, err, domain.ErrInvalidState)
		assert.Equal(t, []string{"alice"}, f.owners(t, wg.ID))
	})
}

// alice transfers ownership to bob, an existing moderator.
func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob, carol)
	f.promote(t, alice, wg.ID, bob)

	require.NoError(t, f.memberships.TransferOwnership(f.ctx, alice, wg.ID, "bob"))

	assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, alice))
	assert.Equal(t, domain.RoleOwner, f.role(t, wg.ID, bob))
	assert.Equal(t, []string{"bob"}, f.owners(t, wg.ID))
	assert.Contains(t, f.events.types(), events.OwnershipTransferred)

	t.Run("previous owner lost the right", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, alice, wg.ID, "carol")
		assertKind(t, err, domain.ErrForbidden)
	})

	t.Run("to self", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, bob, wg.ID, "bob")
		assertKind(t, err, domain.ErrBadRequest)
	})

	t.Run("to a non-member", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, bob, wg.ID, "zoe")
		assertKind(t, err, domain.ErrInvalidState)
		assert.Equal(t, []string{"bob"}, f.owners(t, wg.ID))
	})

	t.Run("admin moves ownership of a group they do not own", func(t *testing.T) {
		require.NoError(t, f.memberships.TransferOwnership(f.ctx, admin, wg.ID, "carol"))
		assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, bob))
		assert.Equal(t, []string{"carol"}, f.owners(t, wg.ID))
	})

	t.Run("admin targeting the current owner", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, admin, wg.ID, "carol")
		assertKind(t, err, domain.ErrInvalidState)
	})
}

// A platform admin who is also a member of the group may take ownership
// for themselves; the previous owner becomes a moderator.
func TestTransferOwnership_AdminTakesOwnership(t *testing.T) {
	f := newFixture(t)
	ops := domain.Actor{UserID: "ops", IsAdmin: true}
	wg := f.group(t, alice, ops, bob)

	require.NoError(t, f.memberships.TransferOwnership(f.ctx, ops, wg.ID, "ops"))

	assert.Equal(t, []string{"ops"}, f.owners(t, wg.ID))
	assert.Equal(t, domain.RoleModerator, f.role(t, wg.ID, alice))
	assert.Equal(t, domain.RoleMember, f.role(t, wg.ID, bob))

	t.Run("again is invalid", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, ops, wg.ID, "ops")
		assertKind(t, err, domain.ErrInvalidState)
		assert.Equal(t, []string{"ops"}, f.owners(t, wg.ID))
	})

	t.Run("admin outside the group cannot take it", func(t *testing.T) {
		err := f.memberships.TransferOwnership(f.ctx, admin, wg.ID, admin.UserID)
		assertKind(t, err, domain.ErrInvalidState)
		assert.Equal(t, []string{"ops"}, f.owners(t, wg.ID))
	})
}

// User ids are trimmed the same way by every membership operation, so an id
// accepted by AddMember can be used verbatim afterwards.
func TestMembership_UserIDsAreTrimmed(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fixture, wgID uuid.UUID, userID string) error
		want domain.Role
	}{
		{"promote", func(f *fixture, wgID uuid.UUID, userID string) error {
			_, err := f.memberships.PromoteMember(f.ctx, alice, wgID, userID)
			return err
		}, domain.RoleModerator},
		{"demote", func(f *fixture, wgID uuid.UUID, userID string) error {
			if _, err := f.memberships.PromoteMember(f.ctx, alice, wgID, userID); err != nil {
				return err
			}
			_, err := f.memberships.DemoteModerator(f.ctx, alice, wgID, userID)
			return err
		}, domain.RoleMember},
		{"transfer", func(f *fixture, wgID uuid.UUID, userID string) error {
			return f.memberships.TransferOwnership(f.ctx, alice, wgID, userID)
		}, domain.RoleOwner},
		{"remove", func(f *fixture, wgID uuid.UUID, userID string) error {
			return f.memberships.RemoveMember(f.ctx, alice, wgID, userID)
		}, domain.RoleNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			wg := f.group(t, alice)
			_, err := f.memberships.AddMember(f.ctx, alice, wg.ID, " bob ")
			require.NoError(t, err)
			require.Equal(t, domain.RoleMember, f.role(t, wg.ID, bob))

			require.NoError(t, tc.run(f, wg.ID, " bob "))
			assert.Equal(t, tc.want, f.role(t, wg.ID, bob))
		})
	}

	blank := []struct {
		name string
		run  func(f *fixture, wgID uuid.UUID) error
	}{
		{"add", func(f *fixture, wgID uuid.UUID) error {
			_, err := f.memberships.AddMember(f.ctx, alice, wgID, "  ")
			return err
		}},
		{"promote", func(f *fixture, wgID uuid.UUID) error {
			_, err := f.memberships.PromoteMember(f.ctx, alice, wgID, "  ")
			return err
		}},
		{"demote", func(f *fixture, wgID uuid.UUID) error {
			_, err := f.memberships.DemoteModerator(f.ctx, alice, wgID, "")
			return err
		}},
		{"transfer", func(f *fixture, wgID uuid.UUID) error {
			return f.memberships.TransferOwnership(f.ctx, alice, wgID, " ")
		}},
		{"remove", func(f *fixture, wgID uuid.UUID) error {
			return f.memberships.RemoveMember(f.ctx, alice, wgID, "")
		}},
	}
	for _, tc := range blank {
		t.Run("blank id on "+tc.name, func(t *testing.T) {
			f := newFixture(t)
			wg := f.group(t, alice)
			assertKind(t, tc.run(f, wg.ID), domain.ErrInvalidArgument)
			assert.Equal(t, []string{"alice"}, f.owners(t, wg.ID))
		})
	}
}

func TestRemoveMember(t *testing.T) {
	tests := []struct {
		name   string
		actor  domain.Actor
		target string
		want   error
	}{
		{"owner removes moderator", alice, "bob", nil},
		{"owner removes member", alice, "carol", nil},
		{"moderator removes member", bob, "carol", nil},
		// bob (MODERATOR) cannot remove alice (OWNER).
		{"moderator cannot remove owner", bob, "alice", domain.ErrForbidden},
		{"moderator cannot remove moderator", bob, "erin", domain.ErrForbidden},
		{"member cannot remove", carol, "dave", domain.ErrForbidden},
		{"self removal", bob, "bob", domain.ErrBadRequest},
		{"owner self removal", alice, "alice", domain.ErrBadRequest},
		{"unknown target", alice, "zoe", domain.ErrNotFound},
		{"admin cannot remove owner", admin, "alice", domain.ErrInvalidState},
		{"admin removes moderator", admin, "bob", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			wg := f.group(t, alice, bob, carol, dave, domain.Actor{UserID: "erin"})
			f.promote(t, alice, wg.ID, bob)
			f.promote(t, alice, wg.ID, domain.Actor{UserID: "erin"})

			err := f.memberships.RemoveMember(f.ctx, tc.actor, wg.ID, tc.target)
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, domain.RoleNone, f.role(t, wg.ID, domain.Actor{UserID: tc.target}))
				return
			}
			assertKind(t, err, tc.want)
			assert.Equal(t, []string{"alice"}, f.owners(t, wg.ID))
		})
	}
}

func TestLeaveGroup(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob, carol)

	t.Run("owner cannot leave", func(t *testing.T) {
		err := f.memberships.LeaveGroup(f.ctx, alice, wg.ID)
		assertKind(t, err, domain.ErrBadRequest)
		assert.Equal(t, domain.RoleOwner, f.role(t, wg.ID, alice))
	})

	t.Run("member leaves", func(t *testing.T) {
		require.NoError(t, f.memberships.LeaveGroup(f.ctx, bob, wg.ID))
		assert.Equal(t, domain.RoleNone, f.role(t, wg.ID, bob))
	})

	t.Run("leaving twice fails without touching others", func(t *testing.T) {
		err := f.memberships.LeaveGroup(f.ctx, bob, wg.ID)
		assertKind(t, err, domain.ErrNotFound)
		assert.Equal(t, domain.RoleMember, f.role(t, wg.ID, carol))
		assert.Equal(t, domain.RoleOwner, f.role(t, wg.ID, alice))
	})
}

func TestMembership_ConcurrentTransitionsKeepOneOwner(t *testing.T) {
	f := newFixture(t)
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	wg := f.group(t, alice)
	for _, u := range users {
		_, err := f.memberships.AddMember(f.ctx, alice, wg.ID, u)
		require.NoError(t, err)
	}

	var done sync.WaitGroup
	for _, u := range users {
		done.Add(2)
		go func(u string) {
			defer done.Done()
			_ = f.memberships.TransferOwnership(f.ctx, alice, wg.ID, u)
		}(u)
		go func(u string) {
			defer done.Done()
			_, _ = f.memberships.PromoteMember(f.ctx, admin, wg.ID, u)
		}(u)
	}
	done.Wait()

	assert.Len(t, f.owners(t, wg.ID), 1)
}
