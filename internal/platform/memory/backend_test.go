package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/memory"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, s store.Stores, owner string) *domain.WorkGroup {
	t.Helper()
	ctx := context.Background()
	wg, err := domain.NewWorkGroup("Team "+owner, "")
	require.NoError(t, err)
	require.NoError(t, s.WorkGroups.Create(ctx, wg))
	m, err := domain.NewMembership(wg.ID, owner, domain.RoleOwner)
	require.NoError(t, err)
	require.NoError(t, s.Memberships.Create(ctx, m))
	return wg
}

func seedTask(t *testing.T, s store.Stores, wgID uuid.UUID, statusID uuid.UUID) *domain.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &domain.Task{
		ID:              uuid.New(),
		WorkGroupID:     wgID,
		Title:           "task",
		StatusID:        statusID,
		AssignedMembers: []string{},
		CreateTime:      now,
		UpdateTime:      now,
	}
	require.NoError(t, s.Tasks.Create(context.Background(), task))
	return task
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	b := memory.NewBackend(nil)
	s := b.Stores()
	wg := seedGroup(t, s, "alice")
	ctx := context.Background()

	boom := errors.New("boom")
	err := b.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		m, err := domain.NewMembership(wg.ID, "bob", domain.RoleMember)
		require.NoError(t, err)
		require.NoError(t, tx.Memberships.Create(ctx, m))
		require.NoError(t, tx.Memberships.UpdateRole(ctx, wg.ID, "alice", domain.RoleModerator))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = s.Memberships.Get(ctx, wg.ID, "bob")
	assert.ErrorIs(t, err, store.ErrMembershipNotFound)
	alice, err := s.Memberships.Get(ctx, wg.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, alice.Role)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	b := memory.NewBackend(nil)
	s := b.Stores()
	wg := seedGroup(t, s, "alice")
	ctx := context.Background()

	err := b.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		m, err := domain.NewMembership(wg.ID, "bob", domain.RoleModerator)
		if err != nil {
			return err
		}
		if err := tx.Memberships.Create(ctx, m); err != nil {
			return err
		}
		if err := tx.Memberships.UpdateRole(ctx, wg.ID, "alice", domain.RoleModerator); err != nil {
			return err
		}
		return tx.Memberships.UpdateRole(ctx, wg.ID, "bob", domain.RoleOwner)
	})
	require.NoError(t, err)

	bob, err := s.Memberships.Get(ctx, wg.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, bob.Role)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	b := memory.NewBackend(nil)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = b.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
			wg, _ := domain.NewWorkGroup("doomed", "")
			_ = tx.WorkGroups.Create(ctx, wg)
			panic("boom")
		})
	})

	groups, err := b.Stores().WorkGroups.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestWithinTx_CanceledContext(t *testing.T) {
	b := memory.NewBackend(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMembershipStore_SingleOwner(t *testing.T) {
	b := memory.NewBackend(nil)
	s := b.Stores()
	wg := seedGroup(t, s, "alice")
	ctx := context.Background()

	second, err := domain.NewMembership(wg.ID, "bob", domain.RoleOwner)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Memberships.Create(ctx, second), store.ErrDuplicate)

	member, err := domain.NewMembership(wg.ID, "bob", domain.RoleMember)
	require.NoError(t, err)
	require.NoError(t, s.Memberships.Create(ctx, member))
	assert.ErrorIs(t, s.Memberships.UpdateRole(ctx, wg.ID, "bob", domain.RoleOwner), store.ErrDuplicate)
	assert.ErrorIs(t, s.Memberships.Create(ctx, member), store.ErrMembershipExists)
}

func TestMembershipStore_RequiresGroup(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	m, err := domain.NewMembership(uuid.New(), "bob", domain.RoleMember)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Memberships.Create(context.Background(), m), store.ErrWorkGroupNotFound)
}

func TestWorkGroupStore_DeleteCascades(t *testing.T) {
	b := memory.NewBackend(nil)
	s := b.Stores()
	ctx := context.Background()
	wg := seedGroup(t, s, "alice")
	other := seedGroup(t, s, "zed")

	status, err := domain.NewTaskStatus(domain.StatusNotStarted)
	require.NoError(t, err)
	require.NoError(t, s.Statuses.Create(ctx, status))
	task := seedTask(t, s, wg.ID, status.ID)
	keep := seedTask(t, s, other.ID, status.ID)

	project, err := domain.NewProject(wg.ID, "p", "")
	require.NoError(t, err)
	require.NoError(t, s.Projects.Create(ctx, project))

	require.NoError(t, s.WorkGroups.Delete(ctx, wg.ID))

	_, err = s.Tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	_, err = s.Projects.GetByID(ctx, project.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
	ms, err := s.Memberships.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = s.Tasks.GetByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestProjectStore_DeleteUnlinksTasks(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	ctx := context.Background()
	wg := seedGroup(t, s, "alice")
	status, err := domain.NewTaskStatus(domain.StatusNotStarted)
	require.NoError(t, err)
	require.NoError(t, s.Statuses.Create(ctx, status))

	project, err := domain.NewProject(wg.ID, "p", "")
	require.NoError(t, err)
	require.NoError(t, s.Projects.Create(ctx, project))

	task := seedTask(t, s, wg.ID, status.ID)
	task.ProjectID = &project.ID
	require.NoError(t, s.Tasks.Update(ctx, task))

	linked, err := s.Tasks.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	require.NoError(t, s.Projects.Delete(ctx, project.ID))

	got, err := s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
}

func TestTaskStore_ReturnsCopies(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	ctx := context.Background()
	wg := seedGroup(t, s, "alice")
	status, err := domain.NewTaskStatus(domain.StatusNotStarted)
	require.NoError(t, err)
	require.NoError(t, s.Statuses.Create(ctx, status))
	task := seedTask(t, s, wg.ID, status.ID)

	got, err := s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.AssignedMembers = append(got.AssignedMembers, "mallory")

	again, err := s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "task", again.Title)
	assert.Empty(t, again.AssignedMembers)
}

func TestTaskStore_ListFilters(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	ctx := context.Background()
	wg := seedGroup(t, s, "alice")
	status, err := domain.NewTaskStatus(domain.StatusDone)
	require.NoError(t, err)
	require.NoError(t, s.Statuses.Create(ctx, status))

	active := seedTask(t, s, wg.ID, status.ID)
	archived := seedTask(t, s, wg.ID, status.ID)
	archived.Archived = true
	require.NoError(t, s.Tasks.Update(ctx, archived))

	got, err := s.Tasks.ListByWorkGroup(ctx, wg.ID, store.ActiveOnly)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)

	got, err = s.Tasks.ListByWorkGroup(ctx, wg.ID, store.ArchivedOnly)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, archived.ID, got[0].ID)

	got, err = s.Tasks.ListByWorkGroup(ctx, wg.ID, store.AllTasks)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTaskStore_ForeignKeys(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	wg := seedGroup(t, s, "alice")
	now := time.Now().UTC()

	err := s.Tasks.Create(context.Background(), &domain.Task{
		ID: uuid.New(), WorkGroupID: wg.ID, Title: "x", StatusID: uuid.New(),
		CreateTime: now, UpdateTime: now,
	})

	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestCatalogStores(t *testing.T) {
	s := memory.NewBackend(nil).Stores()
	ctx := context.Background()
	wg := seedGroup(t, s, "alice")

	done, err := domain.NewTaskStatus(domain.StatusDone)
	require.NoError(t, err)
	require.NoError(t, s.Statuses.Create(ctx, done))
	dupe, err := domain.NewTaskStatus(domain.StatusDone)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Statuses.Create(ctx, dupe), store.ErrNameExists)

	byName, err := s.Statuses.GetByName(ctx, domain.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, done.ID, byName.ID)

	high, err := domain.NewTaskPriority("HIGH", 3)
	require.NoError(t, err)
	low, err := domain.NewTaskPriority("LOW", 1)
	require.NoError(t, err)
	require.NoError(t, s.Priorities.Create(ctx, high))
	require.NoError(t, s.Priorities.Create(ctx, low))

	low.Visible = false
	require.NoError(t, s.Priorities.Update(ctx, low))

	all, err := s.Priorities.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "LOW", all[0].Name)

	visible, err := s.Priorities.ListVisible(ctx)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "HIGH", visible[0].Name)

	task := seedTask(t, s, wg.ID, done.ID)
	task.PriorityID = &high.ID
	require.NoError(t, s.Tasks.Update(ctx, task))

	assert.ErrorIs(t, s.Statuses.Delete(ctx, done.ID), store.ErrReferenced)
	assert.ErrorIs(t, s.Priorities.Delete(ctx, high.ID), store.ErrReferenced)
	assert.NoError(t, s.Priorities.Delete(ctx, low.ID))
	assert.ErrorIs(t, s.Priorities.Delete(ctx, low.ID), store.ErrPriorityNotFound)
}

func TestConcurrentTransactionsAreSerialized(t *testing.T) {
	b := memory.NewBackend(nil)
	wg := seedGroup(t, b.Stores(), "alice")
	ctx := context.Background()

	const workers = 20
	var wgDone sync.WaitGroup
	for i := 0; i < workers; i++ {
		wgDone.Add(1)
		go func(i int) {
			defer wgDone.Done()
			_ = b.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
				m, err := domain.NewMembership(wg.ID, uuid.NewString(), domain.RoleMember)
				if err != nil {
					return err
				}
				return tx.Memberships.Create(ctx, m)
			})
		}(i)
	}
	wgDone.Wait()

	ms, err := b.Stores().Memberships.ListByWorkGroup(ctx, wg.ID)
	require.NoError(t, err)
	assert.Len(t, ms, workers+1)
}
