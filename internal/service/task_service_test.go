package service_test

import (
	"testing"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)

	t.Run("defaults", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		task, err := f.tasks.CreateTask(f.ctx, bob, service.CreateTaskInput{
			WorkGroupID:     wg.ID,
			Title:           "Write docs",
			AssignedMembers: []string{"bob", "alice", "bob"},
		})
		require.NoError(t, err)

		assert.Equal(t, f.statusID(t, domain.StatusNotStarted), task.StatusID)
		assert.False(t, task.Archived)
		assert.Nil(t, task.ProjectID)
		assert.Nil(t, task.PriorityID)
		assert.Equal(t, []string{"alice", "bob"}, task.AssignedMembers)
		assert.True(t, task.CreateTime.After(before))
		assert.True(t, task.UpdateTime.After(before))
	})

	t.Run("explicit create time and priority", func(t *testing.T) {
		created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		high := f.priorityID(t, "HIGH")
		task, err := f.tasks.CreateTask(f.ctx, alice, service.CreateTaskInput{
			WorkGroupID: wg.ID,
			Title:       "Ship",
			PriorityID:  &high,
			CreateTime:  &created,
		})
		require.NoError(t, err)
		assert.Equal(t, created, task.CreateTime)
		assert.True(t, task.UpdateTime.After(created))
		require.NotNil(t, task.PriorityID)
		assert.Equal(t, high, *task.PriorityID)
	})

	t.Run("rejections", func(t *testing.T) {
		unknown := uuid.New()
		tests := []struct {
			name  string
			actor domain.Actor
			input service.CreateTaskInput
			want  error
		}{
			{"outsider", carol, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "x"}, domain.ErrForbidden},
			{"unknown group", alice, service.CreateTaskInput{WorkGroupID: uuid.New(), Title: "x"}, domain.ErrNotFound},
			{"empty title", alice, service.CreateTaskInput{WorkGroupID: wg.ID, Title: " "}, domain.ErrInvalidArgument},
			{"unknown status", alice, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "x", StatusID: &unknown}, domain.ErrInvalidArgument},
			{"unknown priority", alice, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "x", PriorityID: &unknown}, domain.ErrInvalidArgument},
			{"assignee outside group", alice, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "x", AssignedMembers: []string{"carol"}}, domain.ErrInvalidArgument},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.tasks.CreateTask(f.ctx, tc.actor, tc.input)
				assertKind(t, err, tc.want)
			})
		}
	})

	t.Run("admin creates in any group", func(t *testing.T) {
		_, err := f.tasks.CreateTask(f.ctx, admin, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "audit"})
		require.NoError(t, err)
	})
}

func TestCreateTask_MissingDefaultStatus(t *testing.T) {
	f := newUnseededFixture(t)
	wg := f.group(t, alice)

	_, err := f.tasks.CreateTask(f.ctx, alice, service.CreateTaskInput{WorkGroupID: wg.ID, Title: "x"})
	assertKind(t, err, domain.ErrInvalidState)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)
	task := f.task(t, alice, wg.ID, domain.StatusInProgress)
	low := f.priorityID(t, "LOW")

	updated, err := f.tasks.UpdateTask(f.ctx, bob, task.ID, service.UpdateTaskInput{
		Title:           "Renamed",
		Description:     "now with text",
		PriorityID:      &low,
		AssignedMembers: []string{"bob"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "now with text", updated.Description)
	assert.Equal(t, f.statusID(t, domain.StatusNotStarted), updated.StatusID)
	assert.Equal(t, []string{"bob"}, updated.AssignedMembers)
	assert.True(t, task.CreateTime.Equal(updated.CreateTime))
	assert.False(t, updated.UpdateTime.Before(task.UpdateTime))

	stored, err := f.tasks.GetTask(f.ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)

	t.Run("not found", func(t *testing.T) {
		_, err := f.tasks.UpdateTask(f.ctx, alice, uuid.New(), service.UpdateTaskInput{Title: "x"})
		assertKind(t, err, domain.ErrNotFound)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := f.tasks.UpdateTask(f.ctx, carol, task.ID, service.UpdateTaskInput{Title: "x"})
		assertKind(t, err, domain.ErrForbidden)
	})
}

func TestPartialUpdateTask(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)
	high := f.priorityID(t, "HIGH")
	task, err := f.tasks.CreateTask(f.ctx, alice, service.CreateTaskInput{
		WorkGroupID: wg.ID,
		Title:       "Original",
		Description: "keep me",
		PriorityID:  &high,
	})
	require.NoError(t, err)

	title := "Changed"
	done := f.statusID(t, domain.StatusDone)
	updated, err := f.tasks.PartialUpdateTask(f.ctx, bob, task.ID, service.PartialUpdateTaskInput{
		Title:    &title,
		StatusID: &done,
	})
	require.NoError(t, err)

	assert.Equal(t, "Changed", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, done, updated.StatusID)
	require.NotNil(t, updated.PriorityID)
	assert.Equal(t, high, *updated.PriorityID)

	t.Run("assignees must be members", func(t *testing.T) {
		members := []string{"mallory"}
		_, err := f.tasks.PartialUpdateTask(f.ctx, bob, task.ID, service.PartialUpdateTaskInput{AssignedMembers: &members})
		assertKind(t, err, domain.ErrInvalidArgument)
	})
}

// A DONE task archived by a moderator can no longer be edited, only deleted.
func TestArchivedTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)
	f.promote(t, alice, wg.ID, bob)
	task := f.task(t, alice, wg.ID, domain.StatusDone)

	archived, err := f.tasks.ArchiveTask(f.ctx, bob, task.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	_, err = f.tasks.UpdateTask(f.ctx, bob, task.ID, service.UpdateTaskInput{Title: "edit"})
	assertKind(t, err, domain.ErrInvalidState)

	title := "edit"
	_, err = f.tasks.PartialUpdateTask(f.ctx, alice, task.ID, service.PartialUpdateTaskInput{Title: &title})
	assertKind(t, err, domain.ErrInvalidState)

	_, err = f.tasks.ArchiveTask(f.ctx, bob, task.ID)
	assertKind(t, err, domain.ErrInvalidState)

	archivedOnly, err := f.tasks.ListTasks(f.ctx, alice, wg.ID, store.ArchivedOnly)
	require.NoError(t, err)
	require.Len(t, archivedOnly, 1)
	assert.Equal(t, task.ID, archivedOnly[0].ID)

	require.NoError(t, f.tasks.DeleteArchivedTask(f.ctx, bob, task.ID))
	_, err = f.tasks.GetTask(f.ctx, alice, task.ID)
	assertKind(t, err, domain.ErrNotFound)

	assert.Subset(t, f.events.types(), []string{events.TaskArchived, events.TaskDeleted})
}

// Membership is checked before the archived state: outsiders learn nothing
// about a task they cannot see, members are told it is archived.
func TestEditArchivedTask_AuthorizationFirst(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)
	task := f.task(t, alice, wg.ID, domain.StatusDone)
	_, err := f.tasks.ArchiveTask(f.ctx, alice, task.ID)
	require.NoError(t, err)

	title := "edit"
	tests := []struct {
		name  string
		actor domain.Actor
		want  error
	}{
		{"outsider", carol, domain.ErrForbidden},
		{"member", bob, domain.ErrInvalidState},
		{"owner", alice, domain.ErrInvalidState},
		{"admin", admin, domain.ErrInvalidState},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tasks.UpdateTask(f.ctx, tc.actor, task.ID, service.UpdateTaskInput{Title: title})
			assertKind(t, err, tc.want)

			_, err = f.tasks.PartialUpdateTask(f.ctx, tc.actor, task.ID, service.PartialUpdateTaskInput{Title: &title})
			assertKind(t, err, tc.want)
		})
	}
}

func TestArchiveTask_Rejections(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob)
	inProgress := f.task(t, alice, wg.ID, domain.StatusInProgress)
	done := f.task(t, alice, wg.ID, domain.StatusDone)

	t.Run("only DONE tasks", func(t *testing.T) {
		_, err := f.tasks.ArchiveTask(f.ctx, alice, inProgress.ID)
		assertKind(t, err, domain.ErrInvalidState)
		assert.Contains(t, err.Error(), "Only DONE tasks can be archived")
	})

	t.Run("member lacks role", func(t *testing.T) {
		_, err := f.tasks.ArchiveTask(f.ctx, bob, done.ID)
		assertKind(t, err, domain.ErrForbidden)
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := f.tasks.ArchiveTask(f.ctx, alice, uuid.New())
		assertKind(t, err, domain.ErrNotFound)
	})

	t.Run("admin archives", func(t *testing.T) {
		task, err := f.tasks.ArchiveTask(f.ctx, admin, done.ID)
		require.NoError(t, err)
		assert.True(t, task.Archived)
	})
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice, bob, carol)
	f.promote(t, alice, wg.ID, bob)
	active := f.task(t, carol, wg.ID, domain.StatusInProgress)

	t.Run("archived path requires an archived task", func(t *testing.T) {
		err := f.tasks.DeleteArchivedTask(f.ctx, bob, active.ID)
		assertKind(t, err, domain.ErrInvalidState)
	})

	t.Run("member cannot delete", func(t *testing.T) {
		err := f.tasks.DeleteTask(f.ctx, carol, active.ID)
		assertKind(t, err, domain.ErrForbidden)
	})

	t.Run("moderator deletes active task", func(t *testing.T) {
		require.NoError(t, f.tasks.DeleteTask(f.ctx, bob, active.ID))
		_, err := f.tasks.GetTask(f.ctx, bob, active.ID)
		assertKind(t, err, domain.ErrNotFound)
	})

	t.Run("missing task", func(t *testing.T) {
		err := f.tasks.DeleteTask(f.ctx, alice, uuid.New())
		assertKind(t, err, domain.ErrNotFound)
	})
}

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	wg := f.group(t, alice)
	other := f.group(t, bob)
	a := f.task(t, alice, wg.ID, domain.StatusDone)
	f.task(t, alice, wg.ID, domain.StatusNotStarted)
	f.task(t, bob, other.ID, domain.StatusNotStarted)
	_, err := f.tasks.ArchiveTask(f.ctx, alice, a.ID)
	require.NoError(t, err)

	active, err := f.tasks.ListTasks(f.ctx, alice, wg.ID, store.ActiveOnly)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := f.tasks.ListTasks(f.ctx, alice, wg.ID, store.AllTasks)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.tasks.ListTasks(f.ctx, bob, wg.ID, store.AllTasks)
	assertKind(t, err, domain.ErrForbidden)

	_, err = f.tasks.GetTask(f.ctx, bob, a.ID)
	assertKind(t, err, domain.ErrForbidden)
}
