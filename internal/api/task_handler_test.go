package api_test

import (
	"net/http"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken, "bob")

	t.Run("defaults to NOT_STARTED", func(t *testing.T) {
		task := s.createTask(t, bobToken, wg.ID, "Write report")
		assert.Equal(t, s.statusID(t, "NOT_STARTED"), task.StatusID)
		assert.Nil(t, task.PriorityID)
		assert.Nil(t, task.ProjectID)
		assert.Empty(t, task.AssignedMembers)
		assert.False(t, task.Archived)
	})

	t.Run("assignees must be members", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/tasks", aliceToken, api.CreateTaskRequest{
			WorkGroupID:     wg.ID,
			Title:           "x",
			AssignedMembers: []string{"bob", "mallory"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non member is forbidden", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/tasks", carolToken, api.CreateTaskRequest{WorkGroupID: wg.ID, Title: "x"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown group", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/tasks", aliceToken, api.CreateTaskRequest{WorkGroupID: uuid.NewString(), Title: "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid status id", func(t *testing.T) {
		bad := "not-a-uuid"
		rec := s.do(t, http.MethodPost, "/api/tasks", aliceToken, api.CreateTaskRequest{WorkGroupID: wg.ID, Title: "x", StatusID: &bad})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskArchiveFlow(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken, "bob")
	task := s.createTask(t, bobToken, wg.ID, "Ship it")
	taskPath := "/api/tasks/" + task.ID

	rec := s.do(t, http.MethodPost, taskPath+"/archive", aliceToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Only DONE tasks can be archived", errorMessage(t, rec))

	done := s.statusID(t, "DONE")
	rec = s.do(t, http.MethodPatch, taskPath, bobToken, api.PatchTaskRequest{StatusID: &done})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, taskPath+"/archive", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "members cannot archive")

	rec = s.do(t, http.MethodPost, taskPath+"/archive", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[api.TaskResponse](t, rec).Archived)

	title := "changed"
	rec = s.do(t, http.MethodPatch, taskPath, aliceToken, api.PatchTaskRequest{Title: &title})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "archived tasks are read-only")

	rec = s.do(t, http.MethodGet, "/api/work-groups/"+wg.ID+"/tasks", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.TaskResponse](t, rec))

	rec = s.do(t, http.MethodGet, "/api/work-groups/"+wg.ID+"/tasks?archived=true", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	archived := decode[[]api.TaskResponse](t, rec)
	require.Len(t, archived, 1)
	assert.Equal(t, task.ID, archived[0].ID)

	rec = s.do(t, http.MethodDelete, taskPath+"/archived", aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, taskPath, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteArchivedRequiresArchivedTask(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken)
	task := s.createTask(t, aliceToken, wg.ID, "Active")

	rec := s.do(t, http.MethodDelete, "/api/tasks/"+task.ID+"/archived", aliceToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken, "bob")
	task := s.createTask(t, aliceToken, wg.ID, "Draft")
	inProgress := s.statusID(t, "IN_PROGRESS")

	rec := s.do(t, http.MethodPut, "/api/tasks/"+task.ID, bobToken, api.UpdateTaskRequest{
		Title:           "Final",
		Description:     "all fields replaced",
		StatusID:        &inProgress,
		AssignedMembers: []string{"bob", "alice", "bob"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[api.TaskResponse](t, rec)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, inProgress, updated.StatusID)
	assert.Equal(t, []string{"alice", "bob"}, updated.AssignedMembers)

	rec = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, carolToken, api.UpdateTaskRequest{Title: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListTasksFilter(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken)
	s.createTask(t, aliceToken, wg.ID, "one")
	s.createTask(t, aliceToken, wg.ID, "two")

	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"", http.StatusOK, 2},
		{"?archived=false", http.StatusOK, 2},
		{"?archived=true", http.StatusOK, 0},
		{"?archived=all", http.StatusOK, 2},
		{"?archived=maybe", http.StatusBadRequest, 0},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/work-groups/"+wg.ID+"/tasks"+tc.query, aliceToken, nil)
			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Len(t, decode[[]api.TaskResponse](t, rec), tc.count)
			}
		})
	}
}
