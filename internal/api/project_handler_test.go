package api_test

import (
	"net/http"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) createProject(t *testing.T, token, workGroupID string, members ...string) api.ProjectResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/projects", token, api.CreateProjectRequest{
		WorkGroupID: workGroupID,
		Title:       "Launch",
		Members:     members,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.ProjectResponse](t, rec)
}

func TestProjectTaskBinding(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken, "bob")
	project := s.createProject(t, aliceToken, wg.ID, "bob")
	assert.Equal(t, []string{"bob"}, project.Members)

	first := s.createTask(t, bobToken, wg.ID, "first")
	second := s.createTask(t, bobToken, wg.ID, "second")
	projectPath := "/api/projects/" + project.ID

	t.Run("members cannot assign", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, projectPath+"/tasks", bobToken, api.AssignTasksRequest{TaskIDs: []string{first.ID}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner assigns", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, projectPath+"/tasks", aliceToken, api.AssignTasksRequest{TaskIDs: []string{first.ID, second.ID}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		tasks := decode[[]api.TaskResponse](t, rec)
		require.Len(t, tasks, 2)
		for _, task := range tasks {
			require.NotNil(t, task.ProjectID)
			assert.Equal(t, project.ID, *task.ProjectID)
		}
	})

	t.Run("summaries resolve catalog names", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, projectPath+"/task-summaries", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		summaries := decode[[]api.TaskSummaryResponse](t, rec)
		require.Len(t, summaries, 2)
		for _, sum := range summaries {
			assert.Equal(t, "NOT_STARTED", sum.Status)
		}
	})

	t.Run("remove task", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, projectPath+"/tasks/"+first.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[api.TaskResponse](t, rec).ProjectID)

		rec = s.do(t, http.MethodDelete, projectPath+"/tasks/"+first.ID, aliceToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "task is no longer linked")

		rec = s.do(t, http.MethodGet, projectPath+"/tasks", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		tasks := decode[[]api.TaskResponse](t, rec)
		require.Len(t, tasks, 1)
		assert.Equal(t, second.ID, tasks[0].ID)
	})
}

func TestAssignTaskFromAnotherGroup(t *testing.T) {
	s := newTestServer(t)
	wg1 := s.createGroup(t, aliceToken)
	wg2 := s.createGroup(t, aliceToken)
	project := s.createProject(t, aliceToken, wg1.ID)
	foreign := s.createTask(t, aliceToken, wg2.ID, "elsewhere")

	rec := s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", aliceToken,
		api.AssignTasksRequest{TaskIDs: []string{foreign.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tasks/"+foreign.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[api.TaskResponse](t, rec).ProjectID)
}

func TestProjectMembersAndCRUD(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken, "bob", "carol")
	project := s.createProject(t, aliceToken, wg.ID)
	projectPath := "/api/projects/" + project.ID

	rec := s.do(t, http.MethodPut, projectPath+"/members", aliceToken, api.ProjectMembersRequest{Members: []string{"carol", "bob"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"bob", "carol"}, decode[api.ProjectResponse](t, rec).Members)

	rec = s.do(t, http.MethodPut, projectPath+"/members", aliceToken, api.ProjectMembersRequest{Members: []string{"mallory"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, projectPath, aliceToken, api.UpdateProjectRequest{Title: "Relaunch"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Relaunch", decode[api.ProjectResponse](t, rec).Title)

	rec = s.do(t, http.MethodGet, "/api/work-groups/"+wg.ID+"/projects", carolToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ProjectResponse](t, rec), 1)

	rec = s.do(t, http.MethodDelete, projectPath, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, projectPath, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, projectPath, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignTasksValidation(t *testing.T) {
	s := newTestServer(t)
	wg := s.createGroup(t, aliceToken)
	project := s.createProject(t, aliceToken, wg.ID)

	rec := s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", aliceToken, api.AssignTasksRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", aliceToken, api.AssignTasksRequest{TaskIDs: []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
