package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/api"
	"github.com/dcmc-apps/taskmanager/internal/catalog"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/platform/memory"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/dcmc-apps/taskmanager/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// Bearer tokens accepted by the test resolver.
const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
	carolToken = "carol-token"
	adminToken = "admin-token"
)

type testServer struct {
	handler http.Handler
	backend *memory.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := memory.NewBackend(logger)
	st := backend.Stores()

	seed, err := catalog.Default()
	require.NoError(t, err)
	_, err = catalog.EnsureSeed(context.Background(), st.Statuses, st.Priorities, seed, logger)
	require.NoError(t, err)

	emitter := events.NewBus(logger)
	memberships, err := service.NewMembershipService(backend, emitter, logger)
	require.NoError(t, err)
	workGroups, err := service.NewWorkGroupService(backend, emitter, logger)
	require.NoError(t, err)
	tasks, err := service.NewTaskService(backend, emitter, logger)
	require.NoError(t, err)
	projects, err := service.NewProjectService(backend, emitter, logger)
	require.NoError(t, err)
	catalogService, err := service.NewCatalogService(st.Statuses, st.Priorities, emitter, logger)
	require.NoError(t, err)

	resolver := &auth.MockIdentityResolver{Actors: map[string]domain.Actor{
		aliceToken: {UserID: "alice"},
		bobToken:   {UserID: "bob"},
		carolToken: {UserID: "carol"},
		adminToken: {UserID: "root", IsAdmin: true},
	}}

	return &testServer{
		backend: backend,
		handler: api.NewRouter(api.RouterConfig{
			Logger:      logger,
			Resolver:    resolver,
			WorkGroups:  workGroups,
			Memberships: memberships,
			Tasks:       tasks,
			Projects:    projects,
			Catalog:     catalogService,
		}),
	}
}

// do sends a request with an optional JSON body and bearer token.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createGroup creates a work group owned by the token holder and adds members.
func (s *testServer) createGroup(t *testing.T, token string, members ...string) api.WorkGroupResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/work-groups", token, api.WorkGroupRequest{Name: "Team"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wg := decode[api.WorkGroupResponse](t, rec)
	for _, m := range members {
		rec := s.do(t, http.MethodPost, "/api/work-groups/"+wg.ID+"/members/"+m, token, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return wg
}

func (s *testServer) createTask(t *testing.T, token, workGroupID, title string) api.TaskResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/tasks", token, api.CreateTaskRequest{WorkGroupID: workGroupID, Title: title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.TaskResponse](t, rec)
}

func (s *testServer) statusID(t *testing.T, name string) string {
	t.Helper()
	status, err := s.backend.Stores().Statuses.GetByName(context.Background(), name)
	require.NoError(t, err)
	return status.ID.String()
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}
