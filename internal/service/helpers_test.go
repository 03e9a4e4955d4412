package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/catalog"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/platform/memory"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Actor{UserID: "alice"}
	bob   = domain.Actor{UserID: "bob"}
	carol = domain.Actor{UserID: "carol"}
	dave  = domain.Actor{UserID: "dave"}
	admin = domain.Actor{UserID: "root", IsAdmin: true}
)

// recorder collects every emitted event.
type recorder struct {
	mu     sync.Mutex
	events []*events.DomainEvent
}

func (r *recorder) HandleEvent(_ context.Context, e *events.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	ctx         context.Context
	backend     *memory.Backend
	events      *recorder
	memberships service.MembershipService
	workGroups  service.WorkGroupService
	tasks       service.TaskService
	projects    service.ProjectService
	catalog     service.CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newUnseededFixture(t)
	seed, err := catalog.Default()
	require.NoError(t, err)
	st := f.backend.Stores()
	_, err = catalog.EnsureSeed(f.ctx, st.Statuses, st.Priorities, seed, nil)
	require.NoError(t, err)
	return f
}

// newUnseededFixture returns a fixture whose task catalog is empty.
func newUnseededFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := memory.NewBackend(logger)
	rec := &recorder{}
	emitter := events.NewBus(logger)
	emitter.Subscribe(rec)

	f := &fixture{ctx: context.Background(), backend: backend, events: rec}
	var err error
	f.memberships, err = service.NewMembershipService(backend, emitter, logger)
	require.NoError(t, err)
	f.workGroups, err = service.NewWorkGroupService(backend, emitter, logger)
	require.NoError(t, err)
	f.tasks, err = service.NewTaskService(backend, emitter, logger)
	require.NoError(t, err)
	f.projects, err = service.NewProjectService(backend, emitter, logger)
	require.NoError(t, err)
	st := backend.Stores()
	f.catalog, err = service.NewCatalogService(st.Statuses, st.Priorities, emitter, logger)
	require.NoError(t, err)
	return f
}

// group creates a work group owned by owner with the given extra members.
func (f *fixture) group(t *testing.T, owner domain.Actor, members ...domain.Actor) *domain.WorkGroup {
	t.Helper()
	wg, err := f.memberships.CreateWorkGroup(f.ctx, owner, service.CreateWorkGroupInput{Name: "Team " + uuid.NewString()[:8]})
	require.NoError(t, err)
	for _, m := range members {
		_, err := f.memberships.AddMember(f.ctx, owner, wg.ID, m.UserID)
		require.NoError(t, err)
	}
	return wg
}

func (f *fixture) promote(t *testing.T, by domain.Actor, wgID uuid.UUID, user domain.Actor) {
	t.Helper()
	_, err := f.memberships.PromoteMember(f.ctx, by, wgID, user.UserID)
	require.NoError(t, err)
}

// role returns the stored role of user, or RoleNone.
func (f *fixture) role(t *testing.T, wgID uuid.UUID, user domain.Actor) domain.Role {
	t.Helper()
	m, err := f.backend.Stores().Memberships.Get(f.ctx, wgID, user.UserID)
	if err != nil {
		return domain.RoleNone
	}
	return m.Role
}

func (f *fixture) owners(t *testing.T, wgID uuid.UUID) []string {
	t.Helper()
	members, err := f.backend.Stores().Memberships.ListByWorkGroup(f.ctx, wgID)
	require.NoError(t, err)
	var out []string
	for _, m := range members {
		if m.Role == domain.RoleOwner {
			out = append(out, m.UserID)
		}
	}
	return out
}

func (f *fixture) statusID(t *testing.T, name string) uuid.UUID {
	t.Helper()
	s, err := f.backend.Stores().Statuses.GetByName(f.ctx, name)
	require.NoError(t, err)
	return s.ID
}

func (f *fixture) priorityID(t *testing.T, name string) uuid.UUID {
	t.Helper()
	p, err := f.backend.Stores().Priorities.GetByName(f.ctx, name)
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) task(t *testing.T, by domain.Actor, wgID uuid.UUID, status string) *domain.Task {
	t.Helper()
	id := f.statusID(t, status)
	task, err := f.tasks.CreateTask(f.ctx, by, service.CreateTaskInput{
		WorkGroupID: wgID,
		Title:       "Task " + uuid.NewString()[:8],
		StatusID:    &id,
	})
	require.NoError(t, err)
	return task
}

// assertKind checks that err is a *service.Error of the given domain kind.
func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var se *service.Error
	assert.True(t, errors.As(err, &se), "expected *service.Error, got %T", err)
}
