// Package memory implements every internal/store interface in process
// memory. It backs the "memory" storage driver and the service tests.
//
// A single mutex serializes all access. WithinTx holds it for the whole
// callback, snapshots the state first and restores the snapshot when the
// callback fails, so transactions are atomic and isolated. Stores obtained
// from Stores() must not be used inside a WithinTx callback of the same
// Backend; use the Stores passed to the callback instead.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

type memberKey struct {
	workGroupID uuid.UUID
	userID      string
}

type projectRow struct {
	project domain.Project
	seq     uint64
}

type state struct {
	workGroups  map[uuid.UUID]domain.WorkGroup
	memberships map[memberKey]domain.Membership
	projects    map[uuid.UUID]projectRow
	tasks       map[uuid.UUID]domain.Task
	statuses    map[uuid.UUID]domain.TaskStatus
	priorities  map[uuid.UUID]domain.TaskPriority
	seq         uint64
}

func newState() *state {
	return &state{
		workGroups:  map[uuid.UUID]domain.WorkGroup{},
		memberships: map[memberKey]domain.Membership{},
		projects:    map[uuid.UUID]projectRow{},
		tasks:       map[uuid.UUID]domain.Task{},
		statuses:    map[uuid.UUID]domain.TaskStatus{},
		priorities:  map[uuid.UUID]domain.TaskPriority{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.workGroups {
		c.workGroups[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.projects {
		v.project = copyProject(v.project)
		c.projects[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range s.statuses {
		c.statuses[k] = v
	}
	for k, v := range s.priorities {
		c.priorities[k] = v
	}
	return c
}

// Backend owns the in-memory state.
type Backend struct {
	mu     sync.Mutex
	st     *state
	logger *slog.Logger
}

// NewBackend returns an empty Backend.
func NewBackend(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		st:     newState(),
		logger: log.With(slog.String("component", "memory_store")),
	}
}

// Stores returns stores that lock the backend per call.
func (b *Backend) Stores() store.Stores {
	return b.stores(false)
}

func (b *Backend) stores(inTx bool) store.Stores {
	return store.Stores{
		WorkGroups:  &workGroupStore{b: b, inTx: inTx},
		Memberships: &membershipStore{b: b, inTx: inTx},
		Projects:    &projectStore{b: b, inTx: inTx},
		Tasks:       &taskStore{b: b, inTx: inTx},
		Statuses:    &statusStore{b: b, inTx: inTx},
		Priorities:  &priorityStore{b: b, inTx: inTx},
	}
}

var _ store.Transactor = (*Backend)(nil)

// WithinTx implements store.Transactor.
func (b *Backend) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.st.clone()
	defer func() {
		if p := recover(); p != nil {
			b.st = snapshot
			panic(p)
		}
		if err != nil {
			b.st = snapshot
			b.logger.Debug("rolled back transaction due to error", slog.String("error", err.Error()))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, b.stores(true))
}

// with runs fn against the current state, taking the lock unless the caller
// is already inside WithinTx.
func (b *Backend) with(inTx bool, fn func(st *state) error) error {
	if !inTx {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	return fn(b.st)
}

func copyTask(t domain.Task) domain.Task {
	t.AssignedMembers = append([]string{}, t.AssignedMembers...)
	if t.ProjectID != nil {
		id := *t.ProjectID
		t.ProjectID = &id
	}
	if t.PriorityID != nil {
		id := *t.PriorityID
		t.PriorityID = &id
	}
	return t
}

func copyProject(p domain.Project) domain.Project {
	p.Members = append([]string{}, p.Members...)
	return p
}

func sortTasks(ts []*domain.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreateTime.Equal(ts[j].CreateTime) {
			return ts[i].CreateTime.Before(ts[j].CreateTime)
		}
		return ts[i].ID.String() < ts[j].ID.String()
	})
}
