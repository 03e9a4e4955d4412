package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

type workGroupStore struct {
	b    *Backend
	inTx bool
}

func (s *workGroupStore) Create(_ context.Context, wg *domain.WorkGroup) error {
	if err := wg.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.workGroups[wg.ID]; ok {
			return store.ErrDuplicate
		}
		st.workGroups[wg.ID] = *wg
		return nil
	})
}

func (s *workGroupStore) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkGroup, error) {
	var out *domain.WorkGroup
	err := s.b.with(s.inTx, func(st *state) error {
		wg, ok := st.workGroups[id]
		if !ok {
			return store.ErrWorkGroupNotFound
		}
		out = &wg
		return nil
	})
	return out, err
}

// LockByID is GetByID; the backend mutex already serializes transactions.
func (s *workGroupStore) LockByID(ctx context.Context, id uuid.UUID) (*domain.WorkGroup, error) {
	return s.GetByID(ctx, id)
}

func (s *workGroupStore) Update(_ context.Context, wg *domain.WorkGroup) error {
	if err := wg.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.workGroups[wg.ID]; !ok {
			return store.ErrWorkGroupNotFound
		}
		st.workGroups[wg.ID] = *wg
		return nil
	})
}

func (s *workGroupStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.workGroups[id]; !ok {
			return store.ErrWorkGroupNotFound
		}
		delete(st.workGroups, id)
		for k := range st.memberships {
			if k.workGroupID == id {
				delete(st.memberships, k)
			}
		}
		for k, p := range st.projects {
			if p.project.WorkGroupID == id {
				delete(st.projects, k)
			}
		}
		for k, t := range st.tasks {
			if t.WorkGroupID == id {
				delete(st.tasks, k)
			}
		}
		return nil
	})
}

func (s *workGroupStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.WorkGroup, error) {
	out := make([]*domain.WorkGroup, 0, len(ids))
	err := s.b.with(s.inTx, func(st *state) error {
		seen := map[uuid.UUID]bool{}
		for _, id := range ids {
			if wg, ok := st.workGroups[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, &wg)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

type membershipStore struct {
	b    *Backend
	inTx bool
}

var errOwnerExists = fmt.Errorf("%w: work group already has an owner", store.ErrDuplicate)

func hasOtherOwner(st *state, workGroupID uuid.UUID, userID string) bool {
	for k, m := range st.memberships {
		if k.workGroupID == workGroupID && k.userID != userID && m.Role == domain.RoleOwner {
			return true
		}
	}
	return false
}

func (s *membershipStore) Create(_ context.Context, m *domain.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.workGroups[m.WorkGroupID]; !ok {
			return store.ErrWorkGroupNotFound
		}
		key := memberKey{m.WorkGroupID, m.UserID}
		if _, ok := st.memberships[key]; ok {
			return store.ErrMembershipExists
		}
		if m.Role == domain.RoleOwner && hasOtherOwner(st, m.WorkGroupID, m.UserID) {
			return errOwnerExists
		}
		st.memberships[key] = *m
		return nil
	})
}

func (s *membershipStore) Get(_ context.Context, workGroupID uuid.UUID, userID string) (*domain.Membership, error) {
	var out *domain.Membership
	err := s.b.with(s.inTx, func(st *state) error {
		m, ok := st.memberships[memberKey{workGroupID, userID}]
		if !ok {
			return store.ErrMembershipNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (s *membershipStore) UpdateRole(_ context.Context, workGroupID uuid.UUID, userID string, role domain.Role) error {
	if !role.IsValid() {
		return domain.NewValidationError("role", "must be OWNER, MODERATOR or MEMBER")
	}
	return s.b.with(s.inTx, func(st *state) error {
		key := memberKey{workGroupID, userID}
		m, ok := st.memberships[key]
		if !ok {
			return store.ErrMembershipNotFound
		}
		if role == domain.RoleOwner && hasOtherOwner(st, workGroupID, userID) {
			return errOwnerExists
		}
		m.Role = role
		m.UpdatedAt = time.Now().UTC()
		st.memberships[key] = m
		return nil
	})
}

func (s *membershipStore) Delete(_ context.Context, workGroupID uuid.UUID, userID string) error {
	return s.b.with(s.inTx, func(st *state) error {
		key := memberKey{workGroupID, userID}
		if _, ok := st.memberships[key]; !ok {
			return store.ErrMembershipNotFound
		}
		delete(st.memberships, key)
		return nil
	})
}

func (s *membershipStore) ListByWorkGroup(_ context.Context, workGroupID uuid.UUID) ([]*domain.Membership, error) {
	return s.list(func(m domain.Membership) bool { return m.WorkGroupID == workGroupID })
}

func (s *membershipStore) ListByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	return s.list(func(m domain.Membership) bool { return m.UserID == userID })
}

func (s *membershipStore) list(match func(domain.Membership) bool) ([]*domain.Membership, error) {
	var out []*domain.Membership
	err := s.b.with(s.inTx, func(st *state) error {
		for _, m := range st.memberships {
			if match(m) {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkGroupID != out[j].WorkGroupID {
			return out[i].WorkGroupID.String() < out[j].WorkGroupID.String()
		}
		return out[i].UserID < out[j].UserID
	})
	return out, err
}

type projectStore struct {
	b    *Backend
	inTx bool
}

func (s *projectStore) Create(_ context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.workGroups[p.WorkGroupID]; !ok {
			return store.ErrWorkGroupNotFound
		}
		if _, ok := st.projects[p.ID]; ok {
			return store.ErrDuplicate
		}
		st.seq++
		st.projects[p.ID] = projectRow{project: copyProject(*p), seq: st.seq}
		return nil
	})
}

func (s *projectStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	var out *domain.Project
	err := s.b.with(s.inTx, func(st *state) error {
		row, ok := st.projects[id]
		if !ok {
			return store.ErrProjectNotFound
		}
		p := copyProject(row.project)
		out = &p
		return nil
	})
	return out, err
}

func (s *projectStore) Update(_ context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		row, ok := st.projects[p.ID]
		if !ok {
			return store.ErrProjectNotFound
		}
		updated := copyProject(*p)
		updated.WorkGroupID = row.project.WorkGroupID
		row.project = updated
		st.projects[p.ID] = row
		return nil
	})
}

func (s *projectStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.projects[id]; !ok {
			return store.ErrProjectNotFound
		}
		delete(st.projects, id)
		for k, t := range st.tasks {
			if t.InProject(id) {
				t.ProjectID = nil
				st.tasks[k] = t
			}
		}
		return nil
	})
}

func (s *projectStore) ListByWorkGroup(_ context.Context, workGroupID uuid.UUID) ([]*domain.Project, error) {
	var rows []projectRow
	err := s.b.with(s.inTx, func(st *state) error {
		for _, row := range st.projects {
			if row.project.WorkGroupID == workGroupID {
				row.project = copyProject(row.project)
				rows = append(rows, row)
			}
		}
		return nil
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]*domain.Project, len(rows))
	for i := range rows {
		out[i] = &rows[i].project
	}
	return out, err
}

type taskStore struct {
	b    *Backend
	inTx bool
}

// checkTaskRefs mirrors the foreign keys of the tasks table.
func checkTaskRefs(st *state, t *domain.Task) error {
	if _, ok := st.workGroups[t.WorkGroupID]; !ok {
		return fmt.Errorf("%w: work group %s does not exist", store.ErrInvalidEntity, t.WorkGroupID)
	}
	if _, ok := st.statuses[t.StatusID]; !ok {
		return fmt.Errorf("%w: task status %s does not exist", store.ErrInvalidEntity, t.StatusID)
	}
	if t.PriorityID != nil {
		if _, ok := st.priorities[*t.PriorityID]; !ok {
			return fmt.Errorf("%w: task priority %s does not exist", store.ErrInvalidEntity, *t.PriorityID)
		}
	}
	if t.ProjectID != nil {
		if _, ok := st.projects[*t.ProjectID]; !ok {
			return fmt.Errorf("%w: project %s does not exist", store.ErrInvalidEntity, *t.ProjectID)
		}
	}
	return nil
}

func (s *taskStore) Create(_ context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.tasks[t.ID]; ok {
			return store.ErrDuplicate
		}
		if err := checkTaskRefs(st, t); err != nil {
			return err
		}
		st.tasks[t.ID] = copyTask(*t)
		return nil
	})
}

func (s *taskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	var out *domain.Task
	err := s.b.with(s.inTx, func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return store.ErrTaskNotFound
		}
		t = copyTask(t)
		out = &t
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the backend mutex already serializes transactions.
func (s *taskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *taskStore) Update(_ context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		old, ok := st.tasks[t.ID]
		if !ok {
			return store.ErrTaskNotFound
		}
		updated := copyTask(*t)
		updated.WorkGroupID = old.WorkGroupID
		if err := checkTaskRefs(st, &updated); err != nil {
			return err
		}
		st.tasks[t.ID] = updated
		return nil
	})
}

func (s *taskStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.tasks[id]; !ok {
			return store.ErrTaskNotFound
		}
		delete(st.tasks, id)
		return nil
	})
}

func (s *taskStore) ListByWorkGroup(_ context.Context, workGroupID uuid.UUID, filter store.ArchivedFilter) ([]*domain.Task, error) {
	return s.list(func(t domain.Task) bool {
		return t.WorkGroupID == workGroupID && filter.Matches(t.Archived)
	})
}

func (s *taskStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return s.list(func(t domain.Task) bool { return t.InProject(projectID) })
}

func (s *taskStore) list(match func(domain.Task) bool) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.b.with(s.inTx, func(st *state) error {
		for _, t := range st.tasks {
			if match(t) {
				t := copyTask(t)
				out = append(out, &t)
			}
		}
		return nil
	})
	sortTasks(out)
	return out, err
}

type statusStore struct {
	b    *Backend
	inTx bool
}

func statusNameTaken(st *state, name string, except uuid.UUID) bool {
	for id, s := range st.statuses {
		if id != except && s.Name == name {
			return true
		}
	}
	return false
}

func (s *statusStore) Create(_ context.Context, ts *domain.TaskStatus) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.statuses[ts.ID]; ok {
			return store.ErrDuplicate
		}
		if statusNameTaken(st, ts.Name, ts.ID) {
			return store.ErrNameExists
		}
		st.statuses[ts.ID] = *ts
		return nil
	})
}

func (s *statusStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskStatus, error) {
	var out *domain.TaskStatus
	err := s.b.with(s.inTx, func(st *state) error {
		ts, ok := st.statuses[id]
		if !ok {
			return store.ErrStatusNotFound
		}
		out = &ts
		return nil
	})
	return out, err
}

func (s *statusStore) GetByName(_ context.Context, name string) (*domain.TaskStatus, error) {
	var out *domain.TaskStatus
	err := s.b.with(s.inTx, func(st *state) error {
		for _, ts := range st.statuses {
			if ts.Name == name {
				ts := ts
				out = &ts
				return nil
			}
		}
		return store.ErrStatusNotFound
	})
	return out, err
}

func (s *statusStore) Update(_ context.Context, ts *domain.TaskStatus) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.statuses[ts.ID]; !ok {
			return store.ErrStatusNotFound
		}
		if statusNameTaken(st, ts.Name, ts.ID) {
			return store.ErrNameExists
		}
		st.statuses[ts.ID] = *ts
		return nil
	})
}

func (s *statusStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.statuses[id]; !ok {
			return store.ErrStatusNotFound
		}
		for _, t := range st.tasks {
			if t.StatusID == id {
				return fmt.Errorf("%w: task status %s is used by tasks", store.ErrReferenced, id)
			}
		}
		delete(st.statuses, id)
		return nil
	})
}

func (s *statusStore) List(_ context.Context) ([]*domain.TaskStatus, error) {
	return s.list(false)
}

func (s *statusStore) ListVisible(_ context.Context) ([]*domain.TaskStatus, error) {
	return s.list(true)
}

func (s *statusStore) list(visibleOnly bool) ([]*domain.TaskStatus, error) {
	var out []*domain.TaskStatus
	err := s.b.with(s.inTx, func(st *state) error {
		for _, ts := range st.statuses {
			if visibleOnly && !ts.Visible {
				continue
			}
			ts := ts
			out = append(out, &ts)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type priorityStore struct {
	b    *Backend
	inTx bool
}

func priorityNameTaken(st *state, name string, except uuid.UUID) bool {
	for id, p := range st.priorities {
		if id != except && p.Name == name {
			return true
		}
	}
	return false
}

func (s *priorityStore) Create(_ context.Context, p *domain.TaskPriority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.priorities[p.ID]; ok {
			return store.ErrDuplicate
		}
		if priorityNameTaken(st, p.Name, p.ID) {
			return store.ErrNameExists
		}
		st.priorities[p.ID] = *p
		return nil
	})
}

func (s *priorityStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskPriority, error) {
	var out *domain.TaskPriority
	err := s.b.with(s.inTx, func(st *state) error {
		p, ok := st.priorities[id]
		if !ok {
			return store.ErrPriorityNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (s *priorityStore) GetByName(_ context.Context, name string) (*domain.TaskPriority, error) {
	var out *domain.TaskPriority
	err := s.b.with(s.inTx, func(st *state) error {
		for _, p := range st.priorities {
			if p.Name == name {
				p := p
				out = &p
				return nil
			}
		}
		return store.ErrPriorityNotFound
	})
	return out, err
}

func (s *priorityStore) Update(_ context.Context, p *domain.TaskPriority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.priorities[p.ID]; !ok {
			return store.ErrPriorityNotFound
		}
		if priorityNameTaken(st, p.Name, p.ID) {
			return store.ErrNameExists
		}
		st.priorities[p.ID] = *p
		return nil
	})
}

func (s *priorityStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.b.with(s.inTx, func(st *state) error {
		if _, ok := st.priorities[id]; !ok {
			return store.ErrPriorityNotFound
		}
		for _, t := range st.tasks {
			if t.PriorityID != nil && *t.PriorityID == id {
				return fmt.Errorf("%w: task priority %s is used by tasks", store.ErrReferenced, id)
			}
		}
		delete(st.priorities, id)
		return nil
	})
}

func (s *priorityStore) List(_ context.Context) ([]*domain.TaskPriority, error) {
	return s.list(false)
}

func (s *priorityStore) ListVisible(_ context.Context) ([]*domain.TaskPriority, error) {
	return s.list(true)
}

func (s *priorityStore) list(visibleOnly bool) ([]*domain.TaskPriority, error) {
	var out []*domain.TaskPriority
	err := s.b.with(s.inTx, func(st *state) error {
		for _, p := range st.priorities {
			if visibleOnly && !p.Visible {
				continue
			}
			p := p
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

var (
	_ store.WorkGroupStore    = (*workGroupStore)(nil)
	_ store.MembershipStore   = (*membershipStore)(nil)
	_ store.ProjectStore      = (*projectStore)(nil)
	_ store.TaskStore         = (*taskStore)(nil)
	_ store.TaskStatusStore   = (*statusStore)(nil)
	_ store.TaskPriorityStore = (*priorityStore)(nil)
)
