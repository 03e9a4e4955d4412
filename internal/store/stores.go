package store

import (
	"context"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/google/uuid"
)

// WorkGroupStore persists work groups.
type WorkGroupStore interface {
	Create(ctx context.Context, wg *domain.WorkGroup) error
	// GetByID returns ErrWorkGroupNotFound if the group does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkGroup, error)
	// LockByID is GetByID that also holds a row lock until the surrounding
	// transaction ends. Membership transitions call it first so concurrent
	// transitions on one group are serialized.
	LockByID(ctx context.Context, id uuid.UUID) (*domain.WorkGroup, error)
	Update(ctx context.Context, wg *domain.WorkGroup) error
	// Delete removes the group together with its memberships, projects and tasks.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByIDs returns the groups that exist among ids, ordered by name.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.WorkGroup, error)
}

// MembershipStore persists (work group, user, role) rows. At most one row
// exists per pair.
type MembershipStore interface {
	// Create returns ErrMembershipExists if the pair already exists.
	Create(ctx context.Context, m *domain.Membership) error
	// Get returns ErrMembershipNotFound if the user is not a member.
	Get(ctx context.Context, workGroupID uuid.UUID, userID string) (*domain.Membership, error)
	UpdateRole(ctx context.Context, workGroupID uuid.UUID, userID string, role domain.Role) error
	Delete(ctx context.Context, workGroupID uuid.UUID, userID string) error
	ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID) ([]*domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
}

// ProjectStore persists projects and their member lists.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	// Update writes title, description and members.
	Update(ctx context.Context, p *domain.Project) error
	// Delete removes the project and unlinks its tasks.
	Delete(ctx context.Context, id uuid.UUID) error
	ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID) ([]*domain.Project, error)
}

// ArchivedFilter selects tasks by archival state.
type ArchivedFilter int

const (
	ActiveOnly ArchivedFilter = iota
	ArchivedOnly
	AllTasks
)

// Matches reports whether a task with the given archived flag passes the filter.
func (f ArchivedFilter) Matches(archived bool) bool {
	switch f {
	case ActiveOnly:
		return !archived
	case ArchivedOnly:
		return archived
	default:
		return true
	}
}

// TaskStore persists tasks.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	// GetForUpdate is GetByID holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	// Update writes every mutable field, including ProjectID and Archived.
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID, filter ArchivedFilter) ([]*domain.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
}

// TaskStatusStore persists the global task status catalog.
type TaskStatusStore interface {
	// Create returns ErrNameExists if the name is taken.
	Create(ctx context.Context, s *domain.TaskStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskStatus, error)
	GetByName(ctx context.Context, name string) (*domain.TaskStatus, error)
	Update(ctx context.Context, s *domain.TaskStatus) error
	// Delete returns ErrReferenced while tasks still use the status.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.TaskStatus, error)
	ListVisible(ctx context.Context) ([]*domain.TaskStatus, error)
}

// TaskPriorityStore persists the global task priority catalog.
type TaskPriorityStore interface {
	Create(ctx context.Context, p *domain.TaskPriority) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskPriority, error)
	GetByName(ctx context.Context, name string) (*domain.TaskPriority, error)
	Update(ctx context.Context, p *domain.TaskPriority) error
	// Delete returns ErrReferenced while tasks still use the priority.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.TaskPriority, error)
	ListVisible(ctx context.Context) ([]*domain.TaskPriority, error)
}

// Stores bundles every store bound to the same connection or transaction.
type Stores struct {
	WorkGroups  WorkGroupStore
	Memberships MembershipStore
	Projects    ProjectStore
	Tasks       TaskStore
	Statuses    TaskStatusStore
	Priorities  TaskPriorityStore
}

// Transactor runs fn atomically. The Stores handed to fn are bound to the
// transaction; if fn returns an error every write it made is discarded.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
