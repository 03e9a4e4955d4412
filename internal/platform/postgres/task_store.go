package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// PostgresTaskStore implements store.TaskStore. Assigned members live in
// task_assignees and are rewritten wholesale on Update.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store on a connection or transaction.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskSelect = `
	SELECT t.id, t.work_group_id, t.project_id, t.title, t.description, t.status_id,
	       t.priority_id, t.archived, t.create_time, t.update_time, a.user_id
	  FROM tasks t
	  LEFT JOIN task_assignees a ON a.task_id = t.id`

func (s *PostgresTaskStore) Create(ctx context.Context, t *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, work_group_id, project_id, title, description, status_id,
		                    priority_id, archived, create_time, update_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.WorkGroupID, nullUUID(t.ProjectID), t.Title, t.Description, t.StatusID,
		nullUUID(t.PriorityID), t.Archived, t.CreateTime, t.UpdateTime)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", t.ID.String()))
		return MapError(err)
	}
	return s.insertAssignees(ctx, t.ID, t.AssignedMembers)
}

func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, taskSelect+` WHERE t.id = $1 ORDER BY a.user_id`, id)
}

// GetForUpdate locks the task row. FOR UPDATE cannot apply to the nullable
// side of the outer join, so the lock is restricted to tasks.
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, taskSelect+` WHERE t.id = $1 ORDER BY a.user_id FOR UPDATE OF t`, id)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Task, error) {
	tasks, err := s.query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, store.ErrTaskNotFound
	}
	return tasks[0], nil
}

func (s *PostgresTaskStore) Update(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		    SET project_id = $2, title = $3, description = $4, status_id = $5,
		        priority_id = $6, archived = $7, create_time = $8, update_time = $9
		  WHERE id = $1`,
		t.ID, nullUUID(t.ProjectID), t.Title, t.Description, t.StatusID,
		nullUUID(t.PriorityID), t.Archived, t.CreateTime, t.UpdateTime)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(res, store.ErrTaskNotFound); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, t.ID); err != nil {
		return MapError(err)
	}
	return s.insertAssignees(ctx, t.ID, t.AssignedMembers)
}

func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrTaskNotFound)
}

func (s *PostgresTaskStore) ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID, filter store.ArchivedFilter) ([]*domain.Task, error) {
	query := taskSelect + ` WHERE t.work_group_id = $1`
	switch filter {
	case store.ActiveOnly:
		query += ` AND NOT t.archived`
	case store.ArchivedOnly:
		query += ` AND t.archived`
	}
	query += ` ORDER BY t.create_time, t.id, a.user_id`
	return s.query(ctx, query, workGroupID)
}

func (s *PostgresTaskStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return s.query(ctx, taskSelect+` WHERE t.project_id = $1 ORDER BY t.create_time, t.id, a.user_id`, projectID)
}

// query folds the one-row-per-assignee join back into tasks. Rows must be
// ordered so all rows of a task are adjacent.
func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Task
	var current *domain.Task
	for rows.Next() {
		var (
			t          domain.Task
			projectID  uuid.NullUUID
			priorityID uuid.NullUUID
			assignee   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.WorkGroupID, &projectID, &t.Title, &t.Description, &t.StatusID,
			&priorityID, &t.Archived, &t.CreateTime, &t.UpdateTime, &assignee); err != nil {
			return nil, MapError(err)
		}
		if current == nil || current.ID != t.ID {
			t.ProjectID = ptrUUID(projectID)
			t.PriorityID = ptrUUID(priorityID)
			t.AssignedMembers = []string{}
			current = &t
			out = append(out, current)
		}
		if assignee.Valid {
			current.AssignedMembers = append(current.AssignedMembers, assignee.String)
		}
	}
	return out, MapError(rows.Err())
}

func (s *PostgresTaskStore) insertAssignees(ctx context.Context, taskID uuid.UUID, members []string) error {
	for _, userID := range members {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			taskID, userID); err != nil {
			return MapError(err)
		}
	}
	return nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func ptrUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
