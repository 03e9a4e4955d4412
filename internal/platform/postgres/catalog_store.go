package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// PostgresTaskStatusStore implements store.TaskStatusStore.
type PostgresTaskStatusStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStatusStore creates a status store on a connection or transaction.
func NewPostgresTaskStatusStore(db store.DBTX, log *slog.Logger) *PostgresTaskStatusStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStatusStore{
		db:     db,
		logger: log.With(slog.String("component", "task_status_store")),
	}
}

var _ store.TaskStatusStore = (*PostgresTaskStatusStore)(nil)

func (s *PostgresTaskStatusStore) Create(ctx context.Context, st *domain.TaskStatus) error {
	if err := st.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_statuses (id, name, visible) VALUES ($1, $2, $3)`,
		st.ID, st.Name, st.Visible)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to create task status",
			slog.String("error", err.Error()),
			slog.String("name", st.Name))
		return mapUnique(err, store.ErrNameExists)
	}
	return nil
}

func (s *PostgresTaskStatusStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskStatus, error) {
	var st domain.TaskStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, visible FROM task_statuses WHERE id = $1`, id).
		Scan(&st.ID, &st.Name, &st.Visible)
	if err != nil {
		return nil, mapNoRows(err, store.ErrStatusNotFound)
	}
	return &st, nil
}

func (s *PostgresTaskStatusStore) GetByName(ctx context.Context, name string) (*domain.TaskStatus, error) {
	var st domain.TaskStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, visible FROM task_statuses WHERE name = $1`, name).
		Scan(&st.ID, &st.Name, &st.Visible)
	if err != nil {
		return nil, mapNoRows(err, store.ErrStatusNotFound)
	}
	return &st, nil
}

func (s *PostgresTaskStatusStore) Update(ctx context.Context, st *domain.TaskStatus) error {
	if err := st.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_statuses SET name = $2, visible = $3 WHERE id = $1`,
		st.ID, st.Name, st.Visible)
	if err != nil {
		return mapUnique(err, store.ErrNameExists)
	}
	return CheckRowsAffected(res, store.ErrStatusNotFound)
}

func (s *PostgresTaskStatusStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_statuses WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: task status %s is used by tasks", store.ErrReferenced, id)
		}
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrStatusNotFound)
}

func (s *PostgresTaskStatusStore) List(ctx context.Context) ([]*domain.TaskStatus, error) {
	return s.list(ctx, `SELECT id, name, visible FROM task_statuses ORDER BY name`)
}

func (s *PostgresTaskStatusStore) ListVisible(ctx context.Context) ([]*domain.TaskStatus, error) {
	return s.list(ctx, `SELECT id, name, visible FROM task_statuses WHERE visible ORDER BY name`)
}

func (s *PostgresTaskStatusStore) list(ctx context.Context, query string) ([]*domain.TaskStatus, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TaskStatus
	for rows.Next() {
		var st domain.TaskStatus
		if err := rows.Scan(&st.ID, &st.Name, &st.Visible); err != nil {
			return nil, MapError(err)
		}
		out = append(out, &st)
	}
	return out, MapError(rows.Err())
}

// PostgresTaskPriorityStore implements store.TaskPriorityStore.
type PostgresTaskPriorityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskPriorityStore creates a priority store on a connection or transaction.
func NewPostgresTaskPriorityStore(db store.DBTX, log *slog.Logger) *PostgresTaskPriorityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskPriorityStore{
		db:     db,
		logger: log.With(slog.String("component", "task_priority_store")),
	}
}

var _ store.TaskPriorityStore = (*PostgresTaskPriorityStore)(nil)

func (s *PostgresTaskPriorityStore) Create(ctx context.Context, p *domain.TaskPriority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_priorities (id, name, level, visible) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Level, p.Visible)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to create task priority",
			slog.String("error", err.Error()),
			slog.String("name", p.Name))
		return mapUnique(err, store.ErrNameExists)
	}
	return nil
}

func (s *PostgresTaskPriorityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskPriority, error) {
	var p domain.TaskPriority
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, level, visible FROM task_priorities WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Level, &p.Visible)
	if err != nil {
		return nil, mapNoRows(err, store.ErrPriorityNotFound)
	}
	return &p, nil
}

func (s *PostgresTaskPriorityStore) GetByName(ctx context.Context, name string) (*domain.TaskPriority, error) {
	var p domain.TaskPriority
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, level, visible FROM task_priorities WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.Level, &p.Visible)
	if err != nil {
		return nil, mapNoRows(err, store.ErrPriorityNotFound)
	}
	return &p, nil
}

func (s *PostgresTaskPriorityStore) Update(ctx context.Context, p *domain.TaskPriority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_priorities SET name = $2, level = $3, visible = $4 WHERE id = $1`,
		p.ID, p.Name, p.Level, p.Visible)
	if err != nil {
		return mapUnique(err, store.ErrNameExists)
	}
	return CheckRowsAffected(res, store.ErrPriorityNotFound)
}

func (s *PostgresTaskPriorityStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_priorities WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: task priority %s is used by tasks", store.ErrReferenced, id)
		}
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrPriorityNotFound)
}

func (s *PostgresTaskPriorityStore) List(ctx context.Context) ([]*domain.TaskPriority, error) {
	return s.list(ctx, `SELECT id, name, level, visible FROM task_priorities ORDER BY level, name`)
}

func (s *PostgresTaskPriorityStore) ListVisible(ctx context.Context) ([]*domain.TaskPriority, error) {
	return s.list(ctx, `SELECT id, name, level, visible FROM task_priorities WHERE visible ORDER BY level, name`)
}

func (s *PostgresTaskPriorityStore) list(ctx context.Context, query string) ([]*domain.TaskPriority, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TaskPriority
	for rows.Next() {
		var p domain.TaskPriority
		if err := rows.Scan(&p.ID, &p.Name, &p.Level, &p.Visible); err != nil {
			return nil, MapError(err)
		}
		out = append(out, &p)
	}
	return out, MapError(rows.Err())
}
