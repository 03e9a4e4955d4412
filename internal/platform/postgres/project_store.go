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

// PostgresProjectStore implements store.ProjectStore. Members live in
// project_members and are rewritten wholesale on Update.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a project store on a connection or transaction.
func NewPostgresProjectStore(db store.DBTX, log *slog.Logger) *PostgresProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresProjectStore{
		db:     db,
		logger: log.With(slog.String("component", "project_store")),
	}
}

var _ store.ProjectStore = (*PostgresProjectStore)(nil)

func (s *PostgresProjectStore) Create(ctx context.Context, p *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, work_group_id, title, description) VALUES ($1, $2, $3, $4)`,
		p.ID, p.WorkGroupID, p.Title, p.Description)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrWorkGroupNotFound
		}
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("project_id", p.ID.String()))
		return MapError(err)
	}
	return s.insertMembers(ctx, p.ID, p.Members)
}

func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, work_group_id, title, description FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.WorkGroupID, &p.Title, &p.Description)
	if err != nil {
		return nil, mapNoRows(err, store.ErrProjectNotFound)
	}

	members, err := s.members(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Members = members
	return &p, nil
}

func (s *PostgresProjectStore) Update(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET title = $2, description = $3 WHERE id = $1`,
		p.ID, p.Title, p.Description)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(res, store.ErrProjectNotFound); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, p.ID); err != nil {
		return MapError(err)
	}
	return s.insertMembers(ctx, p.ID, p.Members)
}

func (s *PostgresProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrProjectNotFound)
}

func (s *PostgresProjectStore) ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID) ([]*domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.work_group_id, p.title, p.description, m.user_id
		   FROM projects p
		   LEFT JOIN project_members m ON m.project_id = p.id
		  WHERE p.work_group_id = $1
		  ORDER BY p.created_at, p.id, m.user_id`,
		workGroupID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Project
	var current *domain.Project
	for rows.Next() {
		var p domain.Project
		var member sql.NullString
		if err := rows.Scan(&p.ID, &p.WorkGroupID, &p.Title, &p.Description, &member); err != nil {
			return nil, MapError(err)
		}
		if current == nil || current.ID != p.ID {
			p.Members = []string{}
			current = &p
			out = append(out, current)
		}
		if member.Valid {
			current.Members = append(current.Members, member.String)
		}
	}
	return out, MapError(rows.Err())
}

func (s *PostgresProjectStore) members(ctx context.Context, projectID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY user_id`, projectID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		members = append(members, id)
	}
	return members, MapError(rows.Err())
}

func (s *PostgresProjectStore) insertMembers(ctx context.Context, projectID uuid.UUID, members []string) error {
	for _, userID := range members {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`,
			projectID, userID); err != nil {
			return MapError(err)
		}
	}
	return nil
}
