package postgres

import (
	"context"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// PostgresWorkGroupStore implements store.WorkGroupStore.
type PostgresWorkGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWorkGroupStore creates a work group store on a connection or transaction.
func NewPostgresWorkGroupStore(db store.DBTX, log *slog.Logger) *PostgresWorkGroupStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresWorkGroupStore{
		db:     db,
		logger: log.With(slog.String("component", "work_group_store")),
	}
}

var _ store.WorkGroupStore = (*PostgresWorkGroupStore)(nil)

func (s *PostgresWorkGroupStore) Create(ctx context.Context, wg *domain.WorkGroup) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := wg.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_groups (id, name, description) VALUES ($1, $2, $3)`,
		wg.ID, wg.Name, wg.Description)
	if err != nil {
		log.Error("failed to create work group",
			slog.String("error", err.Error()),
			slog.String("work_group_id", wg.ID.String()))
		return MapError(err)
	}

	log.Debug("work group created", slog.String("work_group_id", wg.ID.String()))
	return nil
}

func (s *PostgresWorkGroupStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkGroup, error) {
	return s.get(ctx, id, `SELECT id, name, description FROM work_groups WHERE id = $1`)
}

func (s *PostgresWorkGroupStore) LockByID(ctx context.Context, id uuid.UUID) (*domain.WorkGroup, error) {
	return s.get(ctx, id, `SELECT id, name, description FROM work_groups WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresWorkGroupStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.WorkGroup, error) {
	var wg domain.WorkGroup
	err := s.db.QueryRowContext(ctx, query, id).Scan(&wg.ID, &wg.Name, &wg.Description)
	if err != nil {
		return nil, mapNoRows(err, store.ErrWorkGroupNotFound)
	}
	return &wg, nil
}

func (s *PostgresWorkGroupStore) Update(ctx context.Context, wg *domain.WorkGroup) error {
	if err := wg.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE work_groups SET name = $2, description = $3 WHERE id = $1`,
		wg.ID, wg.Name, wg.Description)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrWorkGroupNotFound)
}

func (s *PostgresWorkGroupStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.db.ExecContext(ctx, `DELETE FROM work_groups WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete work group",
			slog.String("error", err.Error()),
			slog.String("work_group_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrWorkGroupNotFound)
}

func (s *PostgresWorkGroupStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.WorkGroup, error) {
	out := make([]*domain.WorkGroup, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	// pgx encodes []string as text[]; the cast keeps the lookup on the uuid index.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description FROM work_groups WHERE id = ANY($1::text[]::uuid[]) ORDER BY name, id`,
		keys)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var wg domain.WorkGroup
		if err := rows.Scan(&wg.ID, &wg.Name, &wg.Description); err != nil {
			return nil, MapError(err)
		}
		out = append(out, &wg)
	}
	return out, MapError(rows.Err())
}
