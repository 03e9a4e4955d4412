package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// PostgresMembershipStore implements store.MembershipStore.
type PostgresMembershipStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMembershipStore creates a membership store on a connection or transaction.
func NewPostgresMembershipStore(db store.DBTX, log *slog.Logger) *PostgresMembershipStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresMembershipStore{
		db:     db,
		logger: log.With(slog.String("component", "membership_store")),
	}
}

var _ store.MembershipStore = (*PostgresMembershipStore)(nil)

const membershipColumns = `work_group_id, user_id, role, created_at, updated_at`

func (s *PostgresMembershipStore) Create(ctx context.Context, m *domain.Membership) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := m.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (`+membershipColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		m.WorkGroupID, m.UserID, string(m.Role), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrWorkGroupNotFound
		}
		log.Warn("failed to create membership",
			slog.String("error", err.Error()),
			slog.String("work_group_id", m.WorkGroupID.String()),
			slog.String("user_id", m.UserID))
		return mapUnique(err, store.ErrMembershipExists)
	}
	return nil
}

func (s *PostgresMembershipStore) Get(ctx context.Context, workGroupID uuid.UUID, userID string) (*domain.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE work_group_id = $1 AND user_id = $2`,
		workGroupID, userID)
	m, err := scanMembership(row)
	if err != nil {
		return nil, mapNoRows(err, store.ErrMembershipNotFound)
	}
	return m, nil
}

func (s *PostgresMembershipStore) UpdateRole(ctx context.Context, workGroupID uuid.UUID, userID string, role domain.Role) error {
	if !role.IsValid() {
		return domain.NewValidationError("role", "must be OWNER, MODERATOR or MEMBER")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE memberships SET role = $3, updated_at = $4 WHERE work_group_id = $1 AND user_id = $2`,
		workGroupID, userID, string(role), time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrMembershipNotFound)
}

func (s *PostgresMembershipStore) Delete(ctx context.Context, workGroupID uuid.UUID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE work_group_id = $1 AND user_id = $2`,
		workGroupID, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrMembershipNotFound)
}

func (s *PostgresMembershipStore) ListByWorkGroup(ctx context.Context, workGroupID uuid.UUID) ([]*domain.Membership, error) {
	return s.list(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE work_group_id = $1 ORDER BY user_id`,
		workGroupID)
}

func (s *PostgresMembershipStore) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	return s.list(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY work_group_id`,
		userID)
}

func (s *PostgresMembershipStore) list(ctx context.Context, query string, arg any) ([]*domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, m)
	}
	return out, MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(r rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	if err := r.Scan(&m.WorkGroupID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}
