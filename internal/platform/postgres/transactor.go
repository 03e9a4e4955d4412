package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/config"
	"github.com/dcmc-apps/taskmanager/internal/store"

	// pgx database/sql driver, registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL with the pool settings from cfg and verifies
// the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewStores binds every PostgreSQL store to db, which may be a *sql.DB or a *sql.Tx.
func NewStores(db store.DBTX, log *slog.Logger) store.Stores {
	return store.Stores{
		WorkGroups:  NewPostgresWorkGroupStore(db, log),
		Memberships: NewPostgresMembershipStore(db, log),
		Projects:    NewPostgresProjectStore(db, log),
		Tasks:       NewPostgresTaskStore(db, log),
		Statuses:    NewPostgresTaskStatusStore(db, log),
		Priorities:  NewPostgresTaskPriorityStore(db, log),
	}
}

// Transactor implements store.Transactor with database transactions.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransactor creates a Transactor on db.
func NewTransactor(db *sql.DB, log *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transactor{db: db, logger: log}
}

var _ store.Transactor = (*Transactor)(nil)

// WithinTx runs fn with stores bound to a new transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
}
