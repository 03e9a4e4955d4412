package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/catalog"
	"github.com/dcmc-apps/taskmanager/internal/config"
	"github.com/dcmc-apps/taskmanager/internal/events"
	"github.com/dcmc-apps/taskmanager/internal/platform/cache"
	"github.com/dcmc-apps/taskmanager/internal/platform/memory"
	"github.com/dcmc-apps/taskmanager/internal/platform/postgres"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/dcmc-apps/taskmanager/internal/service/auth"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// application holds the wired dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	db             *sql.DB
	redis          *redis.Client
	tracerProvider *sdktrace.TracerProvider

	tx         store.Transactor
	statuses   store.TaskStatusStore
	priorities store.TaskPriorityStore

	resolver    auth.IdentityResolver
	emitter     *events.Bus
	memberships service.MembershipService
	workGroups  service.WorkGroupService
	tasks       service.TaskService
	projects    service.ProjectService
	catalog     service.CatalogService
}

// newApplication wires storage, caching, tracing and services from cfg.
// Resources opened before a failure are released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if app.tracerProvider, err = setupTracing(cfg.Tracing, logger); err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	if err = app.setupStorage(ctx); err != nil {
		return nil, err
	}

	if cfg.Cache.RedisURL != "" {
		if app.redis, err = cache.NewClient(ctx, cfg.Cache.RedisURL); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		ttl := time.Duration(cfg.Cache.CatalogTTLSeconds) * time.Second
		app.statuses = cache.NewStatusStore(app.statuses, app.redis, ttl, logger)
		app.priorities = cache.NewPriorityStore(app.priorities, app.redis, ttl, logger)
		logger.Info("catalog cache enabled", slog.Duration("ttl", ttl))
	}

	seed, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog seed: %w", err)
	}
	if _, err = catalog.EnsureSeed(ctx, app.statuses, app.priorities, seed, logger); err != nil {
		return nil, fmt.Errorf("failed to seed task catalog: %w", err)
	}

	if app.resolver, err = auth.NewJWTResolver(cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to initialize identity resolver: %w", err)
	}

	app.emitter = events.NewBus(logger)
	app.emitter.Subscribe(events.NewAuditHandler(logger), events.AuditedTypes...)

	if err = app.setupServices(); err != nil {
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupStorage selects the PostgreSQL or in-memory backend.
func (app *application) setupStorage(ctx context.Context) error {
	switch app.config.Storage.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, app.config.Database)
		if err != nil {
			return err
		}
		app.db = db
		app.tx = postgres.NewTransactor(db, app.logger)
		stores := postgres.NewStores(db, app.logger)
		app.statuses, app.priorities = stores.Statuses, stores.Priorities
		app.logger.Info("database connection established")
	case "memory":
		backend := memory.NewBackend(app.logger)
		app.tx = backend
		stores := backend.Stores()
		app.statuses, app.priorities = stores.Statuses, stores.Priorities
		app.logger.Warn("using in-memory storage; data is lost on restart")
	default:
		return fmt.Errorf("unknown storage driver %q", app.config.Storage.Driver)
	}
	return nil
}

func (app *application) setupServices() error {
	var err error
	if app.memberships, err = service.NewMembershipService(app.tx, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create membership service: %w", err)
	}
	if app.workGroups, err = service.NewWorkGroupService(app.tx, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create work group service: %w", err)
	}
	if app.tasks, err = service.NewTaskService(app.tx, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	if app.projects, err = service.NewProjectService(app.tx, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create project service: %w", err)
	}
	if app.catalog, err = service.NewCatalogService(app.statuses, app.priorities, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create catalog service: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases every resource the application opened.
func (app *application) cleanup() {
	if app.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.tracerProvider.Shutdown(ctx); err != nil {
			app.logger.Error("error shutting down tracer provider", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
