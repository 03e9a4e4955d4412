package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	statusPrefix   = "catalog:status"
	priorityPrefix = "catalog:priority"
)

// catalogStore is the method set shared by the status and priority stores.
type catalogStore[T any] interface {
	Create(ctx context.Context, v *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	GetByName(ctx context.Context, name string) (*T, error)
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*T, error)
	ListVisible(ctx context.Context) ([]*T, error)
}

// readThrough caches single entries by id and name, and both listings.
// Writes go to base first and then evict every key they may have touched.
type readThrough[T any] struct {
	base catalogStore[T]
	one  keyspace[T]
	many keyspace[[]*T]
	// identity returns the id and name an entry is cached under.
	identity func(*T) (uuid.UUID, string)
}

func newReadThrough[T any](base catalogStore[T], client *redis.Client, ttl time.Duration, prefix string, log *slog.Logger, identity func(*T) (uuid.UUID, string)) *readThrough[T] {
	if ttl < 0 {
		ttl = 0
	}
	return &readThrough[T]{
		base:     base,
		one:      keyspace[T]{redis: client, ttl: ttl, prefix: prefix, logger: log},
		many:     keyspace[[]*T]{redis: client, ttl: ttl, prefix: prefix, logger: log},
		identity: identity,
	}
}

func (c *readThrough[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return c.get(ctx, c.one.key("id", id.String()), func(ctx context.Context) (*T, error) {
		return c.base.GetByID(ctx, id)
	})
}

func (c *readThrough[T]) GetByName(ctx context.Context, name string) (*T, error) {
	return c.get(ctx, c.one.key("name", name), func(ctx context.Context) (*T, error) {
		return c.base.GetByName(ctx, name)
	})
}

func (c *readThrough[T]) List(ctx context.Context) ([]*T, error) {
	return c.list(ctx, c.many.key("all"), c.base.List)
}

func (c *readThrough[T]) ListVisible(ctx context.Context) ([]*T, error) {
	return c.list(ctx, c.many.key("visible"), c.base.ListVisible)
}

func (c *readThrough[T]) get(ctx context.Context, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	if v, ok := c.one.load(ctx, key); ok {
		return &v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.one.store(ctx, key, *v)
	return v, nil
}

func (c *readThrough[T]) list(ctx context.Context, key string, fetch func(context.Context) ([]*T, error)) ([]*T, error) {
	if v, ok := c.many.load(ctx, key); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.many.store(ctx, key, v)
	return v, nil
}

func (c *readThrough[T]) Create(ctx context.Context, v *T) error {
	if err := c.base.Create(ctx, v); err != nil {
		return err
	}
	id, name := c.identity(v)
	c.evict(ctx, id, name)
	return nil
}

// Update evicts the old name as well, since a rename leaves it behind.
func (c *readThrough[T]) Update(ctx context.Context, v *T) error {
	id, name := c.identity(v)
	names := []string{name}
	if old, err := c.base.GetByID(ctx, id); err == nil {
		_, oldName := c.identity(old)
		names = append(names, oldName)
	}
	if err := c.base.Update(ctx, v); err != nil {
		return err
	}
	c.evict(ctx, id, names...)
	return nil
}

func (c *readThrough[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var names []string
	if old, err := c.base.GetByID(ctx, id); err == nil {
		_, oldName := c.identity(old)
		names = append(names, oldName)
	}
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id, names...)
	return nil
}

func (c *readThrough[T]) evict(ctx context.Context, id uuid.UUID, names ...string) {
	keys := []string{c.many.key("all"), c.many.key("visible"), c.one.key("id", id.String())}
	for _, n := range names {
		keys = append(keys, c.one.key("name", n))
	}
	c.one.evict(ctx, keys...)
}

// StatusStore caches a store.TaskStatusStore.
type StatusStore struct {
	*readThrough[domain.TaskStatus]
}

var _ store.TaskStatusStore = (*StatusStore)(nil)

// NewStatusStore wraps base. A nil client disables caching.
func NewStatusStore(base store.TaskStatusStore, client *redis.Client, ttl time.Duration, log *slog.Logger) *StatusStore {
	if base == nil {
		panic("cache.NewStatusStore: base store is nil")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "status_cache"))
	return &StatusStore{newReadThrough[domain.TaskStatus](base, client, ttl, statusPrefix, log,
		func(s *domain.TaskStatus) (uuid.UUID, string) { return s.ID, s.Name })}
}

// PriorityStore caches a store.TaskPriorityStore.
type PriorityStore struct {
	*readThrough[domain.TaskPriority]
}

var _ store.TaskPriorityStore = (*PriorityStore)(nil)

// NewPriorityStore wraps base. A nil client disables caching.
func NewPriorityStore(base store.TaskPriorityStore, client *redis.Client, ttl time.Duration, log *slog.Logger) *PriorityStore {
	if base == nil {
		panic("cache.NewPriorityStore: base store is nil")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "priority_cache"))
	return &PriorityStore{newReadThrough[domain.TaskPriority](base, client, ttl, priorityPrefix, log,
		func(p *domain.TaskPriority) (uuid.UUID, string) { return p.ID, p.Name })}
}
