// Package cache provides Redis read-through decorators for the task catalog
// stores. Reads are served from Redis when possible and fall back to the
// wrapped store; every write evicts the affected keys. Redis failures never
// fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// URL and returns a connected client.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// keyspace stores JSON values under prefix-qualified keys.
type keyspace[T any] struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func (k *keyspace[T]) key(parts ...string) string {
	s := k.prefix
	for _, p := range parts {
		s += ":" + p
	}
	return s
}

func (k *keyspace[T]) load(ctx context.Context, key string) (T, bool) {
	var zero T
	if k.redis == nil {
		return zero, false
	}
	data, err := k.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			k.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
			_ = k.redis.Del(ctx, key).Err()
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		_ = k.redis.Del(ctx, key).Err()
		return zero, false
	}
	return v, true
}

func (k *keyspace[T]) store(ctx context.Context, key string, v T) {
	if k.redis == nil || k.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := k.redis.Set(ctx, key, data, k.ttl).Err(); err != nil {
		k.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (k *keyspace[T]) evict(ctx context.Context, keys ...string) {
	if k.redis == nil || len(keys) == 0 {
		return
	}
	if err := k.redis.Del(ctx, keys...).Err(); err != nil {
		k.logger.Warn("catalog cache eviction failed", slog.String("error", err.Error()))
	}
}
