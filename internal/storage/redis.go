// ABOUTME: Redis-backed Store for shared or containerized deployments
// ABOUTME: Keys are namespaced by a prefix so Clear never touches foreign data

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const clearScanCount = 100

type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// OpenRedis connects to the redis:// URL and pings it once
func OpenRedis(ctx context.Context, url, prefix string, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}
	return NewRedisStore(rdb, prefix, logger), nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(rdb redis.UniversalClient, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{rdb: rdb, prefix: prefix, logger: logger}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.logger.Warn("Redis read failed", "key", key, "error", err)
		return "", false
	}
	return val, true
}

func (r *RedisStore) Set(ctx context.Context, key, value string) {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.Warn("Redis write failed", "key", key, "error", err)
	}
}

func (r *RedisStore) Remove(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn("Redis delete failed", "key", key, "error", err)
	}
}

// Clear deletes every key under the prefix
func (r *RedisStore) Clear(ctx context.Context) {
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", clearScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("Redis scan failed", "prefix", r.prefix, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("Redis clear failed", "prefix", r.prefix, "error", err)
	}
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
