package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps model tables in Redis, one key per table entry. It is
// the low-latency backend used while a game session is live.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore from a connection URL.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing redis.Client for use in tests.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Key patterns for Redis model tables.
func liveKey(kind Kind, key string) string { return "model:" + string(kind) + ":" + key }
func livePrefix(kind Kind) string          { return "model:" + string(kind) + ":" }
func snapKey(kind Kind, name, key string) string {
	return "snapshot:" + string(kind) + "@" + name + ":" + key
}
func snapPrefix(kind Kind, name string) string {
	return "snapshot:" + string(kind) + "@" + name + ":"
}

// Get returns the stored value or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, kind Kind, key string) (float64, error) {
	v, err := s.rdb.Get(ctx, liveKey(kind, key)).Float64()
	if err == redis.Nil {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s/%s: %w", kind, key, err)
	}
	return v, nil
}

// Put stores a value.
func (s *RedisStore) Put(ctx context.Context, kind Kind, key string, value float64) error {
	if err := s.rdb.Set(ctx, liveKey(kind, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s/%s: %w", kind, key, err)
	}
	return nil
}

// Increment adds delta atomically and returns the new value.
func (s *RedisStore) Increment(ctx context.Context, kind Kind, key string, delta float64) (float64, error) {
	v, err := s.rdb.IncrByFloat(ctx, liveKey(kind, key), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s/%s: %w", kind, key, err)
	}
	return v, nil
}

// Scan returns all entries of kind whose key starts with prefix.
func (s *RedisStore) Scan(ctx context.Context, kind Kind, prefix string) (map[string]float64, error) {
	return s.scanPattern(ctx, livePrefix(kind), prefix)
}

func (s *RedisStore) scanPattern(ctx context.Context, base, prefix string) (map[string]float64, error) {
	out := make(map[string]float64)
	iter := s.rdb.Scan(ctx, 0, base+prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		v, err := s.rdb.Get(ctx, full).Float64()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("redis scan get %s: %w", full, err)
		}
		out[strings.TrimPrefix(full, base)] = v
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

// Delete removes a key.
func (s *RedisStore) Delete(ctx context.Context, kind Kind, key string) error {
	if err := s.rdb.Del(ctx, liveKey(kind, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", kind, key, err)
	}
	return nil
}

// DeleteAll clears a model's table.
func (s *RedisStore) DeleteAll(ctx context.Context, kind Kind) error {
	return s.deletePattern(ctx, livePrefix(kind))
}

func (s *RedisStore) deletePattern(ctx context.Context, prefix string) error {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 256).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 256 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del batch: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) > 0 {
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del batch: %w", err)
		}
	}
	return nil
}

// Snapshot copies the live table of kind into a named backup.
func (s *RedisStore) Snapshot(ctx context.Context, kind Kind, name string) error {
	if err := s.deletePattern(ctx, snapPrefix(kind, name)); err != nil {
		return err
	}
	entries, err := s.Scan(ctx, kind, "")
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, snapKey(kind, name, k), v, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis snapshot %s@%s: %w", kind, name, err)
	}
	return nil
}

// Restore replaces the live table of kind with the named backup.
func (s *RedisStore) Restore(ctx context.Context, kind Kind, name string) error {
	entries, err := s.scanPattern(ctx, snapPrefix(kind, name), "")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("restore %s@%s: %w", kind, name, ErrNotFound)
	}
	if err := s.DeleteAll(ctx, kind); err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, liveKey(kind, k), v, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis restore %s@%s: %w", kind, name, err)
	}
	return nil
}
