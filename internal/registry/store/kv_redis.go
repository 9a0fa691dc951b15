package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"assetd/pkg/platform/sentinel"
)

// Redis key prefix for registry entries.
const redisKeyPrefix = "assetd:"

// RedisBackend stores registry keys in Redis. Apply WATCHes the read set and
// writes through MULTI/EXEC, so a concurrent change to any watched key
// aborts the commit.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend constructs a Redis-backed registry backend.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func redisKey(key []byte) string {
	return redisKeyPrefix + string(key)
}

func (r *RedisBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (r *RedisBackend) Apply(ctx context.Context, batch *Batch) error {
	keys := batch.ReadKeys()
	watched := make([]string, len(keys))
	for i, key := range keys {
		watched[i] = redisKey(key)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, read := range batch.Reads {
			v, err := tx.Get(ctx, redisKey(read.Key)).Bytes()
			present := true
			if errors.Is(err, redis.Nil) {
				present = false
			} else if err != nil {
				return fmt.Errorf("redis get watched key: %w", err)
			}
			if !read.Matches(v, present) {
				return sentinel.ErrConflict
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range batch.Writes {
				pipe.Set(ctx, redisKey(w.Key), w.Value, 0)
			}
			return nil
		})
		return err
	}, watched...)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}

// Close is a no-op; the client lifecycle is managed externally.
func (r *RedisBackend) Close() error { return nil }
