package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/pkg/batch"
)

// RedisStore is an alternate Store backed by Redis, for deployments where
// several tools share one batch pool. All keys are namespaced by pool name
// so multiple pools can safely coexist on a single Redis server.
//
// Records are stored as JSON strings:
//
//	drey:{pool}:batch:{id}   one batch record
//	drey:{pool}:index        the issue-to-batch index
type RedisStore struct {
	rdb  *redis.Client
	pool string
}

// NewRedisStore creates a Redis-backed store for the given pool.
// Returns an error if pool is empty.
func NewRedisStore(redisOpts *redis.Options, pool string) (*RedisStore, error) {
	if pool == "" {
		return nil, fmt.Errorf("pool name cannot be empty")
	}

	return &RedisStore{
		rdb:  redis.NewClient(redisOpts),
		pool: pool,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) batchKey(id string) string {
	return fmt.Sprintf("drey:%s:batch:%s", s.pool, id)
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf("drey:%s:index", s.pool)
}

// SaveBatch validates the batch, refreshes its UpdatedAt, and writes it to
// Redis. Create-or-overwrite keyed by batch ID.
func (s *RedisStore) SaveBatch(ctx context.Context, b *batch.Batch) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	b.Touch()

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	if err := s.rdb.Set(ctx, s.batchKey(b.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write batch %s to Redis: %w", b.ID, err)
	}

	return nil
}

// GetBatch loads a batch by ID. Returns ErrNotFound if no record exists.
func (s *RedisStore) GetBatch(ctx context.Context, id string) (*batch.Batch, error) {
	data, err := s.rdb.Get(ctx, s.batchKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("batch %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read batch %s from Redis: %w", id, err)
	}

	var b batch.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to deserialize batch %s: %w", id, err)
	}

	return &b, nil
}

// ListBatches loads all batch records for the pool via SCAN, most recently
// created first. Malformed records are skipped with a warning to stderr.
func (s *RedisStore) ListBatches(ctx context.Context) ([]*batch.Batch, error) {
	pattern := fmt.Sprintf("drey:%s:batch:*", s.pool)
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()

	var batches []*batch.Batch
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue // deleted between SCAN and GET
			}
			return nil, fmt.Errorf("failed to read batch key %s: %w", key, err)
		}

		var b batch.Batch
		if err := json.Unmarshal(data, &b); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping malformed batch record %s: %v\n", key, err)
			continue
		}

		batches = append(batches, &b)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan batches: %w", err)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})

	return batches, nil
}

// RemoveBatch deletes a batch record. Returns ErrNotFound if no record exists.
func (s *RedisStore) RemoveBatch(ctx context.Context, id string) error {
	deleted, err := s.rdb.Del(ctx, s.batchKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove batch %s from Redis: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	return nil
}

// LoadIndex reads the issue index from Redis. A missing key yields an empty
// index, so a fresh pool starts cleanly.
func (s *RedisStore) LoadIndex(ctx context.Context) (*Index, error) {
	data, err := s.rdb.Get(ctx, s.indexKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to read index from Redis: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to deserialize index: %w", err)
	}
	if idx.IssueToBatch == nil {
		idx.IssueToBatch = make(map[int]string)
	}

	return &idx, nil
}

// SaveIndex stamps and writes the issue index to Redis.
func (s *RedisStore) SaveIndex(ctx context.Context, idx *Index) error {
	idx.UpdatedAt = nowUTC()

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to serialize index: %w", err)
	}

	if err := s.rdb.Set(ctx, s.indexKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write index to Redis: %w", err)
	}

	return nil
}
