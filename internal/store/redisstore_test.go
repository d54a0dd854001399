package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a RedisStore backed by an in-process miniredis,
// torn down with the test.
func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	st, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "test/pool")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return st, mr
}

func TestNewRedisStore(t *testing.T) {
	t.Run("rejects empty pool", func(t *testing.T) {
		_, err := NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "pool name cannot be empty")
	})

	t.Run("ping", func(t *testing.T) {
		st, _ := setupRedisStore(t)
		assert.NoError(t, st.Ping(context.Background()))
	})
}

func TestRedisStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	st, mr := setupRedisStore(t)

	t.Run("round trip", func(t *testing.T) {
		b := storeTestBatch("1-20260101120000-aaaa1111", 1, time.Now().UTC())
		require.NoError(t, st.SaveBatch(ctx, b))

		got, err := st.GetBatch(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		assert.Equal(t, b.PrimaryIssue, got.PrimaryIssue)
	})

	t.Run("keys are namespaced by pool", func(t *testing.T) {
		assert.True(t, mr.Exists("drey:test/pool:batch:1-20260101120000-aaaa1111"))
	})

	t.Run("get missing batch", func(t *testing.T) {
		_, err := st.GetBatch(ctx, "absent")
		assert.True(t, IsNotFound(err))
	})

	t.Run("invalid batch rejected", func(t *testing.T) {
		b := storeTestBatch("2-20260101120000-bbbb2222", 2, time.Now().UTC())
		b.Pool = ""
		assert.Error(t, st.SaveBatch(ctx, b))
	})
}

func TestRedisStoreListBatches(t *testing.T) {
	ctx := context.Background()
	st, mr := setupRedisStore(t)

	t.Run("empty store", func(t *testing.T) {
		batches, err := st.ListBatches(ctx)
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("most recent first", func(t *testing.T) {
		base := time.Now().UTC()
		old := storeTestBatch("1-20260101120000-aaaa1111", 1, base.Add(-time.Hour))
		recent := storeTestBatch("2-20260101120000-bbbb2222", 2, base)

		require.NoError(t, st.SaveBatch(ctx, old))
		require.NoError(t, st.SaveBatch(ctx, recent))

		batches, err := st.ListBatches(ctx)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, recent.ID, batches[0].ID)
		assert.Equal(t, old.ID, batches[1].ID)
	})

	t.Run("skips malformed records", func(t *testing.T) {
		require.NoError(t, mr.Set("drey:test/pool:batch:corrupt", "{truncated"))

		batches, err := st.ListBatches(ctx)
		require.NoError(t, err)
		assert.Len(t, batches, 2)
	})

	t.Run("ignores other pools", func(t *testing.T) {
		require.NoError(t, mr.Set("drey:other/pool:batch:x", "{}"))

		batches, err := st.ListBatches(ctx)
		require.NoError(t, err)
		assert.Len(t, batches, 2)
	})
}

func TestRedisStoreRemoveBatch(t *testing.T) {
	ctx := context.Background()
	st, _ := setupRedisStore(t)

	b := storeTestBatch("1-20260101120000-aaaa1111", 1, time.Now().UTC())
	require.NoError(t, st.SaveBatch(ctx, b))

	require.NoError(t, st.RemoveBatch(ctx, b.ID))

	_, err := st.GetBatch(ctx, b.ID)
	assert.True(t, IsNotFound(err))

	err = st.RemoveBatch(ctx, b.ID)
	assert.True(t, IsNotFound(err))
}

func TestRedisStoreIndex(t *testing.T) {
	ctx := context.Background()
	st, _ := setupRedisStore(t)

	t.Run("fresh pool yields empty index", func(t *testing.T) {
		idx, err := st.LoadIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
	})

	t.Run("round trip", func(t *testing.T) {
		idx := NewIndex()
		idx.Assign(3, "batch-c")
		require.NoError(t, st.SaveIndex(ctx, idx))

		got, err := st.LoadIndex(ctx)
		require.NoError(t, err)
		id, ok := got.BatchFor(3)
		require.True(t, ok)
		assert.Equal(t, "batch-c", id)
	})
}
