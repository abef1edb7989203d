//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

func TestChunkCollection_InsertSearchDelete(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	c := NewChunkCollection(pool, DistanceCosine)

	require.NoError(t, c.Insert(ctx, []domain.ChunkRecord{
		record(1, "a", 1, 0, 0),
		record(2, "a", 0, 1, 0),
		record(3, "b", 1, 1, 0),
	}))

	got, err := c.Search(ctx, []float32{1, 0, 0}, "", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ChunkID)
	assert.Equal(t, "a.pdf", got[0].DocumentName)
	assert.Equal(t, "uploaded_chunk_1", got[0].Section)
	assert.InDelta(t, 0, got[0].Distance, 1e-6)
	assert.Equal(t, int64(3), got[1].ChunkID)

	scoped, err := c.Search(ctx, []float32{1, 0, 0}, "b", 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "b", scoped[0].DocumentID)

	removed, err := c.DeleteByDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = c.DeleteByDocument(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, removed)

	maxID, err := c.MaxChunkID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxID)
}

func TestChunkCollection_InsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	c := NewChunkCollection(pool, DistanceCosine)

	require.NoError(t, c.Insert(ctx, []domain.ChunkRecord{record(1, "a", 1, 0)}))

	// second record collides on chunk_id, so the whole batch is rolled back
	err := c.Insert(ctx, []domain.ChunkRecord{record(2, "b", 1, 0), record(1, "b", 0, 1)})
	require.Error(t, err)

	got, err := c.Search(ctx, []float32{1, 0}, "b", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunkCollection_L2(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	c := NewChunkCollection(pool, DistanceL2)

	require.NoError(t, c.Insert(ctx, []domain.ChunkRecord{record(1, "a", 3, 4)}))

	got, err := c.Search(ctx, []float32{0, 0}, "", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 5, got[0].Distance, 1e-6)
}

func TestChunkCollection_ResetAndPing(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	c := NewChunkCollection(pool, DistanceCosine)

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Insert(ctx, []domain.ChunkRecord{record(1, "a", 1)}))
	require.NoError(t, c.Reset(ctx))

	maxID, err := c.MaxChunkID(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)
}

func TestChunkSequence_ReserveContiguous(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	seq := NewChunkSequence(pool)

	first, err := seq.Reserve(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	next, err := seq.Reserve(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := seq.Reserve(ctx, 5)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for j := int64(0); j < 5; j++ {
				seen[f+j] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)

	require.NoError(t, testutil.TruncateAll(ctx, pool))
	first, err = seq.Reserve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
}
