package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(2)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	counts := []int{1, 2}
	require.NoError(t, cache.Put(ctx, "a", counts))
	counts[0] = 99

	got, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, got)

	require.NoError(t, cache.Put(ctx, "b", []int{3}))
	require.NoError(t, cache.Put(ctx, "c", []int{4}))
	assert.Equal(t, 2, cache.Len())
	_, ok, _ = cache.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry must be evicted")
}

func TestNewMemoryCacheRejectsBadSize(t *testing.T) {
	_, err := NewMemoryCache(0)
	assert.Error(t, err)
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "counts.db")

	cache, err := NewSQLiteCache(ctx, dbPath)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "words:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "words:abc", []int{3, 0, 4}))
	require.NoError(t, cache.Put(ctx, "words:abc", []int{3, 0, 5}))
	require.NoError(t, cache.Close())

	reopened, err := NewSQLiteCache(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "words:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{3, 0, 5}, got)

	n, err := reopened.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteCacheRejectsNegativeCounts(t *testing.T) {
	ctx := context.Background()
	cache, err := NewSQLiteCache(ctx, filepath.Join(t.TempDir(), "counts.db"))
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.db.ExecContext(ctx,
		`INSERT INTO line_counts (cache_key, num_lines, counts, updated_at) VALUES (?, ?, ?, ?)`,
		"words:bad", 2, "[3,-1]", 0)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "words:bad")
	assert.ErrorContains(t, err, "negative count -1 at line 1")
	assert.False(t, ok)
}

func TestTieredCacheFillsFastTier(t *testing.T) {
	ctx := context.Background()
	fast, err := NewMemoryCache(8)
	require.NoError(t, err)
	slow, err := NewMemoryCache(8)
	require.NoError(t, err)
	require.NoError(t, slow.Put(ctx, "k", []int{7}))

	tiered := NewTieredCache(fast, slow)
	got, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 1, fast.Len())

	require.NoError(t, tiered.Put(ctx, "j", []int{1, 1}))
	assert.Equal(t, 2, slow.Len())

	_, ok, err = tiered.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
