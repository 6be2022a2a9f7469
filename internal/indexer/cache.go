package indexer

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CountCache stores per-line token counts by cache key. Keys combine the
// tokenizer name and a hash of the file content.
type CountCache interface {
	Get(ctx context.Context, key string) ([]int, bool, error)
	Put(ctx context.Context, key string, counts []int) error
}

// MemoryCache is a bounded in-process LRU cache.
type MemoryCache struct {
	entries *lru.Cache[string, []int]
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	entries, err := lru.New[string, []int](size)
	if err != nil {
		return nil, fmt.Errorf("lru.New: %w", err)
	}
	return &MemoryCache{entries: entries}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]int, bool, error) {
	counts, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(counts), true, nil
}

func (m *MemoryCache) Put(_ context.Context, key string, counts []int) error {
	m.entries.Add(key, slices.Clone(counts))
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// TieredCache reads through a fast cache to a slower one and fills the fast
// cache on a slow hit.
type TieredCache struct {
	fast CountCache
	slow CountCache
}

// NewTieredCache layers fast over slow.
func NewTieredCache(fast, slow CountCache) *TieredCache {
	return &TieredCache{fast: fast, slow: slow}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]int, bool, error) {
	if counts, ok, err := t.fast.Get(ctx, key); err != nil || ok {
		return counts, ok, err
	}
	counts, ok, err := t.slow.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := t.fast.Put(ctx, key, counts); err != nil {
		return nil, false, err
	}
	return counts, true, nil
}

func (t *TieredCache) Put(ctx context.Context, key string, counts []int) error {
	if err := t.fast.Put(ctx, key, counts); err != nil {
		return err
	}
	return t.slow.Put(ctx, key, counts)
}
