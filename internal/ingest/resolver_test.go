package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/store"
)

// countingStore counts ResolveSupplier calls passed through to the backing store.
type countingStore struct {
	store.Store
	resolveCalls int
}

func (s *countingStore) ResolveSupplier(ctx context.Context, slug string) (int64, error) {
	s.resolveCalls++
	return s.Store.ResolveSupplier(ctx, slug)
}

func TestSupplierCache_HitsSkipTheStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	id, err := mem.CreateSupplier(ctx, "screwfix", "Screwfix")
	require.NoError(t, err)

	counting := &countingStore{Store: mem}
	cache := NewSupplierCache()

	for i := 0; i < 3; i++ {
		got, err := cache.Resolve(ctx, counting, "screwfix")
		require.NoError(t, err)
		require.Equal(t, id, got)
	}
	require.Equal(t, 1, counting.resolveCalls, "repeat lookups should be served from the cache")
}

func TestSupplierCache_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	counting := &countingStore{Store: mem}
	cache := NewSupplierCache()

	_, err := cache.Resolve(ctx, counting, "late-arrival")
	require.ErrorIs(t, err, db.ErrSupplierNotFound)

	// The supplier shows up between lookups; the cache must re-query.
	id, err := mem.CreateSupplier(ctx, "late-arrival", "Late Arrival")
	require.NoError(t, err)

	got, err := cache.Resolve(ctx, counting, "late-arrival")
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.Equal(t, 2, counting.resolveCalls)
}
