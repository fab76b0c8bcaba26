package ingest

import (
	"context"

	"github.com/tradesparky/pricewatch/internal/store"
)

// SupplierCache memoizes slug-to-ID lookups. It is owned by the caller and
// scoped to one pipeline run; misses are not cached, so an unknown slug is
// re-queried on the next call.
type SupplierCache struct {
	ids map[string]int64
}

func NewSupplierCache() *SupplierCache {
	return &SupplierCache{ids: make(map[string]int64)}
}

// Resolve returns the supplier ID for slug, consulting the cache first.
func (c *SupplierCache) Resolve(ctx context.Context, st store.Store, slug string) (int64, error) {
	if id, ok := c.ids[slug]; ok {
		return id, nil
	}
	id, err := st.ResolveSupplier(ctx, slug)
	if err != nil {
		return 0, err
	}
	c.ids[slug] = id
	return id, nil
}
