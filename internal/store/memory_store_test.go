package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradesparky/pricewatch/internal/db"
)

func TestMemoryStore_UpsertProductsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	supplierID, err := m.CreateSupplier(ctx, "screwfix", "Screwfix")
	require.NoError(t, err)

	first := []db.Product{{SupplierID: supplierID, SKU: "CAB-25", Name: "Cable", Price: 62.99}}
	require.NoError(t, m.UpsertProducts(ctx, first))

	second := []db.Product{{SupplierID: supplierID, SKU: "CAB-25", Name: "Cable", Price: 58.50}}
	require.NoError(t, m.UpsertProducts(ctx, second))

	products, err := m.ProductsBySupplier(ctx, supplierID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 58.50, products[0].Price)

	// The row keeps its identity across rewrites.
	id, err := m.FindProductID(ctx, supplierID, "CAB-25")
	require.NoError(t, err)
	require.Equal(t, products[0].ID, id)
}

func TestMemoryStore_CreateSupplierIsStable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	id1, err := m.CreateSupplier(ctx, "screwfix", "Screwfix")
	require.NoError(t, err)
	id2, err := m.CreateSupplier(ctx, "screwfix", "Screwfix Ltd")
	require.NoError(t, err)
	require.Equal(t, id1, id2, "re-registering a slug must return the existing ID")

	resolved, err := m.ResolveSupplier(ctx, "screwfix")
	require.NoError(t, err)
	require.Equal(t, id1, resolved)

	_, err = m.ResolveSupplier(ctx, "unknown")
	require.ErrorIs(t, err, db.ErrSupplierNotFound)
}

func TestMemoryStore_ExpireDeals(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	supplierID, err := m.CreateSupplier(ctx, "toolstation", "Toolstation")
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deals := []db.Deal{
		{SupplierID: supplierID, Title: "expired-active", ExpiresAt: now.Add(-time.Hour), IsActive: true},
		{SupplierID: supplierID, Title: "future-active", ExpiresAt: now.Add(time.Hour), IsActive: true},
		{SupplierID: supplierID, Title: "expired-inactive", ExpiresAt: now.Add(-time.Hour), IsActive: false},
	}
	require.NoError(t, m.UpsertDeals(ctx, deals))

	flipped, err := m.ExpireDeals(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), flipped, "only active deals past their expiry flip")

	active, err := m.ActiveDealsBySupplier(ctx, supplierID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "future-active", active[0].Title)

	// A second pass finds nothing left to flip.
	flipped, err = m.ExpireDeals(ctx, now)
	require.NoError(t, err)
	require.Zero(t, flipped)
}

func TestMemoryStore_FinishJobOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	job := &db.ScrapeJob{ID: "job-1", SupplierSlug: "screwfix", Status: db.JobStatusRunning, StartedAt: time.Now()}
	require.NoError(t, m.CreateJob(ctx, job))

	finished := time.Now()
	job.Status = db.JobStatusSucceeded
	job.FinishedAt = &finished
	require.NoError(t, m.FinishJob(ctx, job))

	// Finished jobs are never re-opened or rewritten.
	job.Status = db.JobStatusFailed
	require.Error(t, m.FinishJob(ctx, job))

	got, err := m.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, db.JobStatusSucceeded, got.Status)

	require.ErrorIs(t, m.FinishJob(ctx, &db.ScrapeJob{ID: "missing"}), db.ErrJobNotFound)
	_, err = m.GetJob(ctx, "missing")
	require.ErrorIs(t, err, db.ErrJobNotFound)
}

func TestMemoryStore_UpsertCouponsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	supplierID, err := m.CreateSupplier(ctx, "cef", "CEF")
	require.NoError(t, err)

	require.NoError(t, m.UpsertCoupons(ctx, []db.Coupon{
		{SupplierID: supplierID, Code: "SPARK10", DiscountType: "percent", DiscountValue: 10},
	}))
	require.NoError(t, m.UpsertCoupons(ctx, []db.Coupon{
		{SupplierID: supplierID, Code: "SPARK10", DiscountType: "percent", DiscountValue: 15},
	}))

	coupons, err := m.CouponsBySupplier(ctx, supplierID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	require.Equal(t, 15.0, coupons[0].DiscountValue)
}
