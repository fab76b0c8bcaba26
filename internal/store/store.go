package store

import (
	"context"
	"time"

	"github.com/tradesparky/pricewatch/internal/db"
)

// Store is the persistence surface for the ingestion pipeline and the read API.
type Store interface {
	// CreateSupplier upserts a supplier by slug and returns its ID.
	CreateSupplier(ctx context.Context, slug, name string) (int64, error)
	// ResolveSupplier returns the internal ID for a slug, or db.ErrSupplierNotFound.
	ResolveSupplier(ctx context.Context, slug string) (int64, error)

	// UpsertProducts writes a batch keyed on (supplier_id, sku).
	UpsertProducts(ctx context.Context, products []db.Product) error
	// UpsertDeals writes a batch keyed on (supplier_id, title).
	UpsertDeals(ctx context.Context, deals []db.Deal) error
	// UpsertCoupons writes a batch keyed on (supplier_id, code).
	UpsertCoupons(ctx context.Context, coupons []db.Coupon) error

	// FindProductID resolves a SKU to a product ID, or db.ErrProductNotFound.
	FindProductID(ctx context.Context, supplierID int64, sku string) (int64, error)

	ProductsBySupplier(ctx context.Context, supplierID int64) ([]db.Product, error)
	ActiveDealsBySupplier(ctx context.Context, supplierID int64) ([]db.Deal, error)
	CouponsBySupplier(ctx context.Context, supplierID int64) ([]db.Coupon, error)

	CreateJob(ctx context.Context, job *db.ScrapeJob) error
	// FinishJob moves a job to a terminal state. Finished jobs are never re-opened.
	FinishJob(ctx context.Context, job *db.ScrapeJob) error
	GetJob(ctx context.Context, id string) (*db.ScrapeJob, error)

	// ExpireDeals deactivates active deals whose expiry is before now and
	// returns the number of rows flipped.
	ExpireDeals(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
