package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradesparky/pricewatch/internal/crawler"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/store"
	"go.uber.org/zap"
)

const (
	// ProductTTL is how long a cached product row stays fresh.
	ProductTTL = 7 * 24 * time.Hour
	// DealTTL is the default deal lifetime when the source omits an expiry.
	DealTTL = 24 * time.Hour
)

// Report is the aggregate outcome of one pipeline run.
type Report struct {
	JobID         string       `json:"job_id"`
	SupplierSlug  string       `json:"supplier_slug"`
	Status        db.JobStatus `json:"status"`
	ProductsSaved int          `json:"products_saved"`
	DealsSaved    int          `json:"deals_saved"`
	CouponsSaved  int          `json:"coupons_saved"`
	ErrorCount    int          `json:"error_count"`
	Errors        []string     `json:"errors,omitempty"`
	Duration      float64      `json:"duration_sec"`
}

// Pipeline ingests one supplier crawl: dedup, batch upsert, job recording.
// Execution is sequential within a run; per-run state (the supplier cache)
// is created here and discarded with the run.
type Pipeline struct {
	store     store.Store
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

func NewPipeline(st store.Store, logger *zap.Logger, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     st,
		logger:    logger.Named("ingest"),
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run persists one crawl result for the supplier identified by slug.
// An unknown slug short-circuits the run: every input record is counted as an
// error and nothing is written.
func (p *Pipeline) Run(ctx context.Context, slug string, result *crawler.ScrapeResult) (*Report, error) {
	start := p.now()
	job := &db.ScrapeJob{
		ID:           uuid.NewString(),
		SupplierSlug: slug,
		Status:       db.JobStatusRunning,
		StartedAt:    start,
	}
	if err := p.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create scrape job: %w", err)
	}

	cache := NewSupplierCache()
	supplierID, err := cache.Resolve(ctx, p.store, slug)
	if err != nil {
		if !errors.Is(err, db.ErrSupplierNotFound) {
			p.logger.Error("supplier resolution failed", zap.String("supplier", slug), zap.Error(err))
		}
		total := result.Len()
		job.ErrorCount = total
		job.Errors = []string{fmt.Sprintf("supplier %q: %v", slug, err)}
		job.Status = db.JobStatusFailed
		return p.finish(ctx, job, start)
	}

	now := p.now()

	products := make([]db.Product, 0, len(result.Products))
	for _, rec := range DedupProducts(result.Products) {
		products = append(products, db.Product{
			SupplierID:   supplierID,
			SKU:          rec.SKU,
			Name:         rec.Name,
			Price:        rec.Price,
			RegularPrice: rec.RegularPrice,
			OnSale:       rec.OnSale,
			DiscountPct:  rec.DiscountPct,
			Description:  rec.Description,
			Category:     rec.Category,
			ImageURL:     rec.ImageURL,
			ProductURL:   rec.ProductURL,
			InStock:      rec.InStock,
			ScrapedAt:    now,
			ExpiresAt:    now.Add(ProductTTL),
		})
	}
	saved, errs := upsertChunks(ctx, products, p.batchSize, p.store.UpsertProducts)
	job.ProductsSaved = saved
	job.Errors = append(job.Errors, errs...)
	recordSaved(ctx, "product", saved)
	recordFailed(ctx, "product", len(errs))

	deals := make([]db.Deal, 0, len(result.Deals))
	for _, rec := range result.Deals {
		deals = append(deals, db.Deal{
			SupplierID:    supplierID,
			ProductID:     p.linkProduct(ctx, supplierID, rec.SKU),
			SKU:           rec.SKU,
			Title:         rec.Title,
			DealPrice:     rec.DealPrice,
			OriginalPrice: rec.OriginalPrice,
			DiscountPct:   rec.DiscountPct,
			DealURL:       rec.DealURL,
			ExpiresAt:     dealExpiry(rec.ExpiresAt, now),
			IsActive:      true,
		})
	}
	saved, errs = upsertChunks(ctx, deals, p.batchSize, p.store.UpsertDeals)
	job.DealsSaved = saved
	job.Errors = append(job.Errors, errs...)
	recordSaved(ctx, "deal", saved)
	recordFailed(ctx, "deal", len(errs))

	coupons := make([]db.Coupon, 0, len(result.Coupons))
	for _, rec := range result.Coupons {
		coupons = append(coupons, db.Coupon{
			SupplierID:    supplierID,
			Code:          rec.Code,
			Description:   rec.Description,
			DiscountType:  rec.DiscountType,
			DiscountValue: rec.DiscountValue,
			ValidFrom:     rec.ValidFrom,
			ValidUntil:    rec.ValidUntil,
		})
	}
	saved, errs = upsertChunks(ctx, coupons, p.batchSize, p.store.UpsertCoupons)
	job.CouponsSaved = saved
	job.Errors = append(job.Errors, errs...)
	recordSaved(ctx, "coupon", saved)
	recordFailed(ctx, "coupon", len(errs))

	job.ErrorCount = len(job.Errors)
	return p.finish(ctx, job, start)
}

// linkProduct resolves a deal's SKU to a cached product ID. Best effort: a
// miss or lookup failure leaves the deal unlinked rather than failing the row.
func (p *Pipeline) linkProduct(ctx context.Context, supplierID int64, sku string) *int64 {
	if sku == "" {
		return nil
	}
	id, err := p.store.FindProductID(ctx, supplierID, sku)
	if err != nil {
		if !errors.Is(err, db.ErrProductNotFound) {
			p.logger.Warn("product lookup for deal failed", zap.String("sku", sku), zap.Error(err))
		}
		return nil
	}
	return &id
}

func dealExpiry(expires *time.Time, now time.Time) time.Time {
	if expires != nil {
		return *expires
	}
	return now.Add(DealTTL)
}

// upsertChunks writes rows in fixed-size batches. A failed batch falls back
// to row-by-row writes so one bad row no longer takes its batchmates with it;
// rows that still fail are returned as error strings.
func upsertChunks[T any](ctx context.Context, rows []T, size int, write func(context.Context, []T) error) (saved int, errs []string) {
	for _, chunk := range Chunks(rows, size) {
		if err := write(ctx, chunk); err == nil {
			saved += len(chunk)
			continue
		}
		for i := range chunk {
			if err := write(ctx, chunk[i:i+1]); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			saved++
		}
	}
	return saved, errs
}

func (p *Pipeline) finish(ctx context.Context, job *db.ScrapeJob, start time.Time) (*Report, error) {
	if !job.Status.Terminal() {
		job.Status = deriveStatus(job)
	}
	finished := p.now()
	job.FinishedAt = &finished
	if err := p.store.FinishJob(ctx, job); err != nil {
		p.logger.Error("failed to record job result", zap.String("job_id", job.ID), zap.Error(err))
	}
	recordRun(ctx, string(job.Status))

	report := &Report{
		JobID:         job.ID,
		SupplierSlug:  job.SupplierSlug,
		Status:        job.Status,
		ProductsSaved: job.ProductsSaved,
		DealsSaved:    job.DealsSaved,
		CouponsSaved:  job.CouponsSaved,
		ErrorCount:    job.ErrorCount,
		Errors:        job.Errors,
		Duration:      finished.Sub(start).Seconds(),
	}
	p.logger.Info("scrape run finished",
		zap.String("job_id", job.ID),
		zap.String("supplier", job.SupplierSlug),
		zap.String("status", string(job.Status)),
		zap.Int("products_saved", job.ProductsSaved),
		zap.Int("deals_saved", job.DealsSaved),
		zap.Int("coupons_saved", job.CouponsSaved),
		zap.Int("errors", job.ErrorCount),
	)
	return report, nil
}

// deriveStatus maps counts to a terminal state: no errors is a clean run,
// errors alongside saved records is a degraded run, errors with nothing
// saved is a failed run.
func deriveStatus(job *db.ScrapeJob) db.JobStatus {
	saved := job.ProductsSaved + job.DealsSaved + job.CouponsSaved
	switch {
	case job.ErrorCount == 0:
		return db.JobStatusSucceeded
	case saved > 0:
		return db.JobStatusPartiallyFailed
	default:
		return db.JobStatusFailed
	}
}
