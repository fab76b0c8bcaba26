package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/store/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
	cb     *gobreaker.CircuitBreaker
	ops    metric.Int64Counter
}

func NewStore(config shared.ProviderConfig, logger *zap.Logger, meter metric.Meter) (*Store, error) {
	pgLogger := logger.Named("postgres")

	connStr, ok := config.ExtraDetails["conn_str"].(string)
	if !ok {
		return nil, fmt.Errorf("conn_str is required for Postgres store")
	}
	pgLogger.Info("initializing Postgres store")

	dbConn, err := sql.Open("postgres", connStr)
	if err != nil {
		pgLogger.Error("failed to open Postgres connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	if err := dbConn.Ping(); err != nil {
		pgLogger.Error("failed to ping Postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	// Automatically create tables if they do not exist
	if _, err := dbConn.Exec(db.Schema); err != nil {
		pgLogger.Error("failed to create initial tables", zap.Error(err))
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PostgresStore",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	var ops metric.Int64Counter
	if meter != nil {
		ops, err = meter.Int64Counter("store_operations_total",
			metric.WithDescription("Store write operations, by name and outcome"))
		if err != nil {
			return nil, err
		}
	}

	pgLogger.Info("Postgres store initialized successfully")
	return &Store{
		db:     dbConn,
		logger: pgLogger,
		cb:     cb,
		ops:    ops,
	}, nil
}

// execWithRetry runs fn through the circuit breaker with backoff retries.
func (s *Store) execWithRetry(op string, fn func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	var opErr error
	retry.Do(
		func() error {
			res, err := s.cb.Execute(fn)
			if err == nil {
				result = res
			}
			opErr = err
			return err
		},
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Not-found and constraint errors don't get better on retry.
			return !errors.Is(err, db.ErrSupplierNotFound) &&
				!errors.Is(err, db.ErrProductNotFound) &&
				!errors.Is(err, db.ErrJobNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("retrying "+op, zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if s.ops != nil {
		outcome := "ok"
		if opErr != nil {
			outcome = "error"
		}
		s.ops.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
	}
	return result, opErr
}

func (s *Store) CreateSupplier(ctx context.Context, slug, name string) (int64, error) {
	res, err := s.execWithRetry("CreateSupplier", func() (interface{}, error) {
		var id int64
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO suppliers (slug, name) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name=EXCLUDED.name
			RETURNING id
		`, slug, name).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert supplier: %w", err)
		}
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *Store) ResolveSupplier(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM suppliers WHERE slug = $1`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, db.ErrSupplierNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve supplier %q: %w", slug, err)
	}
	return id, nil
}

func (s *Store) UpsertProducts(ctx context.Context, products []db.Product) error {
	if len(products) == 0 {
		return nil
	}
	_, err := s.execWithRetry("UpsertProducts", func() (interface{}, error) {
		const cols = 14
		valueStrings := make([]string, 0, len(products))
		valueArgs := make([]interface{}, 0, len(products)*cols)
		for i, p := range products {
			base := i * cols
			placeholders := make([]string, cols)
			for j := range placeholders {
				placeholders[j] = fmt.Sprintf("$%d", base+j+1)
			}
			valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
			valueArgs = append(valueArgs,
				p.SupplierID, p.SKU, p.Name, p.Price, p.RegularPrice, p.OnSale,
				p.DiscountPct, p.Description, p.Category, p.ImageURL, p.ProductURL,
				p.InStock, p.ScrapedAt, p.ExpiresAt,
			)
		}
		stmt := fmt.Sprintf(`
			INSERT INTO products
			(supplier_id, sku, name, price, regular_price, on_sale, discount_pct,
			 description, category, image_url, product_url, in_stock, scraped_at, expires_at)
			VALUES %s
			ON CONFLICT (supplier_id, sku) DO UPDATE SET
				name=EXCLUDED.name, price=EXCLUDED.price, regular_price=EXCLUDED.regular_price,
				on_sale=EXCLUDED.on_sale, discount_pct=EXCLUDED.discount_pct,
				description=EXCLUDED.description, category=EXCLUDED.category,
				image_url=EXCLUDED.image_url, product_url=EXCLUDED.product_url,
				in_stock=EXCLUDED.in_stock, scraped_at=EXCLUDED.scraped_at,
				expires_at=EXCLUDED.expires_at
		`, strings.Join(valueStrings, ","))
		if _, err := s.db.ExecContext(ctx, stmt, valueArgs...); err != nil {
			return nil, fmt.Errorf("failed to bulk upsert products: %w", err)
		}
		return nil, nil
	})
	return err
}

func (s *Store) UpsertDeals(ctx context.Context, deals []db.Deal) error {
	if len(deals) == 0 {
		return nil
	}
	_, err := s.execWithRetry("UpsertDeals", func() (interface{}, error) {
		const cols = 10
		valueStrings := make([]string, 0, len(deals))
		valueArgs := make([]interface{}, 0, len(deals)*cols)
		for i, d := range deals {
			base := i * cols
			placeholders := make([]string, cols)
			for j := range placeholders {
				placeholders[j] = fmt.Sprintf("$%d", base+j+1)
			}
			valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
			valueArgs = append(valueArgs,
				d.SupplierID, d.ProductID, d.SKU, d.Title, d.DealPrice,
				d.OriginalPrice, d.DiscountPct, d.DealURL, d.ExpiresAt, d.IsActive,
			)
		}
		stmt := fmt.Sprintf(`
			INSERT INTO deals
			(supplier_id, product_id, sku, title, deal_price, original_price,
			 discount_pct, deal_url, expires_at, is_active)
			VALUES %s
			ON CONFLICT (supplier_id, title) DO UPDATE SET
				product_id=EXCLUDED.product_id, sku=EXCLUDED.sku,
				deal_price=EXCLUDED.deal_price, original_price=EXCLUDED.original_price,
				discount_pct=EXCLUDED.discount_pct, deal_url=EXCLUDED.deal_url,
				expires_at=EXCLUDED.expires_at, is_active=EXCLUDED.is_active
		`, strings.Join(valueStrings, ","))
		if _, err := s.db.ExecContext(ctx, stmt, valueArgs...); err != nil {
			return nil, fmt.Errorf("failed to bulk upsert deals: %w", err)
		}
		return nil, nil
	})
	return err
}

func (s *Store) UpsertCoupons(ctx context.Context, coupons []db.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}
	_, err := s.execWithRetry("UpsertCoupons", func() (interface{}, error) {
		const cols = 7
		valueStrings := make([]string, 0, len(coupons))
		valueArgs := make([]interface{}, 0, len(coupons)*cols)
		for i, c := range coupons {
			base := i * cols
			placeholders := make([]string, cols)
			for j := range placeholders {
				placeholders[j] = fmt.Sprintf("$%d", base+j+1)
			}
			valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
			valueArgs = append(valueArgs,
				c.SupplierID, c.Code, c.Description, c.DiscountType,
				c.DiscountValue, c.ValidFrom, c.ValidUntil,
			)
		}
		stmt := fmt.Sprintf(`
			INSERT INTO coupons
			(supplier_id, code, description, discount_type, discount_value, valid_from, valid_until)
			VALUES %s
			ON CONFLICT (supplier_id, code) DO UPDATE SET
				description=EXCLUDED.description, discount_type=EXCLUDED.discount_type,
				discount_value=EXCLUDED.discount_value, valid_from=EXCLUDED.valid_from,
				valid_until=EXCLUDED.valid_until
		`, strings.Join(valueStrings, ","))
		if _, err := s.db.ExecContext(ctx, stmt, valueArgs...); err != nil {
			return nil, fmt.Errorf("failed to bulk upsert coupons: %w", err)
		}
		return nil, nil
	})
	return err
}

func (s *Store) FindProductID(ctx context.Context, supplierID int64, sku string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM products WHERE supplier_id = $1 AND sku = $2`,
		supplierID, sku).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, db.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find product %q: %w", sku, err)
	}
	return id, nil
}

func (s *Store) ProductsBySupplier(ctx context.Context, supplierID int64) ([]db.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, sku, name, price, regular_price, on_sale, discount_pct,
		       description, category, image_url, product_url, in_stock, scraped_at, expires_at
		FROM products
		WHERE supplier_id = $1
		ORDER BY sku ASC
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []db.Product
	for rows.Next() {
		var p db.Product
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.SKU, &p.Name, &p.Price, &p.RegularPrice,
			&p.OnSale, &p.DiscountPct, &p.Description, &p.Category, &p.ImageURL,
			&p.ProductURL, &p.InStock, &p.ScrapedAt, &p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ActiveDealsBySupplier(ctx context.Context, supplierID int64) ([]db.Deal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, product_id, sku, title, deal_price, original_price,
		       discount_pct, deal_url, expires_at, is_active
		FROM deals
		WHERE supplier_id = $1 AND is_active = TRUE
		ORDER BY expires_at ASC
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	var deals []db.Deal
	for rows.Next() {
		var d db.Deal
		if err := rows.Scan(&d.ID, &d.SupplierID, &d.ProductID, &d.SKU, &d.Title,
			&d.DealPrice, &d.OriginalPrice, &d.DiscountPct, &d.DealURL,
			&d.ExpiresAt, &d.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (s *Store) CouponsBySupplier(ctx context.Context, supplierID int64) ([]db.Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, code, description, discount_type, discount_value, valid_from, valid_until
		FROM coupons
		WHERE supplier_id = $1
		ORDER BY code ASC
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []db.Coupon
	for rows.Next() {
		var c db.Coupon
		if err := rows.Scan(&c.ID, &c.SupplierID, &c.Code, &c.Description,
			&c.DiscountType, &c.DiscountValue, &c.ValidFrom, &c.ValidUntil); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (s *Store) CreateJob(ctx context.Context, job *db.ScrapeJob) error {
	_, err := s.execWithRetry("CreateJob", func() (interface{}, error) {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO scrape_jobs (id, supplier_slug, status, started_at)
			VALUES ($1, $2, $3, $4)
		`, job.ID, job.SupplierSlug, job.Status, job.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create scrape job: %w", err)
		}
		return nil, nil
	})
	return err
}

func (s *Store) FinishJob(ctx context.Context, job *db.ScrapeJob) error {
	_, err := s.execWithRetry("FinishJob", func() (interface{}, error) {
		res, err := s.db.ExecContext(ctx, `
			UPDATE scrape_jobs SET
				status=$2, finished_at=$3, products_saved=$4, deals_saved=$5,
				coupons_saved=$6, error_count=$7, errors=$8
			WHERE id=$1 AND status=$9
		`, job.ID, job.Status, job.FinishedAt, job.ProductsSaved, job.DealsSaved,
			job.CouponsSaved, job.ErrorCount, pq.Array(job.Errors), db.JobStatusRunning)
		if err != nil {
			return nil, fmt.Errorf("failed to finish scrape job: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, db.ErrJobNotFound
		}
		return nil, nil
	})
	return err
}

func (s *Store) GetJob(ctx context.Context, id string) (*db.ScrapeJob, error) {
	var job db.ScrapeJob
	var errs pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT id, supplier_slug, status, started_at, finished_at,
		       products_saved, deals_saved, coupons_saved, error_count, errors
		FROM scrape_jobs WHERE id = $1
	`, id).Scan(&job.ID, &job.SupplierSlug, &job.Status, &job.StartedAt, &job.FinishedAt,
		&job.ProductsSaved, &job.DealsSaved, &job.CouponsSaved, &job.ErrorCount, &errs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scrape job: %w", err)
	}
	job.Errors = errs
	return &job, nil
}

func (s *Store) ExpireDeals(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.execWithRetry("ExpireDeals", func() (interface{}, error) {
		r, err := s.db.ExecContext(ctx, `
			UPDATE deals SET is_active = FALSE
			WHERE is_active = TRUE AND expires_at < $1
		`, now)
		if err != nil {
			return nil, fmt.Errorf("failed to expire deals: %w", err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
