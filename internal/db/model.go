package db

import (
	"errors"
	"time"
)

// ErrSupplierNotFound is returned when a slug has no supplier row.
var ErrSupplierNotFound = errors.New("supplier not found")

// ErrProductNotFound is returned when a (supplier, sku) pair has no product row.
var ErrProductNotFound = errors.New("product not found")

// ErrJobNotFound is returned when a scrape job ID is unknown.
var ErrJobNotFound = errors.New("scrape job not found")

// Supplier is a merchant whose catalogue we cache. The slug is the stable
// external key; the ID is assigned by the store.
type Supplier struct {
	ID   int64  `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`
	Name string `db:"name" json:"name"`
}

// Product is one cached catalogue row. Uniqueness is on (supplier_id, sku);
// upserting the same key again overwrites the row.
type Product struct {
	ID           int64     `db:"id" json:"id"`
	SupplierID   int64     `db:"supplier_id" json:"supplier_id"`
	SKU          string    `db:"sku" json:"sku"`
	Name         string    `db:"name" json:"name"`
	Price        float64   `db:"price" json:"price"`
	RegularPrice float64   `db:"regular_price" json:"regular_price"`
	OnSale       bool      `db:"on_sale" json:"on_sale"`
	DiscountPct  float64   `db:"discount_pct" json:"discount_pct"`
	Description  string    `db:"description" json:"description,omitempty"`
	Category     string    `db:"category" json:"category,omitempty"`
	ImageURL     string    `db:"image_url" json:"image_url,omitempty"`
	ProductURL   string    `db:"product_url" json:"product_url,omitempty"`
	InStock      bool      `db:"in_stock" json:"in_stock"`
	ScrapedAt    time.Time `db:"scraped_at" json:"scraped_at"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
}

// Deal is a time-limited offer. ProductID is a best-effort SKU match made at
// write time; nil means the deal could not be linked to a cached product.
type Deal struct {
	ID            int64     `db:"id" json:"id"`
	SupplierID    int64     `db:"supplier_id" json:"supplier_id"`
	ProductID     *int64    `db:"product_id" json:"product_id,omitempty"`
	SKU           string    `db:"sku" json:"sku,omitempty"`
	Title         string    `db:"title" json:"title"`
	DealPrice     float64   `db:"deal_price" json:"deal_price"`
	OriginalPrice float64   `db:"original_price" json:"original_price"`
	DiscountPct   float64   `db:"discount_pct" json:"discount_pct"`
	DealURL       string    `db:"deal_url" json:"deal_url,omitempty"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	IsActive      bool      `db:"is_active" json:"is_active"`
}

// Coupon is a discount code. Uniqueness is on (supplier_id, code); re-scraping
// refreshes the terms instead of creating duplicates.
type Coupon struct {
	ID            int64      `db:"id" json:"id"`
	SupplierID    int64      `db:"supplier_id" json:"supplier_id"`
	Code          string     `db:"code" json:"code"`
	Description   string     `db:"description" json:"description,omitempty"`
	DiscountType  string     `db:"discount_type" json:"discount_type"`
	DiscountValue float64    `db:"discount_value" json:"discount_value"`
	ValidFrom     *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil    *time.Time `db:"valid_until" json:"valid_until,omitempty"`
}

// JobStatus is the lifecycle state of a scrape job. A job moves from running
// to exactly one terminal state and is never re-opened.
type JobStatus string

const (
	JobStatusRunning         JobStatus = "running"
	JobStatusSucceeded       JobStatus = "succeeded"
	JobStatusPartiallyFailed JobStatus = "partially_failed"
	JobStatusFailed          JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusPartiallyFailed || s == JobStatusFailed
}

// ScrapeJob records one pipeline run.
type ScrapeJob struct {
	ID            string     `db:"id" json:"id"`
	SupplierSlug  string     `db:"supplier_slug" json:"supplier_slug"`
	Status        JobStatus  `db:"status" json:"status"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	ProductsSaved int        `db:"products_saved" json:"products_saved"`
	DealsSaved    int        `db:"deals_saved" json:"deals_saved"`
	CouponsSaved  int        `db:"coupons_saved" json:"coupons_saved"`
	ErrorCount    int        `db:"error_count" json:"error_count"`
	Errors        []string   `db:"errors" json:"errors,omitempty"`
}

// Schema is the SQL schema for the price cache tables
const Schema = `
CREATE TABLE IF NOT EXISTS suppliers (
    id BIGSERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    supplier_id BIGINT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    sku TEXT NOT NULL,
    name TEXT NOT NULL,
    price DOUBLE PRECISION NOT NULL DEFAULT 0,
    regular_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    on_sale BOOLEAN NOT NULL DEFAULT FALSE,
    discount_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    product_url TEXT NOT NULL DEFAULT '',
    in_stock BOOLEAN NOT NULL DEFAULT TRUE,
    scraped_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    UNIQUE (supplier_id, sku)
);

CREATE TABLE IF NOT EXISTS deals (
    id BIGSERIAL PRIMARY KEY,
    supplier_id BIGINT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    product_id BIGINT REFERENCES products(id) ON DELETE SET NULL,
    sku TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    deal_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    original_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    discount_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
    deal_url TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMPTZ NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    UNIQUE (supplier_id, title)
);

CREATE TABLE IF NOT EXISTS coupons (
    id BIGSERIAL PRIMARY KEY,
    supplier_id BIGINT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    code TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    discount_type TEXT NOT NULL DEFAULT '',
    discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
    valid_from TIMESTAMPTZ,
    valid_until TIMESTAMPTZ,
    UNIQUE (supplier_id, code)
);

CREATE TABLE IF NOT EXISTS scrape_jobs (
    id UUID PRIMARY KEY,
    supplier_slug TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    products_saved INTEGER NOT NULL DEFAULT 0,
    deals_saved INTEGER NOT NULL DEFAULT 0,
    coupons_saved INTEGER NOT NULL DEFAULT 0,
    error_count INTEGER NOT NULL DEFAULT 0,
    errors TEXT[] NOT NULL DEFAULT '{}'
);
`
