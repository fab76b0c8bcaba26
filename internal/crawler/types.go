package crawler

import "time"

// ProductRecord is one raw product row extracted from a supplier page.
type ProductRecord struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	RegularPrice float64 `json:"regular_price"`
	OnSale       bool    `json:"on_sale"`
	DiscountPct  float64 `json:"discount_pct"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	ProductURL   string  `json:"product_url,omitempty"`
	InStock      bool    `json:"in_stock"`
}

// DealRecord is one raw deal row. ExpiresAt is nil when the source page
// carries no expiry.
type DealRecord struct {
	Title         string     `json:"title"`
	SKU           string     `json:"sku,omitempty"`
	DealPrice     float64    `json:"deal_price"`
	OriginalPrice float64    `json:"original_price"`
	DiscountPct   float64    `json:"discount_pct"`
	DealURL       string     `json:"deal_url,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// CouponRecord is one raw coupon row.
type CouponRecord struct {
	Code          string     `json:"code"`
	Description   string     `json:"description,omitempty"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
}

// ScrapeResult is everything extracted from one supplier crawl.
type ScrapeResult struct {
	Products []ProductRecord `json:"products"`
	Deals    []DealRecord    `json:"deals"`
	Coupons  []CouponRecord  `json:"coupons"`
}

// Len returns the total number of records in the result.
func (r *ScrapeResult) Len() int {
	return len(r.Products) + len(r.Deals) + len(r.Coupons)
}
