package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradesparky/pricewatch/internal/db"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and local
// runs without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	suppliers map[string]int64
	products  map[string]db.Product // key: supplierID/sku
	deals     map[string]db.Deal    // key: supplierID/title
	coupons   map[string]db.Coupon  // key: supplierID/code
	jobs      map[string]db.ScrapeJob
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		suppliers: make(map[string]int64),
		products:  make(map[string]db.Product),
		deals:     make(map[string]db.Deal),
		coupons:   make(map[string]db.Coupon),
		jobs:      make(map[string]db.ScrapeJob),
		nextID:    1,
	}
}

func (m *MemoryStore) nextIDLocked() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func productKey(supplierID int64, sku string) string {
	return fmt.Sprintf("%d/%s", supplierID, sku)
}

func (m *MemoryStore) CreateSupplier(ctx context.Context, slug, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.suppliers[slug]; ok {
		return id, nil
	}
	id := m.nextIDLocked()
	m.suppliers[slug] = id
	return id, nil
}

func (m *MemoryStore) ResolveSupplier(ctx context.Context, slug string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.suppliers[slug]
	if !ok {
		return 0, db.ErrSupplierNotFound
	}
	return id, nil
}

func (m *MemoryStore) UpsertProducts(ctx context.Context, products []db.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		key := productKey(p.SupplierID, p.SKU)
		if existing, ok := m.products[key]; ok {
			p.ID = existing.ID
		} else {
			p.ID = m.nextIDLocked()
		}
		m.products[key] = p
	}
	return nil
}

func (m *MemoryStore) UpsertDeals(ctx context.Context, deals []db.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range deals {
		key := fmt.Sprintf("%d/%s", d.SupplierID, d.Title)
		if existing, ok := m.deals[key]; ok {
			d.ID = existing.ID
		} else {
			d.ID = m.nextIDLocked()
		}
		m.deals[key] = d
	}
	return nil
}

func (m *MemoryStore) UpsertCoupons(ctx context.Context, coupons []db.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range coupons {
		key := fmt.Sprintf("%d/%s", c.SupplierID, c.Code)
		if existing, ok := m.coupons[key]; ok {
			c.ID = existing.ID
		} else {
			c.ID = m.nextIDLocked()
		}
		m.coupons[key] = c
	}
	return nil
}

func (m *MemoryStore) FindProductID(ctx context.Context, supplierID int64, sku string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productKey(supplierID, sku)]
	if !ok {
		return 0, db.ErrProductNotFound
	}
	return p.ID, nil
}

func (m *MemoryStore) ProductsBySupplier(ctx context.Context, supplierID int64) ([]db.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []db.Product
	for _, p := range m.products {
		if p.SupplierID == supplierID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) ActiveDealsBySupplier(ctx context.Context, supplierID int64) ([]db.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []db.Deal
	for _, d := range m.deals {
		if d.SupplierID == supplierID && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStore) CouponsBySupplier(ctx context.Context, supplierID int64) ([]db.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []db.Coupon
	for _, c := range m.coupons {
		if c.SupplierID == supplierID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateJob(ctx context.Context, job *db.ScrapeJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStore) FinishJob(ctx context.Context, job *db.ScrapeJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.jobs[job.ID]
	if !ok {
		return db.ErrJobNotFound
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("scrape job %s already finished", job.ID)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id string) (*db.ScrapeJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, db.ErrJobNotFound
	}
	return &job, nil
}

func (m *MemoryStore) ExpireDeals(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var flipped int64
	for key, d := range m.deals {
		if d.IsActive && d.ExpiresAt.Before(now) {
			d.IsActive = false
			m.deals[key] = d
			flipped++
		}
	}
	return flipped, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
