package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/tradesparky/pricewatch/internal/crawler"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/ingest"
	"github.com/tradesparky/pricewatch/internal/store"
	"github.com/tradesparky/pricewatch/internal/sweep"
	"go.uber.org/zap"
)

func newScrapeRouter(t *testing.T, mem *store.MemoryStore, mock crawler.Client) *mux.Router {
	t.Helper()
	logger := zap.NewNop()
	pipeline := ingest.NewPipeline(mem, logger, ingest.DefaultBatchSize)
	sweeper, err := sweep.NewSweeper(mem, logger, nil)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewScrapeHandler(pipeline, mock, sweeper, logger).RegisterRoutes(router, logger)
	return router
}

func TestScrapeHandler_InlineRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	_, err := mem.CreateSupplier(ctx, "screwfix", "Screwfix")
	require.NoError(t, err)
	router := newScrapeRouter(t, mem, crawler.NewMockClient())

	body, err := json.Marshal(map[string]any{
		"records": crawler.ScrapeResult{
			Products: []crawler.ProductRecord{
				{SKU: "CAB-25", Name: "Cable", Price: 58.50, InStock: true},
			},
		},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/screwfix", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var report ingest.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, db.JobStatusSucceeded, report.Status)
	require.Equal(t, 1, report.ProductsSaved)
	require.NotEmpty(t, report.JobID)
}

func TestScrapeHandler_ValidatesBody(t *testing.T) {
	mem := store.NewMemoryStore()
	router := newScrapeRouter(t, mem, crawler.NewMockClient())

	// Neither url nor records.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/screwfix", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Both at once.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/screwfix",
		bytes.NewReader([]byte(`{"url": "https://example.co.uk", "records": {}}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed JSON.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/screwfix", bytes.NewReader([]byte(`{`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeHandler_CrawlsURL(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	_, err := mem.CreateSupplier(ctx, "toolstation", "Toolstation")
	require.NoError(t, err)

	mock := crawler.NewMockClient()
	mock.Results["https://toolstation.example/deals"] = &crawler.ScrapeResult{
		Deals: []crawler.DealRecord{{Title: "Bank holiday sale", DealPrice: 9.99}},
	}
	router := newScrapeRouter(t, mem, mock)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/toolstation",
		bytes.NewReader([]byte(`{"url": "https://toolstation.example/deals"}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"https://toolstation.example/deals"}, mock.Calls)

	var report ingest.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 1, report.DealsSaved)
}

func TestScrapeHandler_CrawlFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	mock := crawler.NewMockClient()
	mock.Err = errors.New("extraction timed out")
	router := newScrapeRouter(t, mem, mock)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scrape/screwfix",
		bytes.NewReader([]byte(`{"url": "https://example.co.uk"}`))))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	supplierID, err := mem.CreateSupplier(ctx, "screwfix", "Screwfix")
	require.NoError(t, err)
	require.NoError(t, mem.UpsertDeals(ctx, []db.Deal{
		{SupplierID: supplierID, Title: "long gone", ExpiresAt: time.Now().Add(-time.Hour), IsActive: true},
		{SupplierID: supplierID, Title: "still on", ExpiresAt: time.Now().Add(time.Hour), IsActive: true},
	}))
	router := newScrapeRouter(t, mem, crawler.NewMockClient())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sweep", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp["deals_expired"])
}
