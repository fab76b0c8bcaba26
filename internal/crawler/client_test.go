package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPClient_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/extract", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req scrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://example.co.uk/deals", req.URL)
		require.NotEmpty(t, req.Schema, "the default schema should be sent when none is given")

		json.NewEncoder(w).Encode(scrapeResponse{
			Success: true,
			Data: ScrapeResult{
				Products: []ProductRecord{{SKU: "CAB-25", Name: "Cable", Price: 58.50}},
				Coupons:  []CouponRecord{{Code: "SPARK10", DiscountType: "percent", DiscountValue: 10}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key", zap.NewNop())
	result, err := c.Scrape(context.Background(), "https://example.co.uk/deals", nil)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	require.Equal(t, "CAB-25", result.Products[0].SKU)
	require.Len(t, result.Coupons, 1)
	require.Equal(t, 2, result.Len())
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(scrapeResponse{Success: true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key", zap.NewNop())
	result, err := c.Scrape(context.Background(), "https://example.co.uk", nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "bad-key", zap.NewNop())
	_, err := c.Scrape(context.Background(), "https://example.co.uk", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_APILevelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scrapeResponse{Success: false, Error: "page blocked by robots.txt"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key", zap.NewNop())
	_, err := c.Scrape(context.Background(), "https://example.co.uk", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "robots.txt")
}

func TestMockClient(t *testing.T) {
	mock := &MockClient{
		Results: map[string]*ScrapeResult{
			"https://example.co.uk": {Products: []ProductRecord{{SKU: "A"}}},
		},
	}
	result, err := mock.Scrape(context.Background(), "https://example.co.uk", nil)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	require.Equal(t, []string{"https://example.co.uk"}, mock.Calls)
}
