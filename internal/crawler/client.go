package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

// ExtractionSchema tells the crawl API what to pull out of a page. The
// default schema asks for the three record kinds the pipeline persists.
type ExtractionSchema map[string]interface{}

// DefaultSchema extracts products, deals and coupons.
func DefaultSchema() ExtractionSchema {
	return ExtractionSchema{
		"products": []string{"sku", "name", "price", "regular_price", "on_sale", "discount_pct", "description", "category", "image_url", "product_url", "in_stock"},
		"deals":    []string{"title", "sku", "deal_price", "original_price", "discount_pct", "deal_url", "expires_at"},
		"coupons":  []string{"code", "description", "discount_type", "discount_value", "valid_from", "valid_until"},
	}
}

// Client fetches structured records from a supplier URL.
type Client interface {
	Scrape(ctx context.Context, url string, schema ExtractionSchema) (*ScrapeResult, error)
}

// HTTPClient calls a hosted crawl/extraction API: POST {url, schema} in,
// structured records out.
type HTTPClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		logger:  logger.Named("crawler"),
	}
}

type scrapeRequest struct {
	URL    string           `json:"url"`
	Schema ExtractionSchema `json:"schema"`
}

type scrapeResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Data    ScrapeResult `json:"data"`
}

func (c *HTTPClient) Scrape(ctx context.Context, url string, schema ExtractionSchema) (*ScrapeResult, error) {
	if schema == nil {
		schema = DefaultSchema()
	}
	body, err := json.Marshal(scrapeRequest{URL: url, Schema: schema})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	var result *ScrapeResult
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("crawl request failed: %w", err)
			}
			defer resp.Body.Close()

			// 8MB cap on the response body
			data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			if err != nil {
				return fmt.Errorf("failed to read crawl response: %w", err)
			}

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("crawl API returned %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("crawl API returned %d: %s", resp.StatusCode, string(data)))
			}

			var sr scrapeResponse
			if err := json.Unmarshal(data, &sr); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode crawl response: %w", err))
			}
			if !sr.Success {
				return retry.Unrecoverable(fmt.Errorf("crawl API error: %s", sr.Error))
			}
			result = &sr.Data
			return nil
		},
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying scrape", zap.Uint("attempt", n+1), zap.String("url", url), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
