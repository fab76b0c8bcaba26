package crawler

import (
	"context"
	"sync"
)

// MockClient returns canned results without touching the network. Used by
// tests and by local runs when no crawl API is configured.
type MockClient struct {
	mu      sync.Mutex
	Results map[string]*ScrapeResult // keyed by URL
	Err     error
	Calls   []string
}

func NewMockClient() *MockClient {
	return &MockClient{Results: make(map[string]*ScrapeResult)}
}

func (m *MockClient) Scrape(ctx context.Context, url string, schema ExtractionSchema) (*ScrapeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, url)
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Results[url]; ok {
		return r, nil
	}
	return &ScrapeResult{}, nil
}
