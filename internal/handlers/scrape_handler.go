package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tradesparky/pricewatch/internal/crawler"
	"github.com/tradesparky/pricewatch/internal/ingest"
	"github.com/tradesparky/pricewatch/internal/sweep"
	"go.uber.org/zap"
)

// ScrapeHandler triggers pipeline runs and the expiry sweep.
type ScrapeHandler struct {
	pipeline *ingest.Pipeline
	crawler  crawler.Client
	sweeper  *sweep.Sweeper
	logger   *zap.Logger
}

func NewScrapeHandler(p *ingest.Pipeline, c crawler.Client, s *sweep.Sweeper, logger *zap.Logger) *ScrapeHandler {
	return &ScrapeHandler{
		pipeline: p,
		crawler:  c,
		sweeper:  s,
		logger:   logger.Named("scrape"),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *ScrapeHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/scrape/{supplier}", h.handleScrape).Methods("POST")
	router.HandleFunc("/v1/sweep", h.handleSweep).Methods("POST")
}

type scrapeRequest struct {
	// URL to crawl through the extraction API. Mutually exclusive with Records.
	URL string `json:"url,omitempty"`
	// Records are pre-extracted rows submitted inline, bypassing the crawl API.
	Records *crawler.ScrapeResult `json:"records,omitempty"`
}

func (h *ScrapeHandler) handleScrape(w http.ResponseWriter, req *http.Request) {
	slug := mux.Vars(req)["supplier"]

	var body scrapeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (body.URL == "") == (body.Records == nil) {
		respondError(w, http.StatusBadRequest, "exactly one of url or records is required")
		return
	}

	result := body.Records
	if body.URL != "" {
		if h.crawler == nil {
			respondError(w, http.StatusServiceUnavailable, "no crawl API configured")
			return
		}
		var err error
		result, err = h.crawler.Scrape(req.Context(), body.URL, nil)
		if err != nil {
			h.logger.Error("crawl failed", zap.String("supplier", slug), zap.String("url", body.URL), zap.Error(err))
			respondError(w, http.StatusBadGateway, "crawl failed: "+err.Error())
			return
		}
	}

	report, err := h.pipeline.Run(req.Context(), slug, result)
	if err != nil {
		h.logger.Error("pipeline run failed", zap.String("supplier", slug), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "pipeline run failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *ScrapeHandler) handleSweep(w http.ResponseWriter, req *http.Request) {
	flipped, err := h.sweeper.Run(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "expiry sweep failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deals_expired": flipped})
}
