package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/store"
	"go.uber.org/zap"
)

// CatalogHandler serves the cached catalogue: products, deals and coupons by
// supplier, plus supplier registration.
type CatalogHandler struct {
	store  store.Store
	logger *zap.Logger
}

func NewCatalogHandler(st store.Store, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  st,
		logger: logger.Named("catalog"),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *CatalogHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/suppliers", h.handleCreateSupplier).Methods("POST")
	router.HandleFunc("/v1/products", h.handleProducts).Methods("GET")
	router.HandleFunc("/v1/deals", h.handleDeals).Methods("GET")
	router.HandleFunc("/v1/coupons", h.handleCoupons).Methods("GET")
}

func (h *CatalogHandler) handleCreateSupplier(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Slug == "" {
		respondError(w, http.StatusBadRequest, "slug is required")
		return
	}
	id, err := h.store.CreateSupplier(req.Context(), body.Slug, body.Name)
	if err != nil {
		h.logger.Error("failed to create supplier", zap.String("slug", body.Slug), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create supplier")
		return
	}
	respondJSON(w, http.StatusCreated, db.Supplier{ID: id, Slug: body.Slug, Name: body.Name})
}

// resolve translates the ?supplier= query parameter to an internal ID.
func (h *CatalogHandler) resolve(w http.ResponseWriter, req *http.Request) (int64, bool) {
	slug := req.URL.Query().Get("supplier")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "supplier query parameter is required")
		return 0, false
	}
	id, err := h.store.ResolveSupplier(req.Context(), slug)
	if errors.Is(err, db.ErrSupplierNotFound) {
		respondError(w, http.StatusNotFound, "unknown supplier: "+slug)
		return 0, false
	}
	if err != nil {
		h.logger.Error("failed to resolve supplier", zap.String("slug", slug), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to resolve supplier")
		return 0, false
	}
	return id, true
}

func (h *CatalogHandler) handleProducts(w http.ResponseWriter, req *http.Request) {
	id, ok := h.resolve(w, req)
	if !ok {
		return
	}
	products, err := h.store.ProductsBySupplier(req.Context(), id)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []db.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) handleDeals(w http.ResponseWriter, req *http.Request) {
	id, ok := h.resolve(w, req)
	if !ok {
		return
	}
	deals, err := h.store.ActiveDealsBySupplier(req.Context(), id)
	if err != nil {
		h.logger.Error("failed to list deals", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list deals")
		return
	}
	if deals == nil {
		deals = []db.Deal{}
	}
	respondJSON(w, http.StatusOK, deals)
}

func (h *CatalogHandler) handleCoupons(w http.ResponseWriter, req *http.Request) {
	id, ok := h.resolve(w, req)
	if !ok {
		return
	}
	coupons, err := h.store.CouponsBySupplier(req.Context(), id)
	if err != nil {
		h.logger.Error("failed to list coupons", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list coupons")
		return
	}
	if coupons == nil {
		coupons = []db.Coupon{}
	}
	respondJSON(w, http.StatusOK, coupons)
}
