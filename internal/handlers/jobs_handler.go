package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tradesparky/pricewatch/internal/db"
	"github.com/tradesparky/pricewatch/internal/store"
	"go.uber.org/zap"
)

// JobsHandler exposes scrape job status.
type JobsHandler struct {
	store  store.Store
	logger *zap.Logger
}

func NewJobsHandler(st store.Store, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		store:  st,
		logger: logger.Named("jobs"),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *JobsHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/jobs/{id}", h.handleGetJob).Methods("GET")
}

func (h *JobsHandler) handleGetJob(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	job, err := h.store.GetJob(req.Context(), id)
	if errors.Is(err, db.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "unknown job: "+id)
		return
	}
	if err != nil {
		h.logger.Error("failed to get job", zap.String("job_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}
