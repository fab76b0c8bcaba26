package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tradesparky/pricewatch/internal/notify"
	"go.uber.org/zap"
)

// WebhookHandler receives document-signed callbacks and emails the document
// owner. A failed email never fails the webhook: the signing action already
// happened, so this always responds success.
type WebhookHandler struct {
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewWebhookHandler(n notify.Notifier, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		notifier: n,
		logger:   logger.Named("webhook"),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *WebhookHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/webhooks/document-signed", h.handleDocumentSigned).Methods("POST")
}

func (h *WebhookHandler) handleDocumentSigned(w http.ResponseWriter, req *http.Request) {
	var ev notify.DocumentSignedEvent
	if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.notifier.DocumentSigned(req.Context(), ev); err != nil {
		h.logger.Warn("document-signed email failed",
			zap.String("document_id", ev.DocumentID), zap.Error(err))
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
