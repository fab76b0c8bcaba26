package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/tradesparky/pricewatch/internal/notify"
	"go.uber.org/zap"
)

type failingNotifier struct {
	called bool
}

func (n *failingNotifier) DocumentSigned(ctx context.Context, ev notify.DocumentSignedEvent) error {
	n.called = true
	return errors.New("email API unreachable")
}

func newWebhookRouter(n notify.Notifier) *mux.Router {
	logger := zap.NewNop()
	router := mux.NewRouter()
	NewWebhookHandler(n, logger).RegisterRoutes(router, logger)
	return router
}

func TestWebhookHandler_DocumentSigned(t *testing.T) {
	router := newWebhookRouter(notify.NopNotifier{})

	body := []byte(`{"document_id": "doc-1", "document_name": "Quote 1042", "signer_email": "a@b.co", "owner_email": "o@b.co"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/webhooks/document-signed", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "received"}`, rec.Body.String())
}

func TestWebhookHandler_EmailFailureStillSucceeds(t *testing.T) {
	n := &failingNotifier{}
	router := newWebhookRouter(n)

	body := []byte(`{"document_id": "doc-1", "owner_email": "o@b.co"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/webhooks/document-signed", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, "a failed email must not fail the webhook")
	require.True(t, n.called)
}

func TestWebhookHandler_InvalidBody(t *testing.T) {
	router := newWebhookRouter(notify.NopNotifier{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/webhooks/document-signed", bytes.NewReader([]byte(`{`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
