package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DocumentSignedEvent is raised when a user signs a document; the owner gets
// an email. Not part of the ingestion pipeline.
type DocumentSignedEvent struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	SignerName   string `json:"signer_name,omitempty"`
	SignerEmail  string `json:"signer_email"`
	OwnerEmail   string `json:"owner_email"`
}

// Notifier sends transactional notifications. Callers treat failures as
// non-fatal: the action that triggered the notification must not block on it.
type Notifier interface {
	DocumentSigned(ctx context.Context, ev DocumentSignedEvent) error
}

// EmailNotifier posts to a hosted transactional-email API.
type EmailNotifier struct {
	baseURL string
	apiKey  string
	from    string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewEmailNotifier(baseURL, apiKey, from string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  logger.Named("notify"),
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (n *EmailNotifier) DocumentSigned(ctx context.Context, ev DocumentSignedEvent) error {
	signer := ev.SignerName
	if signer == "" {
		signer = ev.SignerEmail
	}
	body, err := json.Marshal(emailRequest{
		From:    n.from,
		To:      ev.OwnerEmail,
		Subject: fmt.Sprintf("%s has been signed", ev.DocumentName),
		Text:    fmt.Sprintf("%s signed %q (document %s).", signer, ev.DocumentName, ev.DocumentID),
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier drops notifications. Used when no email API is configured.
type NopNotifier struct{}

func (NopNotifier) DocumentSigned(ctx context.Context, ev DocumentSignedEvent) error {
	return nil
}
