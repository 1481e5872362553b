// Package order forwards completed orders to the store's fulfillment
// endpoint.
package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kioskvoice/ordergate/pkg/dialog"
)

// WebhookSink POSTs completed orders as JSON to a configured URL.
// Submission is best effort; the conversation already ended by the time the
// order ships, so failures are logged rather than surfaced to the customer.
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*WebhookSink)

func WithHTTPClient(client *http.Client) Option {
	return func(w *WebhookSink) { w.httpClient = client }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *WebhookSink) { w.logger = logger }
}

func NewWebhookSink(url string, opts ...Option) *WebhookSink {
	w := &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit delivers one order. Callers run it in a goroutine; it never
// blocks the dialog path.
func (w *WebhookSink) Submit(ctx context.Context, ord dialog.Order) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(ord)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Warn("order webhook failed", "session_id", ord.SessionID, "error", err)
		return fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Warn("order webhook rejected",
			"session_id", ord.SessionID, "status", resp.StatusCode)
		return fmt.Errorf("order webhook status %d", resp.StatusCode)
	}

	w.logger.Info("order submitted to webhook",
		"session_id", ord.SessionID, "total_price", ord.TotalPrice)
	return nil
}
