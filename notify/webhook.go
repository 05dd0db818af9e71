package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/jobtrack/horosafe"
)

// Webhook POSTs notifications as JSON to a URL.
type Webhook struct {
	url          string
	client       *http.Client
	allowPrivate bool
	logger       *slog.Logger
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient replaces the default client (3s timeout).
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// WithAllowPrivate permits loopback and private-network targets, such as a
// desktop notifier listening on localhost.
func WithAllowPrivate() WebhookOption {
	return func(w *Webhook) { w.allowPrivate = true }
}

// WithWebhookLogger sets the logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) { w.logger = l }
}

// NewWebhook validates url and returns a Webhook targeting it.
func NewWebhook(url string, opts ...WebhookOption) (*Webhook, error) {
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: 3 * time.Second},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	var err error
	if w.allowPrivate {
		_, err = horosafe.ValidateEndpoint(url)
	} else {
		err = horosafe.ValidateURL(url)
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}
	return w, nil
}

// Notify posts n once. A failed delivery is logged and returned, never
// retried; the caller has already persisted whatever n describes.
func (w *Webhook) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook: request failed", "kind", n.Kind, "error", err)
		return fmt.Errorf("webhook: delivery failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Warn("webhook: bad status", "kind", n.Kind, "status", resp.StatusCode)
		return fmt.Errorf("webhook: delivery failed: status %d", resp.StatusCode)
	}
	return nil
}
