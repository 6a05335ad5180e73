package tenant

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/scheduling-platform/internal/eventbus"
)

// WebhookDispatcher reads both event streams under its own consumer group
// and POSTs matching events to every active webhook a tenant has
// registered for that event kind. Owned by the tenant service per
// spec.md §4.5 ("out of scope: webhook egress transport" only describes
// the wire shape; delivery itself is this component).
type WebhookDispatcher struct {
	repo   Repository
	client *http.Client
	logger *slog.Logger
}

// NewWebhookDispatcher constructs a WebhookDispatcher with the spec's 10s
// delivery deadline.
func NewWebhookDispatcher(repo Repository, logger *slog.Logger) *WebhookDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookDispatcher{repo: repo, client: &http.Client{Timeout: 10 * time.Second}, logger: logger}
}

type webhookBody struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handle is an eventbus.Handler: it looks up every active webhook
// subscribed to event.Type within event.TenantID and delivers to each.
// Delivery failures are logged, never returned, because webhook delivery
// must never block the publishing transaction or cause event redelivery
// storms purely due to a slow subscriber endpoint.
func (d *WebhookDispatcher) Handle(ctx context.Context, event eventbus.Event) error {
	webhooks, err := d.repo.ListActiveWebhooksForEvent(ctx, event.TenantID, EventKind(event.Type))
	if err != nil {
		return fmt.Errorf("tenant: list webhooks for dispatch: %w", err)
	}

	body, err := json.Marshal(webhookBody{Event: string(event.Type), Data: event.Payload})
	if err != nil {
		return fmt.Errorf("tenant: encode webhook body: %w", err)
	}

	for _, webhook := range webhooks {
		d.deliver(ctx, webhook, body)
	}
	return nil
}

func (d *WebhookDispatcher) deliver(ctx context.Context, webhook Webhook, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to build webhook request", "webhook_id", webhook.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if webhook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+sign(webhook.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.ErrorContext(ctx, "webhook delivery failed", "webhook_id", webhook.ID, "url", webhook.URL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.WarnContext(ctx, "webhook endpoint rejected delivery", "webhook_id", webhook.ID, "status", resp.StatusCode)
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
