// Package notify provides Notifier implementations. The engine treats
// delivery as external collaborator I/O: completions commit first, delivery
// failures are logged and counted, never retried into the store.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

// WebhookNotifier POSTs each notification as JSON to a configured URL
// (a chat-platform webhook, typically).
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. The client timeout is a
// floor; callers additionally bound each call with a context deadline.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// webhookPayload is the wire shape posted to the webhook.
type webhookPayload struct {
	Content string              `json:"content"`
	Detail  domain.Notification `json:"detail"`
}

// Notify posts the notification. Non-2xx responses are failures.
func (w *WebhookNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(webhookPayload{
		Content: renderMessage(n),
		Detail:  n,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// renderMessage builds the human-facing line.
func renderMessage(n domain.Notification) string {
	who := strings.Join(n.OwnerIDs, ", ")
	if n.Outcome == nil {
		return fmt.Sprintf("%s returned from %s empty-handed.", who, n.Category)
	}
	return fmt.Sprintf("%s returned from %s with %s (%s)!", who, n.Category, n.Outcome.Name, n.Outcome.Rarity)
}

// LogNotifier writes notifications to the process log. Used when no webhook
// is configured.
type LogNotifier struct{}

// Notify logs the rendered message.
func (LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	log.Printf("[notify] %s", renderMessage(n))
	return nil
}
