package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookClient posts notifications to a fixed URL. The response is drained
// and discarded; only transport failures are reported.
type WebhookClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookClient creates a webhook notifier.
func NewWebhookClient(url string, timeout time.Duration, logger *slog.Logger) *WebhookClient {
	return &WebhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Notify implements Notifier.
func (c *WebhookClient) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("webhook responded", "status", resp.StatusCode, "event", n.Event)
	return nil
}
