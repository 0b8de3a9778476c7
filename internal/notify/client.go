// Package notify provides a webhook client for badge-award notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/config"
	"github.com/avelez9/habitflow/pkg/logger"
)

// Client posts badge-award events to a configured webhook.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotificationsConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message is the webhook payload.
type Message struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
	Icon    string `json:"icon,omitempty"`
}

// BadgeEarned sends a notification that a user earned a milestone badge.
// Best-effort: failures are logged and swallowed so that streak processing is
// never affected by the webhook being down.
func (c *Client) BadgeEarned(ctx context.Context, userName string, badge badges.Milestone) {
	if !c.enabled {
		return
	}

	msg := Message{
		Channel: c.channel,
		Text:    fmt.Sprintf("%s earned the %q badge (%d-day streak)", userName, badge.Name, badge.StreakRequired),
		Icon:    badge.Icon,
	}
	if err := c.send(ctx, &msg); err != nil {
		c.log.Warn().Err(err).Str("badge", badge.Name).Msg("Failed to send badge notification")
	}
}

func (c *Client) send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
