// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// WebhookNotifier delivers alerts to a generic webhook endpoint as JSON.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
	enabled    bool
}

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	WebhookURL string
	// RateLimit is the minimum interval between deliveries. Zero means
	// the default of 500ms.
	RateLimit time.Duration
	Timeout   time.Duration
}

// WebhookPayload is the JSON body sent to the webhook endpoint.
type WebhookPayload struct {
	Alert     *Alert    `json:"alert"`
	EventType string    `json:"event_type"` // flood_alert
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // mqttwatch
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 500 * time.Millisecond
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.WebhookURL != "",
		limiter:    rate.NewLimiter(rate.Every(rateLimit), 1),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled returns whether this notifier is enabled.
func (n *WebhookNotifier) Enabled() bool {
	return n.enabled
}

// Send delivers an alert to the webhook endpoint. It blocks on the rate
// limiter, honoring context cancellation while waiting.
func (n *WebhookNotifier) Send(ctx context.Context, alert *Alert) error {
	if !n.enabled {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	payload := WebhookPayload{
		Alert:     alert,
		EventType: "flood_alert",
		Timestamp: time.Now(),
		Source:    "mqttwatch",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
