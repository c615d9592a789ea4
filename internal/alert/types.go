// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package alert turns detector floods into notifications and delivers
// them through pluggable sinks. Delivery is decoupled from detection:
// a failing sink is logged and dropped, never surfaced to the ingest
// path.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert describes one flood detection on a topic.
type Alert struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Count     int           `json:"count"`
	Window    time.Duration `json:"window_ns"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// New builds an alert for a flood of count messages within window on
// topic, observed at the given time.
func New(topic string, count int, window time.Duration, at time.Time) *Alert {
	return &Alert{
		ID:        uuid.NewString(),
		Topic:     topic,
		Count:     count,
		Window:    window,
		Message:   fmt.Sprintf("MQTT flood: %d msgs in %s on %s", count, window, topic),
		CreatedAt: at,
	}
}

// Notifier sends alerts to a notification channel.
type Notifier interface {
	// Send delivers an alert. Implementations must respect ctx.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "file", "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}
