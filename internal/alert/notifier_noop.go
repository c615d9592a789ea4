// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package alert

import "context"

// NoopNotifier discards alerts. Used when the alert sink is configured
// as "none"; floods are still logged by the pipeline.
type NoopNotifier struct{}

// NewNoopNotifier creates a discarding notifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Name returns the notifier name.
func (n *NoopNotifier) Name() string { return "noop" }

// Enabled always reports true so the dispatcher counts a delivery.
func (n *NoopNotifier) Enabled() bool { return true }

// Send does nothing.
func (n *NoopNotifier) Send(_ context.Context, _ *Alert) error { return nil }
