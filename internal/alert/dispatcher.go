// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package alert

import (
	"context"
	"sync"
	"time"

	"github.com/blwfish/mqttwatch/internal/logging"
)

// sendTimeout bounds one notifier delivery so a hung sink cannot pin a
// goroutine forever.
const sendTimeout = 10 * time.Second

// Dispatcher fans alerts out to registered notifiers. Deliveries run in
// their own goroutines so the caller never blocks; failures are logged
// and the alert is dropped for that sink.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
	wg        sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		notifiers: make([]Notifier, 0),
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(notifier Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, notifier)
	logging.Info().Str("notifier", notifier.Name()).Msg("registered alert notifier")
}

// Dispatch sends the alert to all enabled notifiers and returns
// immediately. Each delivery gets its own bounded context, detached
// from the caller's so an ingest-side cancellation does not abort an
// in-flight notification.
func (d *Dispatcher) Dispatch(alert *Alert) {
	d.mu.RLock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	d.mu.RUnlock()

	for _, notifier := range notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			if err := n.Send(ctx, alert); err != nil {
				logging.Error().
					Err(err).
					Str("notifier", n.Name()).
					Str("topic", alert.Topic).
					Msg("failed to send alert")
			}
		}(notifier)
	}
}

// Wait blocks until all in-flight deliveries finish. Called during
// shutdown so alerts raised just before exit still land.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
