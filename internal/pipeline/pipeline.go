// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package pipeline ties ingest together: every received message is
// decoded, persisted, and fed to the flood detector, in that order.
// Persistence comes first so an alert always refers to events already
// on disk.
package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/blwfish/mqttwatch/internal/alert"
	"github.com/blwfish/mqttwatch/internal/database"
	"github.com/blwfish/mqttwatch/internal/detector"
	"github.com/blwfish/mqttwatch/internal/logging"
	"github.com/blwfish/mqttwatch/internal/metrics"
)

// logPayloadLimit caps how much payload lands in debug logs.
const logPayloadLimit = 100

// Message is one MQTT publish as handed over by the broker client.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// Pipeline processes messages one at a time. Handle is not safe for
// concurrent use; the subscriber delivers messages in order on a single
// goroutine, which is what keeps store IDs aligned with arrival order.
type Pipeline struct {
	store    *database.DB
	detector *detector.Detector
	alerts   *alert.Dispatcher
}

// New creates a pipeline over the given store, detector, and alert
// dispatcher.
func New(store *database.DB, det *detector.Detector, alerts *alert.Dispatcher) *Pipeline {
	return &Pipeline{
		store:    store,
		detector: det,
		alerts:   alerts,
	}
}

// Handle processes one message: decode the payload, persist the event,
// then run flood detection against the same receipt timestamp the
// stored row carries.
//
// A failed insert is logged and the message is dropped without running
// detection, so alerts never reference events missing from the store.
// Handle returns an error only when the store itself has become
// unusable; the caller must treat that as fatal.
func (p *Pipeline) Handle(ctx context.Context, msg Message) error {
	metrics.EventsReceived.Inc()
	receivedAt := time.Now()

	payload := decodePayload(msg.Payload)

	event := &database.Event{
		Timestamp: database.FormatTimestamp(receivedAt),
		Topic:     msg.Topic,
		Sender:    ExtractSender(payload),
		Payload:   payload,
		QoS:       int(msg.QoS),
		Retained:  msg.Retained,
	}

	start := time.Now()
	id, err := p.store.AppendEvent(ctx, event)
	metrics.RecordStoreWrite(time.Since(start), err)
	if err != nil {
		if database.IsUnusable(err) {
			return fmt.Errorf("event store unusable: %w", err)
		}
		logging.Error().Err(err).Str("topic", msg.Topic).Msg("failed to store event")
		return nil
	}

	if flood := p.detector.Record(msg.Topic, receivedAt); flood != nil {
		metrics.AlertsFired.Inc()
		a := alert.New(flood.Topic, flood.Count, flood.Window, flood.At)
		logging.Warn().
			Str("topic", a.Topic).
			Int("count", a.Count).
			Dur("window", a.Window).
			Msg(a.Message)
		p.alerts.Dispatch(a)
	}
	metrics.TrackedTopics.Set(float64(p.detector.TopicCount()))

	logging.Debug().
		Str("topic", msg.Topic).
		Int64("event_id", id).
		Str("payload", truncate(payload, logPayloadLimit)).
		Msg("event stored")

	return nil
}

// decodePayload returns the payload as a string, hex-encoded when the
// bytes are not valid UTF-8 so binary data still round-trips through a
// TEXT column.
func decodePayload(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	metrics.PayloadDecodeFallbacks.Inc()
	return hex.EncodeToString(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
