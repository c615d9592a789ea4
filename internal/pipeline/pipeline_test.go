// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blwfish/mqttwatch/internal/alert"
	"github.com/blwfish/mqttwatch/internal/config"
	"github.com/blwfish/mqttwatch/internal/database"
	"github.com/blwfish/mqttwatch/internal/detector"
)

// captureNotifier collects dispatched alerts for assertions.
type captureNotifier struct {
	mu     sync.Mutex
	alerts []*alert.Alert
}

func (c *captureNotifier) Name() string  { return "capture" }
func (c *captureNotifier) Enabled() bool { return true }

func (c *captureNotifier) Send(_ context.Context, a *alert.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return nil
}

func (c *captureNotifier) all() []*alert.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*alert.Alert(nil), c.alerts...)
}

func setupPipeline(t *testing.T, detCfg detector.Config) (*Pipeline, *database.DB, *alert.Dispatcher, *captureNotifier) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	capture := &captureNotifier{}
	dispatcher := alert.NewDispatcher()
	dispatcher.Register(capture)

	return New(db, detector.New(detCfg), dispatcher), db, dispatcher, capture
}

func TestHandleStoresEvent(t *testing.T) {
	p, db, _, _ := setupPipeline(t, detector.Config{})
	ctx := context.Background()

	msg := Message{
		Topic:    "home/kitchen/light",
		Payload:  []byte(`{"client_id":"switch-4","state":"on"}`),
		QoS:      1,
		Retained: true,
	}
	if err := p.Handle(ctx, msg); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	events, err := db.QueryEvents(ctx, database.EventFilter{Limit: 10})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}

	e := events[0]
	if e.Topic != msg.Topic {
		t.Errorf("topic = %q, want %q", e.Topic, msg.Topic)
	}
	if e.Payload != string(msg.Payload) {
		t.Errorf("payload = %q, want %q", e.Payload, string(msg.Payload))
	}
	if e.Sender != "switch-4" {
		t.Errorf("sender = %q, want switch-4", e.Sender)
	}
	if e.QoS != 1 {
		t.Errorf("qos = %d, want 1", e.QoS)
	}
	if !e.Retained {
		t.Error("retained flag lost")
	}
	if _, err := time.Parse(database.TimestampLayout, e.Timestamp); err != nil {
		t.Errorf("timestamp %q does not parse: %v", e.Timestamp, err)
	}
}

func TestHandleBinaryPayloadStoredAsHex(t *testing.T) {
	p, db, _, _ := setupPipeline(t, detector.Config{})
	ctx := context.Background()

	msg := Message{Topic: "cam/frame", Payload: []byte{0xff, 0xfe, 0x00, 0x01}}
	if err := p.Handle(ctx, msg); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	events, err := db.QueryEvents(ctx, database.EventFilter{Limit: 1})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Payload != "fffe0001" {
		t.Errorf("payload = %q, want hex fffe0001", events[0].Payload)
	}
	if events[0].Sender != "" {
		t.Errorf("binary payload should have no sender, got %q", events[0].Sender)
	}
}

func TestHandleFloodDispatchesAlert(t *testing.T) {
	p, _, dispatcher, capture := setupPipeline(t, detector.Config{
		Window:    5 * time.Second,
		Threshold: 3,
		Cooldown:  time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := p.Handle(ctx, Message{Topic: "chatty/device", Payload: []byte("x")}); err != nil {
			t.Fatalf("handle %d failed: %v", i, err)
		}
	}
	dispatcher.Wait()

	alerts := capture.all()
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Topic != "chatty/device" {
		t.Errorf("alert topic = %q, want chatty/device", alerts[0].Topic)
	}
	if alerts[0].Count < 3 {
		t.Errorf("alert count = %d, want >= 3", alerts[0].Count)
	}
}

func TestHandleEmptyTopicIsIsolated(t *testing.T) {
	p, db, _, _ := setupPipeline(t, detector.Config{})
	ctx := context.Background()

	// The store rejects an empty topic. That is a per-message failure,
	// not a fatal one, and detection is skipped for the dropped event.
	if err := p.Handle(ctx, Message{Topic: "", Payload: []byte("x")}); err != nil {
		t.Fatalf("expected per-message isolation, got %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEvents != 0 {
		t.Errorf("expected 0 stored events, got %d", stats.TotalEvents)
	}
}

func TestHandlePersistsBeforeDetecting(t *testing.T) {
	p, db, dispatcher, capture := setupPipeline(t, detector.Config{
		Window:    5 * time.Second,
		Threshold: 2,
		Cooldown:  time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.Handle(ctx, Message{Topic: "a/b", Payload: []byte("x")}); err != nil {
			t.Fatalf("handle failed: %v", err)
		}
	}
	dispatcher.Wait()

	if len(capture.all()) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(capture.all()))
	}

	// Both events that produced the alert are already on disk.
	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEvents != 2 {
		t.Errorf("expected 2 stored events, got %d", stats.TotalEvents)
	}
}
