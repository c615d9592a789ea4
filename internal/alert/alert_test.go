// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package alert

import (
	"strings"
	"testing"
	"time"
)

func TestNewAlert(t *testing.T) {
	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	a := New("home/sensor/temp", 12, 5*time.Second, at)

	if a.ID == "" {
		t.Error("alert ID should not be empty")
	}
	if a.Topic != "home/sensor/temp" {
		t.Errorf("Topic = %q, want %q", a.Topic, "home/sensor/temp")
	}
	if a.Count != 12 {
		t.Errorf("Count = %d, want 12", a.Count)
	}
	if !a.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, at)
	}
	want := "MQTT flood: 12 msgs in 5s on home/sensor/temp"
	if a.Message != want {
		t.Errorf("Message = %q, want %q", a.Message, want)
	}
}

func TestNewAlertUniqueIDs(t *testing.T) {
	at := time.Now()
	a := New("t", 10, 5*time.Second, at)
	b := New("t", 10, 5*time.Second, at)

	if a.ID == b.ID {
		t.Errorf("expected distinct alert IDs, both %q", a.ID)
	}
}

func TestAlertMessageContainsTopicAndCount(t *testing.T) {
	a := New("plant/+/moisture", 47, 5*time.Second, time.Now())

	if !strings.Contains(a.Message, "plant/+/moisture") {
		t.Errorf("message %q missing topic", a.Message)
	}
	if !strings.Contains(a.Message, "47") {
		t.Errorf("message %q missing count", a.Message)
	}
}
