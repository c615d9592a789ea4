// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package detector

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Window:    5 * time.Second,
		Threshold: 10,
		Cooldown:  60 * time.Second,
	}
}

func TestRecordTriggersExactlyOnceAtThreshold(t *testing.T) {
	d := New(testConfig())
	base := time.Now()

	// 10 events within 5 seconds: exactly one alert, on the 10th.
	var floods []*Flood
	for i := 0; i < 10; i++ {
		if f := d.Record("burst/topic", base.Add(time.Duration(i)*100*time.Millisecond)); f != nil {
			floods = append(floods, f)
		}
	}
	if len(floods) != 1 {
		t.Fatalf("expected exactly 1 flood, got %d", len(floods))
	}
	if floods[0].Count != 10 {
		t.Errorf("expected count 10, got %d", floods[0].Count)
	}
	if floods[0].Topic != "burst/topic" {
		t.Errorf("expected topic burst/topic, got %q", floods[0].Topic)
	}
	if floods[0].Window != 5*time.Second {
		t.Errorf("expected window 5s, got %s", floods[0].Window)
	}

	// An 11th event lands inside the cooldown: no second alert.
	if f := d.Record("burst/topic", base.Add(time.Second)); f != nil {
		t.Errorf("expected cooldown to suppress repeat alert, got %+v", f)
	}
}

func TestRecordSteadyRateNeverAlerts(t *testing.T) {
	d := New(testConfig())
	base := time.Now()

	// 1 msg/s never reaches 10 within any 5-second window.
	for i := 0; i < 120; i++ {
		if f := d.Record("steady/topic", base.Add(time.Duration(i)*time.Second)); f != nil {
			t.Fatalf("unexpected flood at event %d: %+v", i, f)
		}
	}
}

func TestRecordAlertsAgainAfterCooldown(t *testing.T) {
	d := New(testConfig())
	base := time.Now()

	burst := func(at time.Time) int {
		alerts := 0
		for i := 0; i < 10; i++ {
			if f := d.Record("loop/topic", at.Add(time.Duration(i)*100*time.Millisecond)); f != nil {
				alerts++
			}
		}
		return alerts
	}

	if got := burst(base); got != 1 {
		t.Fatalf("expected 1 alert from first burst, got %d", got)
	}
	// Second burst inside the cooldown stays quiet.
	if got := burst(base.Add(10 * time.Second)); got != 0 {
		t.Fatalf("expected 0 alerts inside cooldown, got %d", got)
	}
	// After the cooldown elapses, the topic is eligible again.
	if got := burst(base.Add(90 * time.Second)); got != 1 {
		t.Fatalf("expected 1 alert after cooldown, got %d", got)
	}
}

func TestRecordEvictsOldTimestamps(t *testing.T) {
	d := New(testConfig())
	base := time.Now()

	for i := 0; i < 5; i++ {
		d.Record("evict/topic", base.Add(time.Duration(i)*100*time.Millisecond))
	}
	if got := d.WindowSize("evict/topic"); got != 5 {
		t.Fatalf("expected 5 timestamps before wait, got %d", got)
	}

	// Past the window: all old entries evicted, only the new one remains.
	d.Record("evict/topic", base.Add(6*time.Second))
	if got := d.WindowSize("evict/topic"); got != 1 {
		t.Errorf("expected 1 timestamp after window elapsed, got %d", got)
	}
}

func TestEvictionRunsBeforeThresholdTest(t *testing.T) {
	d := New(Config{Window: 5 * time.Second, Threshold: 3, Cooldown: time.Minute})
	base := time.Now()

	// Two stale events, then one far in the future. Without eviction-first
	// ordering the third call would see count 3 and alert.
	d.Record("stale/topic", base)
	d.Record("stale/topic", base.Add(time.Second))
	if f := d.Record("stale/topic", base.Add(time.Minute)); f != nil {
		t.Errorf("expected stale entries evicted before threshold test, got %+v", f)
	}
	if got := d.WindowSize("stale/topic"); got != 1 {
		t.Errorf("expected window of 1, got %d", got)
	}
}

func TestTopicsTrackedIndependently(t *testing.T) {
	d := New(testConfig())
	base := time.Now()

	// Flood one topic; the other stays quiet and unaffected.
	for i := 0; i < 10; i++ {
		d.Record("noisy/topic", base.Add(time.Duration(i)*100*time.Millisecond))
		if f := d.Record("calm/topic", base.Add(time.Duration(i)*time.Second)); f != nil {
			t.Fatalf("unexpected flood on calm topic: %+v", f)
		}
	}
	if d.TopicCount() != 2 {
		t.Errorf("expected 2 tracked topics, got %d", d.TopicCount())
	}
}

func TestIdleTopicsAreSweptOut(t *testing.T) {
	d := New(Config{
		Window:         5 * time.Second,
		Threshold:      10,
		Cooldown:       time.Minute,
		IdleEvictAfter: 30 * time.Second,
	})
	base := time.Now()

	d.Record("shortlived/topic", base)
	if d.TopicCount() != 1 {
		t.Fatalf("expected 1 tracked topic, got %d", d.TopicCount())
	}

	// Activity on another topic long after the first went silent drives
	// the sweep that removes the idle window.
	d.Record("longlived/topic", base.Add(2*time.Minute))
	if d.TopicCount() != 1 {
		t.Errorf("expected idle topic swept, got %d tracked", d.TopicCount())
	}
	if got := d.WindowSize("shortlived/topic"); got != 0 {
		t.Errorf("expected shortlived topic dropped, window size %d", got)
	}
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	d := New(Config{})
	cfg := d.Config()

	if cfg.Window != 5*time.Second {
		t.Errorf("expected default window 5s, got %s", cfg.Window)
	}
	if cfg.Threshold != 10 {
		t.Errorf("expected default threshold 10, got %d", cfg.Threshold)
	}
	if cfg.Cooldown != 60*time.Second {
		t.Errorf("expected default cooldown 60s, got %s", cfg.Cooldown)
	}
	if cfg.IdleEvictAfter != 50*time.Second {
		t.Errorf("expected idle eviction 10x window, got %s", cfg.IdleEvictAfter)
	}
}
