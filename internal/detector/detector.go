// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package detector flags abnormal per-topic publish rates.
//
// The detector keeps a bounded sliding window of receipt timestamps per
// topic. Each Record call appends the new timestamp, evicts everything
// older than the window from the front, and tests the remaining count
// against the threshold. Eviction from the front is sufficient because
// delivery is sequential and timestamps are therefore non-decreasing, so
// every call is amortized constant time regardless of history length.
//
// A per-topic cooldown suppresses repeat alerts once a topic is already
// known to be flooding; it runs on its own clock, independent of the
// sliding window.
package detector

import (
	"sync"
	"time"
)

// Config holds the three detection parameters plus the idle eviction knob.
type Config struct {
	// Window is the trailing interval over which events are counted.
	Window time.Duration

	// Threshold is the count within Window that marks a flood.
	Threshold int

	// Cooldown is the minimum time between two alerts for one topic.
	Cooldown time.Duration

	// IdleEvictAfter drops a topic's state after its window has been
	// empty this long, bounding memory for long-lived processes that see
	// many short-lived topics. 0 derives 10x Window.
	IdleEvictAfter time.Duration
}

// DefaultConfig returns the reference parameters: 10 messages within 5
// seconds trigger an alert, repeated at most once per minute per topic.
func DefaultConfig() Config {
	return Config{
		Window:    5 * time.Second,
		Threshold: 10,
		Cooldown:  60 * time.Second,
	}
}

// Flood describes one threshold crossing.
type Flood struct {
	// Topic is the flooding topic.
	Topic string

	// Count is the number of events inside the window at crossing time.
	Count int

	// Window is the configured window length, carried so sinks can render
	// "N msgs in Ws" without knowing the configuration.
	Window time.Duration

	// At is the receipt timestamp of the event that crossed the threshold.
	At time.Time
}

// topicWindow is the per-topic sliding state.
type topicWindow struct {
	// timestamps is non-decreasing by construction: entries are appended
	// in delivery order and evicted only from the front.
	timestamps []time.Time

	// lastAlert is the zero time until the topic first alerts.
	lastAlert time.Time
}

// Detector tracks per-topic rate windows. Safe for concurrent use; the
// ingestion pipeline calls it from a single goroutine but tests and
// future callers need not know that.
type Detector struct {
	cfg Config

	mu      sync.Mutex
	windows map[string]*topicWindow

	// lastSweep throttles the idle-topic scan to once per window length.
	lastSweep time.Time
}

// New creates a detector. Zero config fields fall back to defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.IdleEvictAfter <= 0 {
		cfg.IdleEvictAfter = 10 * cfg.Window
	}

	return &Detector{
		cfg:     cfg,
		windows: make(map[string]*topicWindow),
	}
}

// Config returns the active configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Record registers one event for the topic at its receipt time and
// returns a Flood when this event crosses the threshold outside the
// topic's cooldown, nil otherwise. It never fails; alert delivery is the
// caller's concern and cannot corrupt detector state.
//
// Eviction always runs before the threshold test, including on the call
// that first fills the window.
func (d *Detector) Record(topic string, observedAt time.Time) *Flood {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[topic]
	if !ok {
		w = &topicWindow{}
		d.windows[topic] = w
	}

	w.timestamps = append(w.timestamps, observedAt)

	cutoff := observedAt.Add(-d.cfg.Window)
	evicted := 0
	for evicted < len(w.timestamps) && w.timestamps[evicted].Before(cutoff) {
		evicted++
	}
	if evicted > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[evicted:]...)
	}

	d.maybeSweep(observedAt)

	if len(w.timestamps) < d.cfg.Threshold {
		return nil
	}
	if !w.lastAlert.IsZero() && observedAt.Sub(w.lastAlert) < d.cfg.Cooldown {
		return nil
	}

	w.lastAlert = observedAt
	return &Flood{
		Topic:  topic,
		Count:  len(w.timestamps),
		Window: d.cfg.Window,
		At:     observedAt,
	}
}

// maybeSweep drops topics whose newest timestamp is older than
// IdleEvictAfter. Runs at most once per window length so Record stays
// amortized constant time. Caller holds d.mu.
func (d *Detector) maybeSweep(now time.Time) {
	if now.Sub(d.lastSweep) < d.cfg.Window {
		return
	}
	d.lastSweep = now

	idleCutoff := now.Add(-d.cfg.IdleEvictAfter)
	for topic, w := range d.windows {
		if len(w.timestamps) > 0 && !w.timestamps[len(w.timestamps)-1].Before(idleCutoff) {
			continue
		}
		// Keep a topic inside its cooldown so a flood that pauses and
		// resumes is not double-alerted after re-creation.
		if !w.lastAlert.IsZero() && now.Sub(w.lastAlert) < d.cfg.Cooldown {
			continue
		}
		delete(d.windows, topic)
	}
}

// TopicCount returns the number of tracked topics. Exposed for tests and
// metrics.
func (d *Detector) TopicCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.windows)
}

// WindowSize returns the current number of timestamps in a topic's
// window, 0 for untracked topics. Exposed for tests.
func (d *Detector) WindowSize(topic string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[topic]; ok {
		return len(w.timestamps)
	}
	return 0
}
