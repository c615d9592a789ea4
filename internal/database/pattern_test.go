// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package database

import "testing"

func TestTopicPatternToLike(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"#", "%"},
		{"home/#", "home/%"},
		{"home/+/temp", "home/%/temp"},
		{"+/+/state", "%/%/state"},
		{"plain/topic", "plain/topic"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := topicPatternToLike(tt.pattern); got != tt.want {
				t.Errorf("topicPatternToLike(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestIsUnusable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"disk full", errFromString("database or disk is full (13)"), true},
		{"io error", errFromString("disk I/O error (10)"), true},
		{"corrupted file", errFromString("database disk image is malformed (11)"), true},
		{"closed pool", errFromString("sql: database is closed"), true},
		{"constraint violation", errFromString("NOT NULL constraint failed: mqtt_events.topic (1299)"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnusable(tt.err); got != tt.want {
				t.Errorf("IsUnusable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type stringError string

func (e stringError) Error() string { return string(e) }

func errFromString(s string) error { return stringError(s) }
