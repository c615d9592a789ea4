// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package main

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "30m", want: 30 * time.Minute},
		{input: "1h", want: time.Hour},
		{input: "7d", want: 7 * 24 * time.Hour},
		{input: "0m", want: 0},
		{input: "2H", want: 2 * time.Hour},
		{input: "1w", wantErr: true},
		{input: "h", wantErr: true},
		{input: "", wantErr: true},
		{input: "-1h", wantErr: true},
		{input: "x5d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSince(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseSince(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSince(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
