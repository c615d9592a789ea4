// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	original := Logger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger()
	logger.Info("service started", "service", "mqtt-subscriber", "attempts", int64(3))

	output := buf.String()
	if !strings.Contains(output, "service started") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"service":"mqtt-subscriber"`) {
		t.Errorf("expected string attr, got: %s", output)
	}
	if !strings.Contains(output, `"attempts":3`) {
		t.Errorf("expected int attr, got: %s", output)
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	original := Logger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger()
	logger.Warn("warn msg")
	logger.Error("error msg")

	output := buf.String()
	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", output)
	}
	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("expected error level, got: %s", output)
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	original := Logger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger().With("supervisor", "mqttwatch")
	logger.Info("restarting")

	output := buf.String()
	if !strings.Contains(output, `"supervisor":"mqttwatch"`) {
		t.Errorf("expected bound attr, got: %s", output)
	}
}
