// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseSince parses lookback strings like "30m", "1h", "7d". Days are
// not a time.ParseDuration unit, which is why this exists.
func parseSince(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q (want e.g. 30m, 1h, 7d)", s)
	}

	unit := strings.ToLower(s[len(s)-1:])
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid duration %q (want e.g. 30m, 1h, 7d)", s)
	}

	switch unit {
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit %q (want m, h, or d)", unit)
	}
}
