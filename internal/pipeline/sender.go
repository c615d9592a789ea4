// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package pipeline

import (
	"strings"

	"github.com/goccy/go-json"
)

// senderKeys are the payload fields inspected for a sender identity, in
// priority order. The first key present wins regardless of its position
// in the payload.
var senderKeys = []string{"sender", "client_id", "clientId", "source", "from", "device_id"}

// ExtractSender pulls a sender identity out of a JSON object payload.
// Returns the empty string when the payload is empty, not a JSON
// object, or carries none of the known keys. It never fails; a payload
// that does not parse simply has no sender.
//
// String values are returned verbatim. Any other JSON value (number,
// bool, null, nested object) is returned as its compact JSON text.
func ExtractSender(payload string) string {
	if payload == "" {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return ""
	}

	for _, key := range senderKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return strings.TrimSpace(string(raw))
	}

	return ""
}
