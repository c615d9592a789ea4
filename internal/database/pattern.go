// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package database

import "strings"

// topicPatternToLike translates an MQTT topic pattern into a SQL LIKE
// pattern. Both MQTT wildcards collapse to LIKE's %:
//
//	home/#      -> home/%
//	home/+/temp -> home/%/temp
//
// This over-matches for "+", which per MQTT matches exactly one segment:
// "home/+/temp" also matches "home/a/b/temp". The looser match shows more
// rows, never fewer.
func topicPatternToLike(pattern string) string {
	like := strings.ReplaceAll(pattern, "#", "%")
	return strings.ReplaceAll(like, "+", "%")
}
