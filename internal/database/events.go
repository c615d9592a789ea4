// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package database

import (
	"time"
)

// TimestampLayout is the storage format for event timestamps: ISO-8601
// with the local timezone offset. Events recorded with the same offset
// sort chronologically as plain strings, which is what the timestamp
// index relies on.
const TimestampLayout = "2006-01-02T15:04:05.999999999-07:00"

// Event is one observed MQTT message as stored in mqtt_events.
type Event struct {
	// ID is assigned by the store on append. Unique and monotonically
	// increasing; used only for insertion-order tiebreaks.
	ID int64 `json:"id"`

	// Timestamp is the wall-clock receipt time in TimestampLayout.
	Timestamp string `json:"timestamp"`

	// Topic is the message's hierarchical topic, segments joined by "/".
	Topic string `json:"topic"`

	// Sender is the identifier extracted from the payload, empty when
	// undeterminable. Stored as NULL when empty.
	Sender string `json:"sender,omitempty"`

	// Payload is the message body as text. Payloads that are not valid
	// UTF-8 are stored as lowercase hex of the raw bytes; the store does
	// not record which encoding was used.
	Payload string `json:"payload"`

	// QoS is the delivery guarantee level transmitted upstream. Stored,
	// not interpreted.
	QoS int `json:"qos"`

	// Retained marks messages the broker flagged as retained.
	Retained bool `json:"retained"`
}

// FormatTimestamp renders a receipt time in the storage layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// TopicCount is one row of the distinct-topics listing.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int64  `json:"count"`
}

// StoreStats aggregates the whole table.
type StoreStats struct {
	TotalEvents    int64  `json:"total_events"`
	DistinctTopics int64  `json:"distinct_topics"`
	RetainedCount  int64  `json:"retained_count"`
	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`
}

// EventFilter narrows a QueryEvents scan. Zero values mean "no filter";
// a zero Limit applies DefaultQueryLimit.
type EventFilter struct {
	// TopicPattern is an MQTT-style pattern. "#" matches any suffix of
	// segments, "+" exactly one segment. Both translate to SQL LIKE
	// wildcards, which over-matches for "+" (see topicPatternToLike).
	TopicPattern string

	// Since keeps only events with receipt time at or after this instant.
	Since time.Time

	// Limit bounds the result size.
	Limit int
}

// DefaultQueryLimit bounds result size when the caller does not.
const DefaultQueryLimit = 50
