// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// AppendEvent inserts one event row and returns the assigned id.
//
// The write is durable when AppendEvent returns: each insert is its own
// transaction, and with synchronous=FULL the commit is synced to the WAL
// before it returns, so there is no buffering across calls that could
// lose acknowledged events on crash.
// A storage failure is always surfaced to the caller; use IsUnusable to
// distinguish a fatal storage condition from a per-row failure.
func (db *DB) AppendEvent(ctx context.Context, event *Event) (int64, error) {
	if event.Topic == "" {
		return 0, fmt.Errorf("append event: %w", ErrEmptyTopic)
	}

	// Empty sender persists as NULL, matching the optional field.
	sender := sql.NullString{String: event.Sender, Valid: event.Sender != ""}

	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO mqtt_events (timestamp, topic, sender, payload, qos, retained)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		event.Timestamp, event.Topic, sender, event.Payload, event.QoS, event.Retained,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}

	event.ID = id
	return id, nil
}

// ListTopics returns every distinct topic with its event count, ordered
// by count descending.
func (db *DB) ListTopics(ctx context.Context) ([]TopicCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT topic, COUNT(*) AS count
		 FROM mqtt_events
		 GROUP BY topic
		 ORDER BY count DESC, topic ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer closeQuietly(rows)

	var topics []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topic rows: %w", err)
	}

	return topics, nil
}

// Stats returns aggregate statistics over the whole table. First/last
// timestamps are empty strings for an empty store.
func (db *DB) Stats(ctx context.Context) (*StoreStats, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(DISTINCT topic),
			COUNT(*) FILTER (WHERE retained),
			MIN(timestamp),
			MAX(timestamp)
		 FROM mqtt_events`,
	)

	var stats StoreStats
	var first, last sql.NullString
	if err := row.Scan(&stats.TotalEvents, &stats.DistinctTopics, &stats.RetainedCount, &first, &last); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.FirstTimestamp = first.String
	stats.LastTimestamp = last.String

	return &stats, nil
}

// QueryEvents scans events matching the filter, most recent first
// (timestamp descending, insertion order breaking ties).
func (db *DB) QueryEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := `SELECT id, timestamp, topic, sender, payload, qos, retained
	 FROM mqtt_events
	 WHERE 1=1`
	var args []any

	if filter.TopicPattern != "" {
		query += ` AND topic LIKE ?`
		args = append(args, topicPatternToLike(filter.TopicPattern))
	}

	if !filter.Since.IsZero() {
		// Timestamps with a uniform offset compare chronologically as text.
		query += ` AND timestamp >= ?`
		args = append(args, FormatTimestamp(filter.Since))
	}

	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeQuietly(rows)

	var events []Event
	for rows.Next() {
		var e Event
		var sender sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Topic, &sender, &e.Payload, &e.QoS, &e.Retained); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.Sender = sender.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}

	return events, nil
}
