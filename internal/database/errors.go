// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package database

import (
	"errors"
	"io"
	"strings"
)

// ErrEmptyTopic is returned when an event with an empty topic reaches the
// store. Topics are non-empty by invariant; the pipeline rejects these
// earlier, this is the last line of defense.
var ErrEmptyTopic = errors.New("topic must not be empty")

// unusableMarkers are substrings of driver errors that indicate the
// storage itself is gone rather than a single row having failed: a full
// disk, an I/O error on the database file, a corrupted file, or a closed
// connection. The driver surfaces SQLite errors as formatted strings
// through database/sql, so classification is textual.
var unusableMarkers = []string{
	"no space left on device",
	"disk full",
	"database or disk is full",
	"out of memory",
	"disk i/o error",
	"i/o error",
	"io error",
	"database disk image is malformed",
	"database is closed",
	"readonly database",
	"read-only",
}

// IsUnusable reports whether a write error means the store can no longer
// accept events at all. The pipeline treats these as fatal: the process
// should stop rather than keep acknowledging messages it cannot persist.
func IsUnusable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range unusableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}
