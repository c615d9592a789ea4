// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package database owns all persistence for mqttwatch. It wraps a SQLite
// connection in WAL mode, bootstraps the schema idempotently, and exposes
// the append path used by the ingestion pipeline plus the read queries
// consumed by the query CLI.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blwfish/mqttwatch/internal/config"
	"github.com/blwfish/mqttwatch/internal/logging"
)

// defaultBusyTimeout is how long a connection waits on a locked database
// before giving up.
const defaultBusyTimeout = 5 * time.Second

// DB wraps the SQLite connection and provides data access methods.
//
// The store runs in WAL mode, so a read-only DB opened by the query CLI
// coexists with the daemon's writer: readers see the last committed
// state and never block the write path.
type DB struct {
	conn     *sql.DB
	cfg      *config.DatabaseConfig
	readOnly bool
}

// New opens the database and initializes the schema. Initialization is
// idempotent: reopening an existing database neither fails nor duplicates
// schema objects, and existing rows are preserved.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" && !cfg.ReadOnly {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	dsn := cfg.Path
	if cfg.ReadOnly {
		// mode=ro refuses to create a missing file and lets the open
		// succeed while a writer holds the database.
		dsn = fmt.Sprintf("file:%s?mode=ro", cfg.Path)
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas bind to a connection, so the pool is pinned to one. This
	// also serializes writes, matching the single ingestion goroutine.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
	}
	if !cfg.ReadOnly {
		pragmas = append(pragmas,
			// WAL lets readers run against the last committed state
			// while the daemon keeps appending.
			"PRAGMA journal_mode=WAL",
			// FULL makes every commit durable before it returns.
			"PRAGMA synchronous=FULL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	db := &DB{
		conn:     conn,
		cfg:      cfg,
		readOnly: cfg.ReadOnly,
	}

	if !cfg.ReadOnly {
		if err := db.initialize(); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return db, nil
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close flushes the WAL with a checkpoint and closes the connection.
// The checkpoint is best-effort; a failure is logged, not returned, so
// shutdown always releases the file handle.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if !db.readOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}

	return db.conn.Close()
}

// Checkpoint forces a WAL checkpoint, flushing pending writes to the main
// database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// initialize creates the schema objects. Every statement is IF NOT EXISTS
// so initialization can run against an already-initialized store.
func (db *DB) initialize() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		// Event rows are immutable once written: inserts only, no updates.
		// AUTOINCREMENT keeps ids strictly increasing across reopens; the
		// id is used for storage ordering only, it is not a logical
		// sequence number from the source.
		`CREATE TABLE IF NOT EXISTS mqtt_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			topic TEXT NOT NULL,
			sender TEXT,
			payload TEXT,
			qos INTEGER NOT NULL,
			retained BOOLEAN NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_mqtt_events_timestamp ON mqtt_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_mqtt_events_topic ON mqtt_events(topic)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	// Flush the schema to the main file so a crash right after startup
	// does not leave initialization replaying from the WAL.
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}
