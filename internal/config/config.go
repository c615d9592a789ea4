// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package config defines the mqttwatch configuration model and loads it
// from layered sources via Koanf v2 (ENV > config file > defaults).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the mqttwatch daemon.
type Config struct {
	Broker   BrokerConfig   `koanf:"broker"`
	Database DatabaseConfig `koanf:"database"`
	Detector DetectorConfig `koanf:"detector"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BrokerConfig configures the MQTT broker connection.
type BrokerConfig struct {
	// Host is the broker hostname or IP.
	Host string `koanf:"host"`

	// Port is the broker TCP port.
	Port int `koanf:"port"`

	// ClientID identifies this subscriber to the broker.
	ClientID string `koanf:"client_id"`

	// TopicFilter is the subscription filter. The default "#" matches all
	// application topics ($SYS topics are excluded by the broker).
	TopicFilter string `koanf:"topic_filter"`

	// QoS is the subscription quality-of-service level (0, 1 or 2).
	QoS int `koanf:"qos"`

	// Username and Password are optional broker credentials.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration `koanf:"keep_alive"`

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// MaxReconnectInterval caps the client's reconnect backoff.
	MaxReconnectInterval time.Duration `koanf:"max_reconnect_interval"`
}

// DatabaseConfig configures the SQLite event store.
type DatabaseConfig struct {
	// Path is the database file location. ":memory:" is valid for tests.
	Path string `koanf:"path"`

	// BusyTimeout is how long a connection waits on a locked database.
	// 0 means 5 seconds.
	BusyTimeout time.Duration `koanf:"busy_timeout"`

	// ReadOnly opens the database without write access. Used by the
	// query CLI so it can coexist with a running daemon.
	ReadOnly bool `koanf:"read_only"`
}

// DetectorConfig configures the per-topic rate anomaly detector.
type DetectorConfig struct {
	// Window is the trailing interval over which events are counted.
	Window time.Duration `koanf:"window"`

	// Threshold is the event count within Window that marks a flood.
	Threshold int `koanf:"threshold"`

	// Cooldown is the minimum time between two alerts for one topic.
	Cooldown time.Duration `koanf:"cooldown"`

	// IdleEvictAfter drops a topic's window state after it has been
	// empty this long. 0 derives 10x Window.
	IdleEvictAfter time.Duration `koanf:"idle_evict_after"`
}

// AlertsConfig configures alert delivery.
type AlertsConfig struct {
	// Sink selects the primary sink: "file" or "none".
	Sink string `koanf:"sink"`

	// FilePath is the alert log location for the file sink. Empty
	// defaults to alerts.log next to the database file.
	FilePath string `koanf:"file_path"`

	// WebhookURL enables an additional fire-and-forget webhook sink.
	WebhookURL string `koanf:"webhook_url"`

	// WebhookRateLimit is the minimum interval between webhook posts.
	WebhookRateLimit time.Duration `koanf:"webhook_rate_limit"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	// Enabled starts an HTTP listener exposing /metrics.
	Enabled bool `koanf:"enabled"`

	// Addr is the listen address for the metrics endpoint.
	Addr string `koanf:"addr"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration invariants and returns the first violation.
func (c *Config) Validate() error {
	if c.Broker.Host == "" {
		return fmt.Errorf("broker.host must not be empty")
	}
	if c.Broker.Port <= 0 || c.Broker.Port > 65535 {
		return fmt.Errorf("broker.port must be in 1..65535, got %d", c.Broker.Port)
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		return fmt.Errorf("broker.qos must be 0, 1 or 2, got %d", c.Broker.QoS)
	}
	if c.Broker.TopicFilter == "" {
		return fmt.Errorf("broker.topic_filter must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Detector.Window <= 0 {
		return fmt.Errorf("detector.window must be positive, got %s", c.Detector.Window)
	}
	if c.Detector.Threshold <= 0 {
		return fmt.Errorf("detector.threshold must be positive, got %d", c.Detector.Threshold)
	}
	if c.Detector.Cooldown < 0 {
		return fmt.Errorf("detector.cooldown must not be negative, got %s", c.Detector.Cooldown)
	}
	switch c.Alerts.Sink {
	case "file", "none":
	default:
		return fmt.Errorf("alerts.sink must be \"file\" or \"none\", got %q", c.Alerts.Sink)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	return nil
}
