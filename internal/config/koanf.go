// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mqttwatch/config.yaml",
	"/etc/mqttwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Detector defaults
// match the reference behavior: 10 messages within 5 seconds trigger an
// alert, repeated at most once per minute per topic.
func defaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:                 "localhost",
			Port:                 1883,
			ClientID:             "mqttwatch",
			TopicFilter:          "#",
			QoS:                  0,
			KeepAlive:            60 * time.Second,
			ConnectTimeout:       30 * time.Second,
			MaxReconnectInterval: time.Minute,
		},
		Database: DatabaseConfig{
			Path:        "/data/mqtt_events.db",
			BusyTimeout: 5 * time.Second,
		},
		Detector: DetectorConfig{
			Window:         5 * time.Second,
			Threshold:      10,
			Cooldown:       60 * time.Second,
			IdleEvictAfter: 0, // 0 = 10x window
		},
		Alerts: AlertsConfig{
			Sink:             "file",
			FilePath:         "", // next to the database file
			WebhookURL:       "",
			WebhookRateLimit: 500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9641",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// MQTT_BROKER_HOST -> broker.host etc.; unmapped env vars are skipped.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys return empty string and are skipped, so unrelated
// environment variables never pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Broker mappings
		"mqtt_broker_host":            "broker.host",
		"mqtt_broker_port":            "broker.port",
		"mqtt_client_id":              "broker.client_id",
		"mqtt_topic_filter":           "broker.topic_filter",
		"mqtt_qos":                    "broker.qos",
		"mqtt_username":               "broker.username",
		"mqtt_password":               "broker.password",
		"mqtt_keep_alive":             "broker.keep_alive",
		"mqtt_connect_timeout":        "broker.connect_timeout",
		"mqtt_max_reconnect_interval": "broker.max_reconnect_interval",

		// Database mappings
		"db_path":         "database.path",
		"db_busy_timeout": "database.busy_timeout",

		// Detector mappings
		"detector_window":           "detector.window",
		"detector_threshold":        "detector.threshold",
		"detector_cooldown":         "detector.cooldown",
		"detector_idle_evict_after": "detector.idle_evict_after",

		// Alert mappings
		"alert_sink":               "alerts.sink",
		"alert_file_path":          "alerts.file_path",
		"alert_webhook_url":        "alerts.webhook_url",
		"alert_webhook_rate_limit": "alerts.webhook_rate_limit",

		// Metrics mappings
		"metrics_enabled": "metrics.enabled",
		"metrics_addr":    "metrics.addr",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
