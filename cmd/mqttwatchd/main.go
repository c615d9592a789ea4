// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package main is the entry point for the mqttwatch daemon.
//
// mqttwatch subscribes to an MQTT broker, persists every received
// message to a SQLite event store, and watches each topic's publish
// rate for floods (runaway devices, automation loops). Flood alerts go
// to pluggable sinks, by default a plain text file suitable for
// tailing by a host-side watcher.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml, and
//     environment variables (highest priority wins)
//  2. Logging: zerolog, configured from the loaded settings
//  3. Event store: SQLite in WAL mode, schema created if missing
//  4. Flood detector and alert sinks
//  5. Supervisor tree: broker subscriber plus the optional metrics
//     server, supervised by suture
//
// # Configuration
//
// Everything is overridable via environment variables, e.g.:
//
//	export MQTT_BROKER_HOST=mosquitto
//	export MQTT_BROKER_PORT=1883
//	export DB_PATH=/data/mqtt_events.db
//	export DETECTOR_THRESHOLD=10
//	export ALERT_SINK=file
//	./mqttwatchd
//
// # Signal handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the subscriber
// disconnects, in-flight alert deliveries finish, and the store is
// checkpointed and closed last so no accepted event is lost.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/blwfish/mqttwatch/internal/alert"
	"github.com/blwfish/mqttwatch/internal/config"
	"github.com/blwfish/mqttwatch/internal/database"
	"github.com/blwfish/mqttwatch/internal/detector"
	"github.com/blwfish/mqttwatch/internal/logging"
	"github.com/blwfish/mqttwatch/internal/metrics"
	"github.com/blwfish/mqttwatch/internal/mqtt"
	"github.com/blwfish/mqttwatch/internal/pipeline"
	"github.com/blwfish/mqttwatch/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config was never loaded.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("broker", cfg.Broker.Host).
		Int("port", cfg.Broker.Port).
		Str("filter", cfg.Broker.TopicFilter).
		Str("db_path", cfg.Database.Path).
		Msg("Starting mqttwatch")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()
	logging.Info().Msg("Event store initialized")

	det := detector.New(detector.Config{
		Window:         cfg.Detector.Window,
		Threshold:      cfg.Detector.Threshold,
		Cooldown:       cfg.Detector.Cooldown,
		IdleEvictAfter: cfg.Detector.IdleEvictAfter,
	})

	dispatcher := alert.NewDispatcher()
	registerNotifiers(dispatcher, cfg)

	p := pipeline.New(db, det, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(mqtt.NewSubscriber(&cfg.Broker, p))
	if cfg.Metrics.Enabled {
		tree.AddTelemetryService(metrics.NewServer(cfg.Metrics.Addr))
		logging.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics server enabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Let in-flight alert deliveries land before the final checkpoint.
	waitForAlerts(dispatcher, 10*time.Second)

	logging.Info().Msg("mqttwatch stopped")
}

// registerNotifiers wires alert sinks from configuration. The file sink
// defaults to alerts.log next to the database so both live on the same
// mounted volume.
func registerNotifiers(d *alert.Dispatcher, cfg *config.Config) {
	switch cfg.Alerts.Sink {
	case "none":
		d.Register(alert.NewNoopNotifier())
	default:
		path := cfg.Alerts.FilePath
		if path == "" {
			path = filepath.Join(filepath.Dir(cfg.Database.Path), "alerts.log")
		}
		d.Register(alert.NewFileNotifier(path))
	}

	if cfg.Alerts.WebhookURL != "" {
		d.Register(alert.NewWebhookNotifier(alert.WebhookConfig{
			WebhookURL: cfg.Alerts.WebhookURL,
			RateLimit:  cfg.Alerts.WebhookRateLimit,
		}))
	}
}

// waitForAlerts blocks until pending deliveries finish or the timeout
// expires.
func waitForAlerts(d *alert.Dispatcher, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn().Msg("Timed out waiting for alert deliveries")
	}
}
