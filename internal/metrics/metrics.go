// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package metrics provides Prometheus instrumentation for the ingest
// pipeline, the event store, and flood detection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest metrics
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_events_received_total",
			Help: "Total number of MQTT messages received",
		},
	)

	EventsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_events_stored_total",
			Help: "Total number of events persisted to the store",
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_store_errors_total",
			Help: "Total number of failed event inserts",
		},
	)

	StoreWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mqttwatch_store_write_duration_seconds",
			Help:    "Duration of event inserts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PayloadDecodeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_payload_decode_fallbacks_total",
			Help: "Total number of non-UTF-8 payloads stored as hex",
		},
	)

	// Detection metrics
	AlertsFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_alerts_fired_total",
			Help: "Total number of flood alerts fired",
		},
	)

	TrackedTopics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mqttwatch_tracked_topics",
			Help: "Current number of topics tracked by the flood detector",
		},
	)

	// Broker metrics
	BrokerConnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_broker_connects_total",
			Help: "Total number of successful broker connections",
		},
	)

	BrokerDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqttwatch_broker_disconnects_total",
			Help: "Total number of unexpected broker disconnections",
		},
	)
)

// RecordStoreWrite records one insert attempt and its outcome.
func RecordStoreWrite(duration time.Duration, err error) {
	StoreWriteDuration.Observe(duration.Seconds())
	if err != nil {
		StoreErrors.Inc()
		return
	}
	EventsStored.Inc()
}
