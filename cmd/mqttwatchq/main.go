// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package main is mqttwatchq, the query CLI for the mqttwatch event
// store. It opens the database read-only so it can run alongside the
// daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blwfish/mqttwatch/internal/config"
	"github.com/blwfish/mqttwatch/internal/database"
)

var (
	dbPath     string
	jsonOutput bool
)

func defaultDBPath() string {
	if s := os.Getenv("DB_PATH"); s != "" {
		return s
	}
	// Container volume first, local file second.
	if _, err := os.Stat("/data/mqtt_events.db"); err == nil {
		return "/data/mqtt_events.db"
	}
	return "mqtt_events.db"
}

var rootCmd = &cobra.Command{
	Use:   "mqttwatchq <command>",
	Short: "Query the mqttwatch event store",
	Long: `mqttwatchq inspects the event store written by mqttwatchd.

Examples:
  mqttwatchq events                     Show recent events
  mqttwatchq events --topic 'home/#'    Filter by topic pattern
  mqttwatchq events --since 1h          Events from the last hour
  mqttwatchq topics                     List topics with counts
  mqttwatchq stats                      Store statistics`,
	SilenceUsage: true,
}

// openStore opens the event store read-only. A missing file gets a
// friendly hint instead of a driver error.
func openStore() (*database.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("event store not found at %s (run mqttwatchd first)", dbPath)
	}
	return database.New(&config.DatabaseConfig{
		Path:     dbPath,
		ReadOnly: true,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "event store path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
