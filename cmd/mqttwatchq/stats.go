// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		first := stats.FirstTimestamp
		if first == "" {
			first = "N/A"
		}
		last := stats.LastTimestamp
		if last == "" {
			last = "N/A"
		}

		fmt.Println("MQTT Events Database Statistics")
		fmt.Println(strings.Repeat("=", 40))
		fmt.Printf("Total events:    %d\n", stats.TotalEvents)
		fmt.Printf("Unique topics:   %d\n", stats.DistinctTopics)
		fmt.Printf("Retained msgs:   %d\n", stats.RetainedCount)
		fmt.Printf("First event:     %s\n", first)
		fmt.Printf("Last event:      %s\n", last)
		return nil
	},
}
