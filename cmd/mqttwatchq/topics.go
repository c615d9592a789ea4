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

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List distinct topics with message counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		topics, err := db.ListTopics(context.Background())
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(topics, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("%-60s %8s\n", "Topic", "Count")
		fmt.Println(strings.Repeat("-", 70))
		for _, tc := range topics {
			fmt.Printf("%-60s %8d\n", tc.Topic, tc.Count)
		}
		return nil
	},
}
