// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/blwfish/mqttwatch/internal/database"
)

// displayPayloadLimit caps payload length in human-readable output.
const displayPayloadLimit = 80

var (
	eventsTopic string
	eventsSince string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show stored events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := database.EventFilter{
			TopicPattern: eventsTopic,
			Limit:        eventsLimit,
		}
		if eventsSince != "" {
			d, err := parseSince(eventsSince)
			if err != nil {
				return err
			}
			filter.Since = time.Now().Add(-d)
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := db.QueryEvents(context.Background(), filter)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		for _, e := range events {
			printEvent(e)
		}
		return nil
	},
}

// printEvent renders one event as two lines: a header with timestamp,
// QoS, retained flag, topic, and sender, then the indented payload.
func printEvent(e database.Event) {
	retFlag := " "
	if e.Retained {
		retFlag = "R"
	}
	sender := ""
	if e.Sender != "" {
		sender = fmt.Sprintf(" [%s]", e.Sender)
	}

	fmt.Printf("%s Q%d%s %s%s\n", e.Timestamp, e.QoS, retFlag, e.Topic, sender)
	if e.Payload != "" {
		payload := e.Payload
		if len(payload) > displayPayloadLimit {
			payload = payload[:displayPayloadLimit] + "..."
		}
		fmt.Printf("    %s\n", payload)
	}
	fmt.Println()
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsTopic, "topic", "t", "", "filter by topic pattern (supports # and +)")
	eventsCmd.Flags().StringVarP(&eventsSince, "since", "s", "", "show events since duration (e.g. 1h, 30m, 7d)")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", database.DefaultQueryLimit, "max events to show")
}
