package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agenttrace/agenttrace/internal/client"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "List recent events, newest first",
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		eventType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		events, err := traceClient.ListEvents(context.Background(), &client.ListEventsRequest{
			SessionID: sessionID,
			EventType: eventType,
			Limit:     limit,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printEventListJSON(events)
		} else {
			printEventListTable(events)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("session", "", "filter by session id")
	eventsCmd.Flags().String("type", "", "filter by event type")
	eventsCmd.Flags().Int("limit", 0, "maximum events to return (server default 100)")
}
