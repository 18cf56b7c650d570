package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/agenttrace/agenttrace/internal/client"
	"github.com/spf13/cobra"
)

var emitCmd = &cobra.Command{
	Use:     "emit <event-type>",
	Short:   "Submit one event to the server",
	GroupID: "events",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventType := args[0]
		sessionID, _ := cmd.Flags().GetString("session")
		sourceApp, _ := cmd.Flags().GetString("source-app")
		modelName, _ := cmd.Flags().GetString("model")
		toolName, _ := cmd.Flags().GetString("tool")
		summary, _ := cmd.Flags().GetString("summary")
		payload, _ := cmd.Flags().GetString("payload")
		timestamp, _ := cmd.Flags().GetInt64("timestamp")

		if timestamp == 0 {
			timestamp = time.Now().UnixMilli()
		}

		req := &client.IngestEventRequest{
			Timestamp: timestamp,
			SessionID: sessionID,
			EventType: eventType,
			SourceApp: sourceApp,
			ModelName: modelName,
			ToolName:  toolName,
			Summary:   summary,
		}
		if payload != "" {
			if !json.Valid([]byte(payload)) {
				return fmt.Errorf("--payload must be well-formed JSON")
			}
			req.Payload = json.RawMessage(payload)
		}

		event, err := traceClient.IngestEvent(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printEventJSON(event)
		} else {
			fmt.Printf("Stored event %d (%s)\n", event.ID, event.EventType)
		}
		return nil
	},
}

func init() {
	emitCmd.Flags().String("session", "", "session id (required)")
	emitCmd.Flags().String("source-app", "", "producing application")
	emitCmd.Flags().String("model", "", "model name")
	emitCmd.Flags().String("tool", "", "tool name")
	emitCmd.Flags().String("summary", "", "human-readable summary")
	emitCmd.Flags().String("payload", "", "JSON payload")
	emitCmd.Flags().Int64("timestamp", 0, "producer timestamp in epoch milliseconds (default now)")
	emitCmd.MarkFlagRequired("session")
}
