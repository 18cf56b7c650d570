package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "Show sessions with recent activity",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")

		sessions, err := traceClient.ActiveSessions(context.Background(), minutes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printSessionsJSON(sessions)
		} else {
			printSessionsTable(sessions)
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().Int("minutes", 0, "trailing window in minutes (server default 60)")
}
