package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show tool usage and outcome stats",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, _ := cmd.Flags().GetInt("hours")

		stats, err := traceClient.ToolStats(context.Background(), hours)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printStatsJSON(stats)
		} else {
			printStatsTable(stats)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("hours", 0, "trailing window in hours (server default 1)")
}
