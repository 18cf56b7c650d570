package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/agenttrace/agenttrace/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printEventJSON(e *model.Event)                { printJSON(e) }
func printEventListJSON(events []*model.Event)     { printJSON(events) }
func printSessionsJSON(s []*model.SessionActivity) { printJSON(s) }
func printStatsJSON(stats *model.ToolStats)        { printJSON(stats) }

func printEventListTable(events []*model.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSESSION\tTYPE\tTOOL\tSUMMARY")
	for _, e := range events {
		summary := e.Summary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Time().Format("2006-01-02 15:04:05"),
			e.SessionID,
			e.EventType,
			e.ToolName,
			summary,
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(events))
}

// printEventLine prints one event in the compact single-line form used by tail.
func printEventLine(e *model.Event) {
	ts := ui.RenderMuted(e.Time().Format(time.TimeOnly))
	et := e.EventType
	switch outcome, ok := model.OutcomeFor(e.EventType); {
	case ok && outcome == model.OutcomeSuccess:
		et = ui.RenderSuccess(et)
	case ok && outcome == model.OutcomeFailure:
		et = ui.RenderFailure(et)
	default:
		et = ui.RenderAccent(et)
	}

	line := fmt.Sprintf("%s %s %s", ts, et, e.SessionID)
	if e.ToolName != "" {
		line += " " + e.ToolName
	}
	if e.Summary != "" {
		line += " " + ui.RenderMuted(e.Summary)
	}
	fmt.Println(line)
}

func printSessionsTable(sessions []*model.SessionActivity) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tMODEL\tLAST ACTIVITY\tEVENTS")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			s.SessionID,
			s.ModelName,
			time.UnixMilli(s.LastActivity).Format("2006-01-02 15:04:05"),
			s.EventCount,
		)
	}
	w.Flush()
	fmt.Printf("\n%d active sessions\n", len(sessions))
}

func printStatsTable(stats *model.ToolStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tCOUNT")
	for _, u := range stats.ToolUsage {
		fmt.Fprintf(w, "%s\t%d\n", u.ToolName, u.Count)
	}
	w.Flush()

	success := stats.SuccessFailure[model.OutcomeSuccess]
	failure := stats.SuccessFailure[model.OutcomeFailure]
	fmt.Printf("\n%s %d  %s %d\n",
		ui.RenderSuccess("success:"), success,
		ui.RenderFailure("failure:"), failure,
	)
}
