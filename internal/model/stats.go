package model

// SessionActivity is one row of the active-session roster: a session with at
// least one event inside the trailing window. ModelName is the most recently
// reported model for the session, chosen by largest event id rather than by
// producer timestamp so that clock skew cannot reorder it.
type SessionActivity struct {
	SessionID    string `json:"session_id"`
	ModelName    string `json:"model_name,omitempty"`
	LastActivity int64  `json:"last_activity"` // max producer timestamp, epoch ms
	EventCount   int64  `json:"event_count"`
}

// ToolUsage is the event count for a single tool within the window.
type ToolUsage struct {
	ToolName string `json:"tool_name"`
	Count    int64  `json:"count"`
}

// ToolStats aggregates tool activity over a trailing window: per-tool usage
// counts plus success/failure buckets over the tool-outcome event types.
type ToolStats struct {
	ToolUsage      []ToolUsage       `json:"tool_usage"`
	SuccessFailure map[Outcome]int64 `json:"success_failure"`
}
