package model

import (
	"encoding/json"
	"time"
)

// Event is one immutable record of the append-only log. ID is assigned by the
// store at write time and is the sole ordering key; Timestamp is whatever the
// producer reported and is only ever used for window filtering.
type Event struct {
	ID        int64           `json:"id"`
	Timestamp int64           `json:"timestamp"` // producer clock, epoch milliseconds
	SessionID string          `json:"session_id"`
	EventType string          `json:"event_type"`
	SourceApp string          `json:"source_app,omitempty"`
	ModelName string          `json:"model_name,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"` // opaque, stored verbatim
	Summary   string          `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Time returns the producer timestamp as a time.Time.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
