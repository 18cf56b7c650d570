package model

// EventFilter holds criteria for querying the event log. Results are always
// ordered by id descending (most recent first).
type EventFilter struct {
	SessionID string `json:"session_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Limit     int    `json:"limit,omitempty"` // 0 means the store default
}
