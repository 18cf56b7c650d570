// Package client provides a transport-agnostic interface for the agenttrace
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/agenttrace/agenttrace/internal/model"
)

// TraceClient is the interface that all agenttrace CLI commands use to
// communicate with the server. It is implemented by HTTPClient.
type TraceClient interface {
	// Events
	IngestEvent(ctx context.Context, req *IngestEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context, req *ListEventsRequest) ([]*model.Event, error)
	StreamEvents(ctx context.Context) (<-chan *model.Event, func(), error)

	// Aggregates
	ActiveSessions(ctx context.Context, minutes int) ([]*model.SessionActivity, error)
	ToolStats(ctx context.Context, hours int) (*model.ToolStats, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// IngestEventRequest holds parameters for submitting one event.
type IngestEventRequest struct {
	Timestamp int64           `json:"timestamp"`
	SessionID string          `json:"session_id"`
	EventType string          `json:"event_type"`
	SourceApp string          `json:"source_app,omitempty"`
	ModelName string          `json:"model_name,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Summary   string          `json:"summary,omitempty"`
}

// ListEventsRequest holds query filters for listing events.
type ListEventsRequest struct {
	SessionID string
	EventType string
	Limit     int
}
