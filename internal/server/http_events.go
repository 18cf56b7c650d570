package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/agenttrace/agenttrace/internal/store"
)

// ingestEventInput is the JSON body for POST /v1/events. The id field is
// ignored if a producer sends one; the store assigns identity.
type ingestEventInput struct {
	Timestamp int64           `json:"timestamp"`
	SessionID string          `json:"session_id"`
	EventType string          `json:"event_type"`
	SourceApp string          `json:"source_app,omitempty"`
	ModelName string          `json:"model_name,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Summary   string          `json:"summary,omitempty"`
}

// handleIngestEvent handles POST /v1/events.
func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var in ingestEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event := &model.Event{
		Timestamp: in.Timestamp,
		SessionID: in.SessionID,
		EventType: in.EventType,
		SourceApp: in.SourceApp,
		ModelName: in.ModelName,
		ToolName:  in.ToolName,
		Payload:   in.Payload,
		Summary:   in.Summary,
	}

	if err := s.Ingest(r.Context(), event); err != nil {
		switch {
		case isInvalid(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// handleListEvents handles GET /v1/events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		SessionID: q.Get("session_id"),
		EventType: q.Get("event_type"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	events, err := s.store.ListEvents(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
