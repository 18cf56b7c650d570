package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agenttrace/agenttrace/internal/model"
)

// sseKeepaliveInterval is how often keepalive comments are sent to prevent
// connection timeouts on idle streams.
const sseKeepaliveInterval = 15 * time.Second

// handleEventStream handles GET /v1/events/stream (SSE endpoint).
// Each newly ingested event is delivered as one SSE message whose id is the
// store-assigned event id and whose event name is the event type. The stream
// starts at the moment of subscription; there is no replay of history.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	// Ensure response supports flushing (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Info("stream subscriber connected", "subscriber", sub.ID())
	defer slog.Info("stream subscriber disconnected", "subscriber", sub.ID())

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	// Tracks the subscriber's overrun counter so each loss window is
	// reported on the wire exactly once.
	var reportedDrops uint64

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-sub.Events():
			if d := sub.Dropped(); d > reportedDrops {
				// A comment line: the client sees the gap notice without
				// it being parsed as an event.
				fmt.Fprintf(w, ":overrun dropped=%d\n\n", d-reportedDrops)
				reportedDrops = d
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-keepalive.C:
			// Send a comment line as keepalive.
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE message for the event.
func writeSSEEvent(w http.ResponseWriter, e *model.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Warn("failed to marshal event for stream", "event_id", e.ID, "error", err)
		return
	}
	fmt.Fprintf(w, "id:%d\n", e.ID)
	fmt.Fprintf(w, "event:%s\n", e.EventType)
	fmt.Fprintf(w, "data:%s\n\n", data)
}
