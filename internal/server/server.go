package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agenttrace/agenttrace/internal/events"
	"github.com/agenttrace/agenttrace/internal/hub"
	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/agenttrace/agenttrace/internal/store"
)

// Default trailing windows for the aggregate queries, matching the dashboard's
// defaults.
const (
	defaultSessionWindow = 60 * time.Minute
	defaultStatsWindow   = time.Hour
)

// Server is the event store and broadcast hub service: it accepts events one
// at a time, persists them, fans them out to live stream subscribers, and
// answers aggregate queries from the persisted log.
type Server struct {
	store     store.Store
	publisher events.Publisher
	hub       *hub.Hub

	// ingestMu serializes the append+broadcast pair so that per-subscriber
	// delivery order always matches id assignment order, and so a stream
	// subscriber can never observe an event a concurrent query would miss.
	ingestMu sync.Mutex
}

// New returns a Server backed by the given store, bus publisher, and hub.
func New(s store.Store, p events.Publisher, h *hub.Hub) *Server {
	return &Server{
		store:     s,
		publisher: p,
		hub:       h,
	}
}

// Hub exposes the broadcast hub, mainly for stream handlers and tests.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// inputError indicates invalid user input.
// Transport layers map this to HTTP 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// Ingest validates the candidate event, persists it (assigning its id), then
// fans it out to every live subscriber and mirrors it to the bus. Validation
// failures have no side effects; store failures are reported to the caller
// and nothing is broadcast.
func (s *Server) Ingest(ctx context.Context, e *model.Event) error {
	if err := model.ValidateEvent(e); err != nil {
		return inputError(err.Error())
	}

	s.ingestMu.Lock()
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.ingestMu.Unlock()
		return fmt.Errorf("ingest: %w", err)
	}
	s.hub.Publish(e)
	s.ingestMu.Unlock()

	// Bus mirroring is best-effort and happens outside the ordering lock;
	// the hub, not the bus, carries the ordering guarantee.
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Warn("failed to mirror event to bus", "event_id", e.ID, "error", err)
	}

	return nil
}

// isInvalid reports whether err came from candidate validation.
func isInvalid(err error) bool {
	var ie inputError
	return errors.As(err, &ie)
}
