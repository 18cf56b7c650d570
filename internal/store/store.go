package store

import (
	"context"
	"errors"

	"github.com/agenttrace/agenttrace/internal/model"
)

// ErrUnavailable indicates the durability layer is unreachable or a write
// failed. Ingestion surfaces it to the producer and never broadcasts the
// event; callers own any retry policy.
var ErrUnavailable = errors.New("storage unavailable")

// Store defines the persistence interface for the event log.
type Store interface {
	// AppendEvent durably persists the event and fills in its ID and
	// CreatedAt. IDs are strictly increasing and match commit order: an
	// event with a larger ID never becomes visible to readers before one
	// with a smaller ID. Failures wrap ErrUnavailable.
	AppendEvent(ctx context.Context, event *model.Event) error

	// ListEvents returns events matching the filter, newest first by ID.
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)

	// ActiveSessions returns, for every session with at least one event
	// whose producer timestamp is after sinceMillis, the latest reported
	// model name (by largest ID), the max timestamp, and the event count,
	// ordered by most recent activity descending. Empty store, empty slice.
	ActiveSessions(ctx context.Context, sinceMillis int64) ([]*model.SessionActivity, error)

	// ToolStats returns per-tool usage counts and success/failure buckets
	// over events with timestamp after sinceMillis, computed from a single
	// consistent snapshot.
	ToolStats(ctx context.Context, sinceMillis int64) (*model.ToolStats, error)

	// Lifecycle
	Close() error
}
