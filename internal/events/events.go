// Package events mirrors stored event records onto an external message bus so
// other services can react without polling the store. The broadcast hub, not
// the bus, feeds the dashboard stream; the bus is best-effort.
package events

import (
	"context"
	"strings"

	"github.com/agenttrace/agenttrace/internal/model"
)

// SubjectPrefix is the root of every subject this service publishes to.
const SubjectPrefix = "agenttrace.events"

// SubjectAll is the wildcard subject covering every event type.
const SubjectAll = SubjectPrefix + ".>"

// SubjectFor returns the bus subject for an event: one subject per event
// type under SubjectPrefix. event_type is an open set supplied by producers,
// so token separators are rewritten rather than trusted.
func SubjectFor(e *model.Event) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '\n', '*', '>':
			return '_'
		}
		return r
	}, e.EventType)
	if token == "" {
		token = "unknown"
	}
	return SubjectPrefix + "." + token
}

// Publisher is the interface for mirroring stored events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event *model.Event) error
	Close() error
}
