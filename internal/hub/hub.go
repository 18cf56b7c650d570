// Package hub fans newly stored events out to live stream subscribers.
//
// Each subscriber owns a bounded delivery queue. Publish never blocks: when a
// subscriber's queue is full the hub drops that subscriber's oldest unread
// event (drop-oldest policy) and counts the overrun, so one stalled consumer
// can neither block the publisher nor grow memory without bound. Subscribers
// receive events in publish order starting from the moment they subscribe;
// there is no replay of history.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/agenttrace/agenttrace/internal/idgen"
	"github.com/agenttrace/agenttrace/internal/model"
)

// DefaultQueueSize is the per-subscriber delivery queue depth when the hub is
// constructed with a non-positive size.
const DefaultQueueSize = 64

// ErrClosed is returned by Subscriber.Next after the subscription is torn down.
var ErrClosed = errors.New("subscription closed")

// Hub maintains the set of live subscribers and delivers each published event
// to all of them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	queueSize   int
	published   atomic.Uint64
}

// Subscriber is one live stream connection. It is created by Subscribe, owned
// by its consumer, and released with Unsubscribe.
type Subscriber struct {
	id      string
	ch      chan *model.Event
	done    chan struct{}
	dropped atomic.Uint64
}

// New creates a hub whose subscribers each get a delivery queue of the given
// depth.
func New(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		queueSize:   queueSize,
	}
}

// Subscribe registers a new subscriber. The subscriber sees only events
// published after this call returns. Call Unsubscribe when done.
func (h *Hub) Subscribe() *Subscriber {
	id, err := idgen.Generate()
	if err != nil {
		// nanoid only fails when the OS entropy source does; fall back to
		// an empty id rather than refusing the subscription.
		slog.Warn("hub: subscriber id generation failed", "error", err)
	}
	s := &Subscriber{
		id:   id,
		ch:   make(chan *model.Event, h.queueSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and releases its queue. Pending undelivered
// events are discarded. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	_, registered := h.subscribers[s]
	delete(h.subscribers, s)
	h.mu.Unlock()
	if registered {
		close(s.done)
	}
}

// Publish delivers the event to every current subscriber. Delivery to each
// subscriber is independent; a full queue costs one drop, never a block. The
// caller (the ingestion endpoint) serializes Publish calls, which is what
// makes per-subscriber delivery order match event id order.
func (h *Hub) Publish(e *model.Event) {
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		s.offer(e)
	}
}

// SubscriberCount returns the number of currently registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Published returns the total number of events published through the hub.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

// offer enqueues the event, evicting the oldest unread event first when the
// queue is full. The consumer may race the eviction; if the queue refills in
// between, the new event itself is counted as the drop.
func (s *Subscriber) offer(e *model.Event) {
	select {
	case s.ch <- e:
		return
	default:
	}

	select {
	case old := <-s.ch:
		s.dropped.Add(1)
		slog.Warn("hub: subscriber overrun, dropped oldest event",
			"subscriber", s.id, "event_id", old.ID, "total_dropped", s.dropped.Load())
	default:
	}

	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// ID returns the subscriber's connection id.
func (s *Subscriber) ID() string {
	return s.id
}

// Events exposes the delivery queue for select-based consumers.
func (s *Subscriber) Events() <-chan *model.Event {
	return s.ch
}

// Done is closed when the subscription is torn down.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Dropped returns how many events this subscriber has lost to overruns.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Next blocks until an event is delivered, the context is cancelled, or the
// subscription is torn down. Events already queued when the subscription ends
// are still drained before ErrClosed is reported.
func (s *Subscriber) Next(ctx context.Context) (*model.Event, error) {
	select {
	case e := <-s.ch:
		return e, nil
	default:
	}
	select {
	case e := <-s.ch:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		// Drain anything that arrived before teardown.
		select {
		case e := <-s.ch:
			return e, nil
		default:
			return nil, ErrClosed
		}
	}
}
