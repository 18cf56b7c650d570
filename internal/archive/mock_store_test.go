package archive

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agenttrace/agenttrace/internal/model"
)

// mockStore is an in-memory store.Store for archive tests.
type mockStore struct {
	mu     sync.Mutex
	events []*model.Event
	nextID int64
}

func newMockStore() *mockStore {
	return &mockStore{nextID: 1}
}

// add appends an event directly, assigning the next id.
func (m *mockStore) add(e *model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	e.CreatedAt = time.Now().UTC()
	m.nextID++
	m.events = append(m.events, e)
}

func (m *mockStore) AppendEvent(_ context.Context, event *model.Event) error {
	m.add(event)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, filter model.EventFilter) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.Event, len(m.events))
	copy(result, m.events)
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStore) ActiveSessions(_ context.Context, _ int64) ([]*model.SessionActivity, error) {
	return nil, nil
}

func (m *mockStore) ToolStats(_ context.Context, _ int64) (*model.ToolStats, error) {
	return &model.ToolStats{}, nil
}

func (m *mockStore) Close() error { return nil }

// nonEmptyLines splits s on newlines and drops blank lines.
func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
