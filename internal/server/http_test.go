package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/agenttrace/agenttrace/internal/events"
	"github.com/agenttrace/agenttrace/internal/hub"
	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/agenttrace/agenttrace/internal/store"
)

type mockStore struct {
	mu     sync.Mutex
	events []*model.Event
	nextID int64

	// appendErr, when non-nil, is returned by AppendEvent (for testing the
	// unavailable path).
	appendErr error
}

func newMockStore() *mockStore {
	return &mockStore{nextID: 1}
}

func (m *mockStore) AppendEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	event.ID = m.nextID
	event.CreatedAt = time.Now().UTC()
	m.nextID++
	clone := *event
	m.events = append(m.events, &clone)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, filter model.EventFilter) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Event
	for _, e := range m.events {
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockStore) ActiveSessions(_ context.Context, sinceMillis int64) ([]*model.SessionActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := make(map[string]*model.SessionActivity)
	latestModelID := make(map[string]int64)
	for _, e := range m.events {
		if e.Timestamp <= sinceMillis {
			continue
		}
		sa, ok := byID[e.SessionID]
		if !ok {
			sa = &model.SessionActivity{SessionID: e.SessionID}
			byID[e.SessionID] = sa
		}
		sa.EventCount++
		if e.Timestamp > sa.LastActivity {
			sa.LastActivity = e.Timestamp
		}
		if e.ModelName != "" && e.ID > latestModelID[e.SessionID] {
			latestModelID[e.SessionID] = e.ID
			sa.ModelName = e.ModelName
		}
	}
	result := make([]*model.SessionActivity, 0, len(byID))
	for _, sa := range byID {
		result = append(result, sa)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastActivity > result[j].LastActivity })
	return result, nil
}

func (m *mockStore) ToolStats(_ context.Context, sinceMillis int64) (*model.ToolStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	stats := &model.ToolStats{SuccessFailure: map[model.Outcome]int64{
		model.OutcomeSuccess: 0,
		model.OutcomeFailure: 0,
	}}
	for _, e := range m.events {
		if e.Timestamp <= sinceMillis {
			continue
		}
		if e.ToolName != "" {
			counts[e.ToolName]++
		}
		if outcome, ok := model.OutcomeFor(e.EventType); ok {
			stats.SuccessFailure[outcome]++
		}
	}
	stats.ToolUsage = make([]model.ToolUsage, 0, len(counts))
	for name, n := range counts {
		stats.ToolUsage = append(stats.ToolUsage, model.ToolUsage{ToolName: name, Count: n})
	}
	sort.Slice(stats.ToolUsage, func(i, j int) bool {
		if stats.ToolUsage[i].Count != stats.ToolUsage[j].Count {
			return stats.ToolUsage[i].Count > stats.ToolUsage[j].Count
		}
		return stats.ToolUsage[i].ToolName < stats.ToolUsage[j].ToolName
	})
	return stats, nil
}

func (m *mockStore) Close() error { return nil }

// newTestServer returns a fresh server, its mock store, and an HTTP handler
// with auth disabled.
func newTestServer() (*Server, *mockStore, http.Handler) {
	ms := newMockStore()
	s := New(ms, &events.NoopPublisher{}, hub.New(64))
	return s, ms, s.NewHTTPHandler("")
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, code, rec.Body.String())
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func validIngestBody() map[string]any {
	return map[string]any{
		"timestamp":  time.Now().UnixMilli(),
		"session_id": "sess-1",
		"event_type": "PreToolUse",
		"source_app": "claude-code",
		"tool_name":  "Bash",
		"payload":    map[string]any{"command": "ls"},
	}
}

func TestHandleHealth(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestHandleIngestEvent(t *testing.T) {
	_, ms, h := newTestServer()
	rec := doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	requireStatus(t, rec, http.StatusCreated)

	var got model.Event
	decodeJSON(t, rec, &got)
	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", got.SessionID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if len(ms.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(ms.events))
	}
}

func TestHandleIngestEvent_GaplessIDs(t *testing.T) {
	_, ms, h := newTestServer()
	for i := 0; i < 5; i++ {
		rec := doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
		requireStatus(t, rec, http.StatusCreated)
	}
	for i, e := range ms.events {
		if want := int64(i + 1); e.ID != want {
			t.Errorf("events[%d].ID = %d, want %d", i, e.ID, want)
		}
	}
}

func TestHandleIngestEvent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing timestamp", map[string]any{"session_id": "s", "event_type": "PreToolUse"}},
		{"missing session_id", map[string]any{"timestamp": 1, "event_type": "PreToolUse"}},
		{"missing event_type", map[string]any{"timestamp": 1, "session_id": "s"}},
		{"blank session_id", map[string]any{"timestamp": 1, "session_id": "   ", "event_type": "PreToolUse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, h := newTestServer()
			rec := doJSON(t, h, http.MethodPost, "/v1/events", tt.body)
			requireStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestHandleIngestEvent_MalformedBody(t *testing.T) {
	_, _, h := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleIngestEvent_StorageUnavailable(t *testing.T) {
	_, ms, h := newTestServer()
	ms.appendErr = store.ErrUnavailable
	rec := doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	requireStatus(t, rec, http.StatusServiceUnavailable)
}

func TestHandleIngestEvent_IgnoresClientID(t *testing.T) {
	_, _, h := newTestServer()
	body := validIngestBody()
	body["id"] = 999
	rec := doJSON(t, h, http.MethodPost, "/v1/events", body)
	requireStatus(t, rec, http.StatusCreated)

	var got model.Event
	decodeJSON(t, rec, &got)
	if got.ID != 1 {
		t.Errorf("ID = %d, want store-assigned 1", got.ID)
	}
}

func TestHandleListEvents(t *testing.T) {
	_, _, h := newTestServer()
	for i := 0; i < 3; i++ {
		doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/events", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Events []*model.Event `json:"events"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(resp.Events))
	}
	// Newest first by id.
	for i, want := range []int64{3, 2, 1} {
		if resp.Events[i].ID != want {
			t.Errorf("events[%d].ID = %d, want %d", i, resp.Events[i].ID, want)
		}
	}
}

func TestHandleListEvents_WithFilters(t *testing.T) {
	_, _, h := newTestServer()
	a := validIngestBody()
	a["session_id"] = "sess-a"
	b := validIngestBody()
	b["session_id"] = "sess-b"
	b["event_type"] = "PostToolUse"
	doJSON(t, h, http.MethodPost, "/v1/events", a)
	doJSON(t, h, http.MethodPost, "/v1/events", b)

	rec := doJSON(t, h, http.MethodGet, "/v1/events?session_id=sess-b&event_type=PostToolUse", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Events []*model.Event `json:"events"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(resp.Events))
	}
	if resp.Events[0].SessionID != "sess-b" {
		t.Errorf("SessionID = %q, want sess-b", resp.Events[0].SessionID)
	}
}

func TestHandleListEvents_Limit(t *testing.T) {
	_, _, h := newTestServer()
	for i := 0; i < 5; i++ {
		doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/events?limit=3", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Events []*model.Event `json:"events"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(resp.Events))
	}
	for i, want := range []int64{5, 4, 3} {
		if resp.Events[i].ID != want {
			t.Errorf("events[%d].ID = %d, want %d", i, resp.Events[i].ID, want)
		}
	}
}

func TestHandleListEvents_InvalidLimit(t *testing.T) {
	_, _, h := newTestServer()
	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		rec := doJSON(t, h, http.MethodGet, "/v1/events?"+q, nil)
		requireStatus(t, rec, http.StatusBadRequest)
	}
}

func TestHandleActiveSessions(t *testing.T) {
	_, _, h := newTestServer()
	now := time.Now().UnixMilli()

	first := validIngestBody()
	first["session_id"] = "sess-a"
	first["timestamp"] = now - 1000
	second := validIngestBody()
	second["session_id"] = "sess-a"
	second["timestamp"] = now
	second["model_name"] = "opus"
	stale := validIngestBody()
	stale["session_id"] = "sess-old"
	stale["timestamp"] = now - 2*time.Hour.Milliseconds()
	doJSON(t, h, http.MethodPost, "/v1/events", first)
	doJSON(t, h, http.MethodPost, "/v1/events", second)
	doJSON(t, h, http.MethodPost, "/v1/events", stale)

	rec := doJSON(t, h, http.MethodGet, "/v1/sessions/active", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Sessions []*model.SessionActivity `json:"sessions"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(resp.Sessions))
	}
	sa := resp.Sessions[0]
	if sa.SessionID != "sess-a" {
		t.Errorf("SessionID = %q, want sess-a", sa.SessionID)
	}
	if sa.ModelName != "opus" {
		t.Errorf("ModelName = %q, want opus", sa.ModelName)
	}
	if sa.EventCount != 2 {
		t.Errorf("EventCount = %d, want 2", sa.EventCount)
	}
}

func TestHandleActiveSessions_InvalidMinutes(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, http.MethodGet, "/v1/sessions/active?minutes=-5", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleToolStats(t *testing.T) {
	_, _, h := newTestServer()
	now := time.Now().UnixMilli()

	for _, et := range []string{"PreToolUse", "PostToolUse", "PostToolUse", "PostToolUseFailure"} {
		body := validIngestBody()
		body["timestamp"] = now
		body["event_type"] = et
		doJSON(t, h, http.MethodPost, "/v1/events", body)
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/stats/tools", nil)
	requireStatus(t, rec, http.StatusOK)

	var stats model.ToolStats
	decodeJSON(t, rec, &stats)
	if len(stats.ToolUsage) != 1 || stats.ToolUsage[0].ToolName != "Bash" {
		t.Fatalf("unexpected tool usage: %+v", stats.ToolUsage)
	}
	if stats.ToolUsage[0].Count != 4 {
		t.Errorf("Bash count = %d, want 4", stats.ToolUsage[0].Count)
	}
	if stats.SuccessFailure[model.OutcomeSuccess] != 2 {
		t.Errorf("success = %d, want 2", stats.SuccessFailure[model.OutcomeSuccess])
	}
	if stats.SuccessFailure[model.OutcomeFailure] != 1 {
		t.Errorf("failure = %d, want 1", stats.SuccessFailure[model.OutcomeFailure])
	}
}

func TestHandleToolStats_InvalidHours(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, http.MethodGet, "/v1/stats/tools?hours=zero", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestIngestBroadcastsToHub(t *testing.T) {
	s, _, h := newTestServer()
	sub := s.Hub().Subscribe()
	defer s.Hub().Unsubscribe(sub)

	rec := doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	requireStatus(t, rec, http.StatusCreated)

	select {
	case e := <-sub.Events():
		if e.ID != 1 {
			t.Errorf("broadcast ID = %d, want 1", e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestIngestFailureDoesNotBroadcast(t *testing.T) {
	s, ms, h := newTestServer()
	ms.appendErr = store.ErrUnavailable
	sub := s.Hub().Subscribe()
	defer s.Hub().Unsubscribe(sub)

	rec := doJSON(t, h, http.MethodPost, "/v1/events", validIngestBody())
	requireStatus(t, rec, http.StatusServiceUnavailable)

	select {
	case e := <-sub.Events():
		t.Fatalf("unexpected broadcast of event %d", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentIngest(t *testing.T) {
	s, ms, _ := newTestServer()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := &model.Event{
				Timestamp: time.Now().UnixMilli(),
				SessionID: "sess-1",
				EventType: "PreToolUse",
			}
			if err := s.Ingest(context.Background(), e); err != nil {
				t.Errorf("Ingest: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(ms.events) != n {
		t.Fatalf("stored %d events, want %d", len(ms.events), n)
	}
	seen := make(map[int64]bool)
	for _, e := range ms.events {
		if seen[e.ID] {
			t.Errorf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
	for id := int64(1); id <= n; id++ {
		if !seen[id] {
			t.Errorf("missing id %d", id)
		}
	}
}
