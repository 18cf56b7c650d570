package server

import (
	"net/http"
	"strconv"
	"time"
)

// handleActiveSessions handles GET /v1/sessions/active.
// Returns every session with activity inside the trailing window
// (?minutes=, default 60), most recent first.
func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	window := defaultSessionWindow
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
		window = time.Duration(n) * time.Minute
	}

	since := time.Now().Add(-window).UnixMilli()
	sessions, err := s.store.ActiveSessions(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleToolStats handles GET /v1/stats/tools.
// Returns tool usage counts and success/failure buckets over the trailing
// window (?hours=, default 1).
func (s *Server) handleToolStats(w http.ResponseWriter, r *http.Request) {
	window := defaultStatsWindow
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		window = time.Duration(n) * time.Hour
	}

	since := time.Now().Add(-window).UnixMilli()
	stats, err := s.store.ToolStats(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
