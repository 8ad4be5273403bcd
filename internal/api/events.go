package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/novaprops-core/internal/history"
)

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.probe.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleClearEvents(w http.ResponseWriter, _ *http.Request) {
	s.probe.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleEventHistory serves persisted events, newest first.
// Query: kind (optional), limit (default 50, max 500).
func (s *Server) handleEventHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event history is disabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
