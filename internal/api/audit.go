package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/novaprops-core/internal/audit"
)

// auditSourceAPI marks changes made over HTTP.
const auditSourceAPI = "api"

// recordChange appends to the audit trail. Failures are logged and never
// fail the request.
func (s *Server) recordChange(r *http.Request, action, target, targetID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Source:    auditSourceAPI,
		RequestID: requestID(r),
		Details:   details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Warn("recording audit entry failed",
			"action", action, "target", target, "request_id", entry.RequestID, "error", err)
	}
}

// handleListAudit serves the configuration change trail, newest first.
// Query: action, target, target_id, limit (default 50, max 200), offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Target:   q.Get("target"),
		TargetID: q.Get("target_id"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
