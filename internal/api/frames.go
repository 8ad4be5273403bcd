package api

import (
	"net/http"

	"github.com/nerrad567/novaprops-core/internal/actuation"
)

// frameRequest is one DMX frame. Slots maps 1-based addresses ("1".."512")
// to values; missing addresses read as 0.
type frameRequest struct {
	Universe int            `json:"universe"`
	Slots    map[string]any `json:"slots"`
}

func (s *Server) handleApplyFrame(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if err := actuation.ValidateUniverse(req.Universe); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	slots, err := actuation.ParseSlots(req.Slots)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	emitted := s.engine.ApplyFrame(req.Universe, slots)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": emitted,
		"stats":  s.engine.Stats(),
	})
}
