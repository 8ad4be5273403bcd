package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

const statusCheckTimeout = 3 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus reports the controller state and the health of each
// configured component.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
		} else {
			components[name] = "ok"
		}
	}

	universes := map[string]any{"active": false}
	if lo, hi, ok := s.registry.UniverseRange(); ok {
		universes = map[string]any{"active": true, "first": lo, "last": hi}
	}

	body := map[string]any{
		"device":         map[string]string{"id": s.device.ID, "name": s.device.Name},
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"subdevices":     map[string]int{"count": s.registry.Count(), "max": subdevice.MaxSubdevices},
		"universes":      universes,
		"frames":         s.engine.Stats(),
		"probe_events":   s.probe.Len(),
		"components":     components,
	}
	if s.hub != nil {
		body["websocket_clients"] = s.hub.ClientCount()
	}
	if s.telemetry != nil {
		body["telemetry"] = s.telemetry.Counters()
	}
	if s.history != nil {
		if n, err := s.history.Count(ctx); err == nil {
			body["history_events"] = n
		} else {
			components["history"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, body)
}
