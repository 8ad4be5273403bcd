package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Route("/subdevices", func(r chi.Router) {
			r.Get("/", s.handleListSubdevices)
			r.Post("/", s.handleAddSubdevice)
			r.Get("/types", s.handleListTypes)

			r.Route("/{index}", func(r chi.Router) {
				r.Get("/", s.handleGetSubdevice)
				r.Put("/", s.handleUpdateSubdevice)
				r.Delete("/", s.handleDeleteSubdevice)
				r.Post("/test", s.handleTestSubdevice)
			})
		})

		r.Post("/frames", s.handleApplyFrame)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Delete("/", s.handleClearEvents)
			r.Get("/history", s.handleEventHistory)
		})

		r.Get("/audit", s.handleListAudit)
	})

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}
