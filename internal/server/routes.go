package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session routes
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.listSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)

			r.Post("/message", s.sendMessage) // Streaming response
		})
	})

	// Lifecycle event streaming (SSE)
	r.Get("/event", s.lifecycleEvents)

	// Health
	r.Get("/health", s.health)
}
