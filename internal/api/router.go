package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/devices", s.handleListDevices)
		r.Get("/status", s.handleStatus)
		r.Post("/connect", s.handleConnect)
		r.Post("/disconnect", s.handleDisconnect)

		r.Route("/profiles/{device}", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handlePutProfile)
			r.Delete("/", s.handleDeleteProfile)
		})
	})

	r.Get(s.wsPath(), s.handleWebSocket)

	return r
}

// wsPath returns the WebSocket endpoint path from config, defaulting
// to /ws.
func (s *Server) wsPath() string {
	if s.cfg.WebSocket.Path != "" {
		return s.cfg.WebSocket.Path
	}
	return "/ws"
}
