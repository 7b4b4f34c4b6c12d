// Package server exposes the coaching pipeline over HTTP: session lifecycle,
// frame ingest, snapshots, and a websocket event stream for the UI.
package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/repcoach/internal/session"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	registry *session.Registry
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(registry *session.Registry, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/activities", s.handleActivities)
	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Post("/api/v1/sessions", s.handleStartSession)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Post("/api/v1/sessions/{id}/finalize", s.handleFinalize)
	s.router.Get("/api/v1/sessions/{id}/events", s.handleEvents)

	// Frame ingest carries camera-derived data; it is the only surface that
	// needs the API key (the rest is read-only or tsnet-guarded).
	s.router.Route("/api/v1/sessions/{id}/frames", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngestFrame)
	})
}
