package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fetchq/fetchq/internal/playlist"
)

// Server serves the playlist HTTP surface.
type Server struct {
	router   chi.Router
	handlers *Handlers
}

// NewServer wires the router, middleware and handlers around a playlist
// generator.
func NewServer(generator *playlist.Generator, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		handlers: NewHandlers(generator, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/playlist/{file}", s.handlers.GetPlaylist)
	})
}

// Router returns the assembled http handler.
func (s *Server) Router() http.Handler {
	return s.router
}
