// Package api provides the HTTP API server and handlers for the
// StreamVault application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/streamvault/streamvault-server/internal/http/response"
	"github.com/streamvault/streamvault-server/internal/service"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     store.Collections
	playlists *service.PlaylistService
	validator *validation.Validator
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
	limiter   *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Collections, playlists *service.PlaylistService, validator *validation.Validator, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	limiter := NewRateLimiter(300, time.Minute, 100)
	router.Use(RateLimitMiddleware(limiter, logger))

	humaConfig := huma.DefaultConfig("StreamVault API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:     st,
		playlists: playlists,
		validator: validator,
		router:    router,
		api:       api,
		logger:    logger,
		limiter:   limiter,
	}

	s.registerHealthRoutes()
	s.registerPlaylistRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// EnvelopeTransformer wraps successful response bodies in the standard
// envelope. Error bodies already carry their own shape.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if _, ok := v.(*APIError); ok {
		return v, nil
	}
	return &response.Envelope{Success: true, Data: v}, nil
}
