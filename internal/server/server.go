// Package server provides the HTTP server and routing for the dashboard API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/dashboard"
	dashboardhandlers "github.com/aristath/kalshigym/internal/dashboard/handlers"
	"github.com/aristath/kalshigym/internal/database"
	"github.com/aristath/kalshigym/internal/events"
	evaluationhandlers "github.com/aristath/kalshigym/internal/modules/evaluation/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	DataDir   string
	DB        *database.DB
	Bus       *events.Bus
	Dashboard *dashboard.Service
	// Evaluation is optional; evaluation routes are only mounted when set
	Evaluation *evaluationhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	db             *database.DB
	dashboard      *dashboardhandlers.Handler
	evaluation     *evaluationhandlers.Handler
	systemHandlers *SystemHandlers
	stream         *StreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		db:             cfg.DB,
		dashboard:      dashboardhandlers.NewHandler(cfg.Dashboard, cfg.Log),
		evaluation:     cfg.Evaluation,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DataDir),
		stream:         NewStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/stream connections are long-lived.
		// Other routes are bounded by the timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Live dashboard events (websocket), outside the request timeout
		r.Get("/stream", s.stream.ServeHTTP)

		if s.evaluation != nil {
			s.evaluation.RegisterRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			s.dashboard.RegisterRoutes(r)
			r.Get("/system", s.systemHandlers.HandleSystemStats)
		})
	})
}

// Router returns the HTTP handler, for tests and embedding
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server. It returns nil once Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
