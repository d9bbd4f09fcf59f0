// Package api provides the HTTP API server and handlers for reader settings.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/listenup-reader/internal/http/response"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/sse"
)

// Options configures the HTTP layer.
type Options struct {
	Name        string
	Version     string
	CORSOrigins []string
	// RateLimiter limits settings writes per IP. Nil disables limiting.
	RateLimiter *RateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	limiter    *RateLimiter
	logger     *logger.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, log *logger.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "ListenUp Reader API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		services: services,
		router:   chi.NewRouter(),
		limiter:  opts.RateLimiter,
		logger:   log,
	}
	s.sseHandler = sse.NewHandler(services.Events, userIDFromContext, log.Logger)

	s.setupMiddleware(log, opts)

	humaConfig := huma.DefaultConfig(opts.Name, opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(log *logger.Logger, opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(log.RequestLogger())
	s.router.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match"},
		ExposedHeaders:   []string{"ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.services.Tokens))

	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger.Logger))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger.Logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed", s.logger.Logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerReaderSettingsRoutes()

	// Plain chi routes that stream or write non-JSON bodies.
	s.router.Get(SettingsPath+"/stream", s.sseHandler.ServeHTTP)
	if s.services.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.services.Metrics.Handler())
	}
}
