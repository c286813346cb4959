// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokscope/internal/config"
	"tokscope/internal/domain/audit"
	"tokscope/internal/server/handlers"
	"tokscope/pkg/logging"
)

// Dependencies are the services the HTTP routes are wired to
type Dependencies struct {
	Posts       handlers.PostService
	ToolCalls   audit.Reader
	Events      handlers.EventSource
	EventsTopic string
	MCP         http.Handler
	MCPPath     string
	Logger      logging.Logger
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.NewDiscardLogger()
	}
	if deps.MCPPath == "" {
		deps.MCPPath = "/mcp"
	}

	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders:   []string{"Link", "Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	postHandler := handlers.NewPostHandler(deps.Posts, deps.Logger)
	toolCallHandler := handlers.NewToolCallHandler(deps.ToolCalls, deps.Logger)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Posts API
			r.Route("/posts", func(r chi.Router) {
				r.Get("/details", postHandler.GetDetails)
				r.Get("/subtitle", postHandler.GetSubtitle)
			})

			r.Get("/search", postHandler.Search)
			r.Post("/analyses", postHandler.CreateAnalysis)
			r.Get("/tool-calls", toolCallHandler.ListToolCalls)
		})
	})

	// MCP and streaming endpoints stay outside the request timeout
	if deps.MCP != nil {
		router.Handle(deps.MCPPath, deps.MCP)
	}
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws/analyses", handlers.AnalysisFeedHandler(
		deps.Events, deps.EventsTopic, handlers.DefaultWebSocketConfig(), deps.Logger,
	))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
