// cmd/api/main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tokscope/internal/app"
	"tokscope/internal/config"
	"tokscope/internal/mcp"
	"tokscope/internal/server"
	"tokscope/internal/server/handlers"
	"tokscope/pkg/logging"
)

func main() {
	logger := logging.NewLoggerWithService("tokscope-api")

	// Load configuration
	if files := config.LoadEnv(); len(files) > 0 {
		logger.WithField("files", files).Debug("loaded env files")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer a.Close()

	var events handlers.EventSource
	if a.NATS != nil {
		events = handlers.NATSSource{Conn: a.NATS}
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Posts:       a.Analysis,
		ToolCalls:   a.AuditReader(),
		Events:      events,
		EventsTopic: cfg.Analysis.EventsTopic,
		MCP:         mcp.NewHTTPHandler(a.MCPConfig(), cfg.MCP.Stateless),
		MCPPath:     cfg.MCP.Path,
		Logger:      logger,
	})

	// Start HTTP server
	go func() {
		logger.WithFields(logging.Fields{
			"host":     cfg.Server.Host,
			"port":     cfg.Server.Port,
			"mcp_path": cfg.MCP.Path,
			"version":  app.Version,
		}).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}

	logger.Info("Shutdown complete")
}
