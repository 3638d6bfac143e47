package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"hitl-mcp/backend/internal/api"
	"hitl-mcp/backend/internal/config"
	"hitl-mcp/backend/internal/logging"
	"hitl-mcp/backend/internal/mcp"
	"hitl-mcp/backend/internal/repository"
	"hitl-mcp/backend/internal/services"
	"hitl-mcp/backend/internal/tls"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parse command line flags
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}

	// Initialize logging
	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Pretty)
	logger.Info("Starting Human-in-the-Loop Workflow Service",
		"generator_url", cfg.Generator.URL,
		"retention_ttl", cfg.Retention.TTL.String(),
	)

	// Initialize store and generator
	store := repository.NewMemoryWorkflowStore()

	var gen services.Generator
	if cfg.Generator.URL != "" {
		gen = services.NewHTTPGenerator(cfg.Generator.URL)
		logger.Info("Using HTTP generator sidecar", "url", cfg.Generator.URL)
	} else {
		gen = services.NewTemplateGenerator()
		logger.Info("Using built-in template generator")
	}

	// Initialize the workflow engine
	workflows := services.NewWorkflowService(store, gen, cfg.Generator.Timeout, logger)

	// Background sweeper for terminal workflow retention
	go runSweeper(ctx, workflows, cfg.Retention.TTL, cfg.Retention.SweepInterval)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("hitl-mcp"))

	// Mount REST API handlers
	apiServer := api.NewServer(workflows)
	e.GET("/healthz", apiServer.HandleHealth)
	apiServer.RegisterRoutes(e.Group("/api/v1"))

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(workflows)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	// Create HTTP server
	addr := cfg.Server.Addr
	if cfg.TLS.Enable {
		addr = cfg.Server.TLSAddr
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) && len(cfg.TLS.Hostnames) > 0 {
				if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
					logger.Error("failed to generate self-signed cert", "error", err)
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

// runSweeper prunes terminal workflows past the retention TTL until the
// context is cancelled.
func runSweeper(ctx context.Context, workflows *services.WorkflowService, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workflows.PruneTerminal(ctx, ttl)
		}
	}
}
