// Command mcp-server runs the reference MCP server described by
// SPEC_FULL.md §4.24: stdio, HTTP, or both, wired to one shared
// protocol core, torn down in reverse-dependency order on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chief-builder/mcp-reference-server/internal/config"
	"github.com/chief-builder/mcp-reference-server/internal/extension"
	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/chief-builder/mcp-reference-server/internal/oauth"
	"github.com/chief-builder/mcp-reference-server/internal/session"
	"github.com/chief-builder/mcp-reference-server/internal/shutdown"
	"github.com/chief-builder/mcp-reference-server/internal/sweep"
	httptransport "github.com/chief-builder/mcp-reference-server/internal/transport/http"
	"github.com/chief-builder/mcp-reference-server/internal/transport/stdio"
	"github.com/chief-builder/mcp-reference-server/internal/tools"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0".
var Version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Printf("mcp-server %s\n", Version)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

func printUsage() {
	fmt.Printf(`mcp-server %s - Reference Model Context Protocol server

Usage: mcp-server [options]

Options controlled entirely by MCP_* environment variables (see
SPEC_FULL.md §4.15): MCP_TRANSPORT (stdio|http|both), MCP_PORT,
MCP_HOST, MCP_REQUEST_TIMEOUT_MS, MCP_SHUTDOWN_TIMEOUT_MS,
MCP_PROGRESS_INTERVAL_MS, MCP_PAGE_SIZE, MCP_LOG_LEVEL,
MCP_RESOURCE_URL, MCP_AUTH_SERVERS.
`, Version)
}

func run() error {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logDir := os.Getenv("MCP_LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	if err := logger.Init(logDir); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Close() }()
	if err := logger.InitSlog(logDir, cfg.Transport != config.TransportStdio); err != nil {
		return fmt.Errorf("initializing structured logger: %w", err)
	}
	defer func() { _ = logger.CloseSlog() }()

	logger.Println("MCP reference server starting")
	logger.Printf("transport=%s page_size=%d log_level=%s", cfg.Transport, cfg.PageSize, cfg.LogLevel)

	registry := mcp.NewRegistry()
	if err := tools.RegisterFixtures(registry); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	lifecycle := mcp.NewLifecycle(extension.NewRegistry())
	executor := mcp.NewExecutor(registry, cfg.RequestTimeout, cfg.ProgressInterval)
	completions := mcp.NewCompletionRegistry()
	router := mcp.NewRouter(lifecycle, registry, executor, completions, cfg.PageSize)

	sessions := session.NewManager(0, 0)
	oauthStore := oauth.NewStore()

	shutdownMgr := shutdown.NewManager()

	sweeper := sweep.NewSweeper(sessions, oauthStore)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("starting background sweeper: %w", err)
	}
	shutdownMgr.Register("sweeper", func(ctx context.Context) error {
		return sweeper.Stop()
	})
	shutdownMgr.Register("sessions", func(ctx context.Context) error {
		sessions.Shutdown()
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case config.TransportStdio:
		transport := stdio.NewTransport(router, sessions)
		return runStdio(ctx, transport, shutdownMgr, cfg)
	case config.TransportHTTP:
		return runHTTP(ctx, cfg, router, sessions, oauthStore, shutdownMgr)
	case config.TransportBoth:
		errCh := make(chan error, 2)
		transport := stdio.NewTransport(router, sessions)
		go func() { errCh <- runStdio(ctx, transport, nil, cfg) }()
		go func() { errCh <- runHTTP(ctx, cfg, router, sessions, oauthStore, shutdownMgr) }()
		err := <-errCh
		stop()
		return err
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// runStdio serves a single STDIO session for the process's lifetime.
// shutdownMgr is nil when the STDIO transport runs alongside HTTP
// (config.TransportBoth), since HTTP owns teardown in that mode.
func runStdio(ctx context.Context, transport *stdio.Transport, shutdownMgr *shutdown.Manager, cfg *config.Config) error {
	err := transport.Serve(ctx, os.Stdin, os.Stdout)
	if shutdownMgr != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := shutdownMgr.Shutdown(shutdownCtx, cfg.ShutdownTimeout); shutdownErr != nil {
			logger.Printf("shutdown error: %v", shutdownErr)
		}
	}
	return err
}

// runHTTP starts the HTTP transport and blocks until ctx is cancelled
// (SIGINT/SIGTERM) or the listener fails, then drains shutdownMgr's
// handlers in reverse registration order within cfg.ShutdownTimeout.
func runHTTP(ctx context.Context, cfg *config.Config, router *mcp.Router, sessions *session.Manager, oauthStore *oauth.Store, shutdownMgr *shutdown.Manager) error {
	rate := oauth.DefaultRateLimiter()
	server := httptransport.NewServer(cfg, router, sessions, oauthStore, rate)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: 0, // SSE streams (GET /mcp) can run indefinitely
	}
	shutdownMgr.Register("http_server", func(shutdownCtx context.Context) error {
		return httpServer.Shutdown(shutdownCtx)
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("HTTP transport listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Println("shutdown signal received, draining in-flight requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownMgr.Shutdown(shutdownCtx, cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Println("shutdown complete")
	return nil
}
