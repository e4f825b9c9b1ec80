// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/justreadit/internal/api"
	"github.com/starford/justreadit/internal/mcpserver"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/sse"
)

// setupLogger installs the structured JSON logger as the default.
func (a *application) setupLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	cfg := a.config
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("embedding_provider", cfg.Embedding.Provider),
		slog.String("vector_backend", cfg.VectorIndex.Backend),
		slog.String("vector_namespace", cfg.VectorIndex.Namespace),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return logger
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.setupLogger()

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("close components", slog.String("error", err.Error()))
		}
	}()

	// SSE broker.
	broker := sse.NewBroker(sse.Options{
		GraphThrottle: cfg.App.Events.GraphThrottle,
		KeepAlive:     cfg.App.Events.KeepAlive,
		History:       cfg.App.Events.History,
	})
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(c.db, c.pipeline, c.search, broker)
	apiRouter := api.NewRouter(h, api.RouterOptions{
		AllowedOrigins: cfg.App.HTTP.CORSOrigins,
		Events:         broker,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Event streams never finish on their own; close them before draining.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs must not go to stdout here,
// so pass WithLogOutput(os.Stderr).
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.setupLogger()

	c, err := buildComponents(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.db, c.pipeline, c.search, app.config.Links.Patterns(), app.version)
	logger.Info("MCP server starting on stdio")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Reindex re-runs link and vector sync for every stored note. Notes whose
// vectors already match their text are skipped unless force is set.
func Reindex(ctx context.Context, force bool, opts ...Option) (notesync.ReindexResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return notesync.ReindexResult{}, err
	}
	logger := app.setupLogger()

	c, err := buildComponents(app.config, logger)
	if err != nil {
		return notesync.ReindexResult{}, err
	}
	defer c.Close()

	start := time.Now()
	res, err := c.pipeline.Reindex(ctx, force)
	if err != nil {
		return res, fmt.Errorf("reindex: %w", err)
	}
	logger.Info("Reindex finished",
		slog.Int("notes", res.Notes),
		slog.Int("synced", res.Synced),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}
