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

	"github.com/starford/roundup/internal/api"
	"github.com/starford/roundup/internal/inbox"
	"github.com/starford/roundup/internal/mcpserver"
	"github.com/starford/roundup/internal/metrics"
	"github.com/starford/roundup/internal/rounds"
	"github.com/starford/roundup/internal/sse"
	"github.com/starford/roundup/internal/store"
	"github.com/starford/roundup/internal/workflow"
)

// components holds the pieces shared by the HTTP and MCP entrypoints.
type components struct {
	cfg     *Config
	logger  *slog.Logger
	db      *store.DB
	svc     *workflow.Service
	metrics *metrics.Metrics
}

// bootstrap opens the database and builds the workflow service. events may
// be nil.
func bootstrap(app *application, events workflow.EventFunc) (*components, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("inbox_enabled", cfg.Inbox.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	rt := &components{cfg: cfg, logger: logger, db: db}
	opts := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithRules(cfg.Normalize.Rules()),
		workflow.WithParser(rounds.New(rounds.WithLegacyFallback(cfg.Parser.LegacyFallback))),
		workflow.WithMaxBytes(cfg.Upload.MaxBytes),
		workflow.WithEvents(events),
	}
	if cfg.Metrics.Enabled {
		rt.metrics = metrics.New()
		opts = append(opts, workflow.WithRecorder(rt.metrics))
	}
	rt.svc = workflow.NewService(db, opts...)
	return rt, nil
}

func (rt *components) newInbox() (*inbox.Inbox, error) {
	return inbox.New(rt.cfg.Inbox.Path, rt.svc,
		inbox.WithProcessedDir(rt.cfg.Inbox.ProcessedDir),
		inbox.WithAutoProcess(rt.cfg.Inbox.AutoProcess),
		inbox.WithLogger(rt.logger),
	)
}

// newRouter builds the root router: health and metrics endpoints are public,
// everything under /api goes through the auth middleware.
func (rt *components) newRouter(broker *sse.Broker) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(rt.svc, api.RouterConfig{
		AuthEnabled:    rt.cfg.Auth.AuthEnabled(),
		Token:          rt.cfg.Auth.Token,
		MaxUploadBytes: rt.cfg.Upload.MaxBytes,
		Events:         events,
	}))
	return r
}

// Run starts the HTTP server, and the inbox watcher when enabled, until ctx
// is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	broker := sse.NewBroker(sse.WithThrottle(2 * time.Second))
	defer broker.Close()

	rt, err := bootstrap(app, broker.PublishDocumentEvent)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	cfg := rt.cfg
	logger := rt.logger

	var box *inbox.Inbox
	if cfg.Inbox.Enabled {
		box, err = rt.newInbox()
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		// Run initial sync.
		if res, err := box.Sync(ctx); err != nil {
			logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("inbox synced", slog.Int("ingested", len(res)))
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           rt.newRouter(broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if box != nil {
		g.Go(func() error {
			return box.Watch(gCtx)
		})
	}

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

// RunMCP serves the MCP tools over stdio. Logs go to stderr unless another
// writer was configured, so the protocol stream on stdout stays clean.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))

	rt, err := bootstrap(app, nil)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}
