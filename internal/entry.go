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

	"github.com/starford/murmur/internal/api"
	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/codec"
	"github.com/starford/murmur/internal/mcpserver"
	"github.com/starford/murmur/internal/noteservice"
	"github.com/starford/murmur/internal/repository"
	"github.com/starford/murmur/internal/sse"
	"github.com/starford/murmur/internal/storage"
)

// errShutdown stops the run group once a shutdown has been handled.
var errShutdown = errors.New("shutdown requested")

// App is an opened note collection with its service layer, shared by the
// server and the one-shot CLI commands.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Service *noteservice.Service

	store    *storage.Store
	provider storage.Provider
	fs       *storage.FS // non-nil for the file backend
	version  string
}

// Open builds the logger, opens the configured storage backend and wires
// the repository and service over it.
func Open(ctx context.Context, opts ...Option) (*App, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	provider, fs, err := openProvider(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := storage.NewStore(provider, cfg.Storage.Key, logger)
	repo := repository.New(store, repository.WithLogger(logger))
	svc := noteservice.NewService(repo,
		noteservice.WithFormat(codec.Format(cfg.Export.Format)),
		noteservice.WithShareBaseURL(cfg.Share.BaseURL),
		noteservice.WithLogger(logger),
	)

	logger.Debug("Storage opened",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("key", cfg.Storage.Key))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Service:  svc,
		store:    store,
		provider: provider,
		fs:       fs,
		version:  app.version,
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.provider.Close()
}

func openProvider(ctx context.Context, cfg *StorageConfig) (storage.Provider, *storage.FS, error) {
	switch cfg.Backend {
	case BackendFile:
		if err := os.MkdirAll(cfg.File.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.File.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return fs, fs, nil
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return db, nil, nil
	case BackendRedis:
		rdb, err := storage.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return rdb, nil, nil
	case BackendMemory:
		return storage.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Handler builds the HTTP handler: health checks at the root and the API
// under /api.
func (a *App) Handler(broker *sse.Broker) http.Handler {
	var sseHandler http.Handler
	if broker != nil {
		sseHandler = broker
	}
	apiRouter := api.NewRouter(a.Service, a.Config.Auth.AuthEnabled(), a.Config.Auth.Token, sseHandler)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := a.provider.Get(req.Context(), a.store.Key()); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)
	return r
}

// Run starts the HTTP server with the given options and blocks until a
// shutdown signal arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, err := Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	logger := app.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("export_format", cfg.Export.Format),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()
	app.Service.SetNotifier(broker)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: app.Handler(broker),
	}
	// Long-lived SSE streams end when the broker closes.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data file for writes by other processes.
	if app.fs != nil && cfg.Storage.File.Watch {
		g.Go(func() error {
			if err := storage.Watch(gCtx, app.fs, app.store, logger, app.Service.ExternalChange); err != nil {
				logger.Warn("watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(app.Service, app.version).ServeStdio()
}
