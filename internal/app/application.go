// Package app wires the components together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Firefly-HackGT/firefly-backend/internal/api"
	"github.com/Firefly-HackGT/firefly-backend/internal/config"
	"github.com/Firefly-HackGT/firefly-backend/internal/history"
	"github.com/Firefly-HackGT/firefly-backend/internal/lecture"
	"github.com/Firefly-HackGT/firefly-backend/internal/logger"
	"github.com/Firefly-HackGT/firefly-backend/internal/ws"
)

// Application holds every long-lived component. Construction follows
// dependency order, history store first and HTTP server last; teardown runs
// in reverse.
type Application struct {
	config     *config.Config
	recorder   history.Recorder
	registry   *lecture.Registry
	dispatcher *ws.Dispatcher
	httpServer *http.Server
}

// NewApplication builds an application from validated configuration.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Debug)

	recorder, err := newRecorder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := lecture.NewRegistry()
	dispatcher := ws.NewDispatcher(registry, recorder)
	wsHandler := ws.NewHandler(dispatcher,
		cfg.WebSocket.BufferSize,
		cfg.WebSocket.WriteTimeout,
		cfg.WebSocket.PingInterval,
		cfg.WebSocket.ReadTimeout,
	)
	apiServer := api.NewServer(recorder, registry)

	mux := http.NewServeMux()
	mux.Handle("/healthz", apiServer)
	mux.Handle("/api/", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		recorder:   recorder,
		registry:   registry,
		dispatcher: dispatcher,
		httpServer: httpServer,
	}, nil
}

func newRecorder(ctx context.Context, cfg *config.Config) (history.Recorder, error) {
	switch cfg.History.Backend {
	case config.BackendMongo:
		rec, err := history.NewMongoStore(ctx, cfg.History.MongoURI, cfg.History.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo history store: %w", err)
		}
		return rec, nil
	default:
		rec, err := history.NewSQLiteStore(cfg.History.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite history store: %w", err)
		}
		return rec, nil
	}
}

// Start brings up the HTTP server and verifies it is accepting connections
// before returning.
func (app *Application) Start(ctx context.Context) error {
	slog.Info("starting firefly backend", "addr", app.httpServer.Addr, "history", app.config.History.Backend)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		slog.Info("firefly backend started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts components down in reverse dependency order. Live sessions are
// volatile by design; closing the HTTP server ends their connections and
// the presenter cleanup paths empty the registry.
func (app *Application) Stop(ctx context.Context) error {
	slog.Info("shutting down firefly backend")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	}
	if err := app.recorder.Close(ctx); err != nil {
		slog.Warn("history store shutdown error", "error", err)
	}

	slog.Info("firefly backend shutdown complete")
	return nil
}

// Addr returns the server address.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
