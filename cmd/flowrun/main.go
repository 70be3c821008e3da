package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/kode4food/flowrun"
	"github.com/kode4food/flowrun/internal/config"
	"github.com/kode4food/flowrun/internal/runner"
	"github.com/kode4food/flowrun/internal/server"
	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/log"
)

type flowrun struct {
	cfg        *config.Config
	store      *store.Store
	runner     *runner.Runner
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrCreateStore = errors.New("failed to create store")

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &flowrun{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *flowrun) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}
	s.runner = runner.New(s.store.Sessions)
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *flowrun) setupLogging() {
	level, ok := log.ParseLevel(s.cfg.LogLevel)
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Flowrun starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("redis_addr", s.cfg.Store.Addr),
		slog.Int("redis_db", s.cfg.Store.DB),
		slog.String("redis_prefix", s.cfg.Store.Prefix),
		slog.Duration("session_ttl", s.cfg.Store.SessionTTL),
		slog.Duration("run_timeout", s.cfg.RunTimeout),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *flowrun) initializeStore() error {
	st, err := store.New(s.cfg.Store)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateStore, err)
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return err
	}

	s.store = st
	return nil
}

func (s *flowrun) startServer() {
	s.apiServer = server.NewServer(s.store, s.runner, s.cfg.RunTimeout)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *flowrun) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	_ = s.store.Close()

	slog.Info("Server exited")
}
