package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/events"
	"github.com/vmunix/scriptarr/internal/executor"
	"github.com/vmunix/scriptarr/internal/ingest"
	"github.com/vmunix/scriptarr/internal/metrics"
	"github.com/vmunix/scriptarr/internal/migrations"
	"github.com/vmunix/scriptarr/internal/runner"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	// Locate and load config
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	missing, err := config.UnresolvedEnvVars(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfgErr := &config.ConfigError{Path: configPath, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return cfgErr
	}

	// Create logger
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.Scripts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Settings provider with live reload
	provider, err := config.NewFileProvider(configPath, logger.With("component", "config"))
	if err != nil {
		return fmt.Errorf("settings provider: %w", err)
	}
	defer provider.Close()

	// Event bus with persistence
	bus := events.NewBus(events.NewLog(db), logger.With("component", "bus"))
	defer bus.Close()

	// Execution pipeline
	resolver := executor.NewResolver(os.Getenv("SCRIPTARR_RUNTIME_DIR"), logger.With("component", "executor"))
	store := runner.NewStore(db)
	orch := runner.New(provider, resolver, runner.NewExecLauncher(), store, logger.With("component", "runner"))
	eventCh := bus.SubscribeAll(256)

	// HTTP surface: webhook ingest, metrics, health
	mux := http.NewServeMux()
	ingest.NewHandler(bus, logger.With("component", "ingest")).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: logRequests(mux, logger.With("component", "http")),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("scriptarrd starting",
			"version", version,
			"addr", httpServer.Addr,
			"settings", len(cfg.Settings),
			"max_concurrent", cfg.Scripts.MaxConcurrent,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := orch.Run(ctx, eventCh)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
