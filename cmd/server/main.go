package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"roster/internal/platform/config"
	"roster/internal/platform/httpserver"
	"roster/internal/platform/logger"
	platformmetrics "roster/internal/platform/metrics"
	"roster/internal/roster/handler"
	rostermetrics "roster/internal/roster/metrics"
	"roster/internal/roster/service"
	"roster/internal/roster/store/memory"
	"roster/internal/roster/store/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal roster packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	httpMetrics := platformmetrics.New()
	svc := service.New(store,
		service.WithLogger(log),
		service.WithMetrics(rostermetrics.New()),
	)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	handler.New(svc, log, httpMetrics, cfg.RequestTimeout).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting roster server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// openStore picks the postgres store when a database URL is configured and
// falls back to the in-memory store otherwise.
func openStore(cfg config.Server, log *slog.Logger) (service.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("no database configured, using in-memory store")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("connected to postgres store")
	return postgres.New(db), func() { _ = db.Close() }, nil
}
