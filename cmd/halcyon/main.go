package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/halcyon-health/halcyon/internal/agent"
	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/docstore"
	"github.com/halcyon-health/halcyon/internal/provider"
	"github.com/halcyon-health/halcyon/internal/retrieval"
	"github.com/halcyon-health/halcyon/internal/router"
	"github.com/halcyon-health/halcyon/internal/server"
	"github.com/halcyon-health/halcyon/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	loader := config.NewLoader(*configDir, bootLogger)
	if err := loader.Load(); err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger := newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	metrics := telemetry.NewMetrics()

	// Providers
	local := provider.NewOllamaProvider(cfg.Providers.Local, logger)
	cloud := provider.NewCloudProvider(cfg.Providers.Cloud, logger)
	loader.OnReload(func() {
		// The backend or model may have changed with the config.
		local.InvalidateAvailability()
	})

	// Response cache: redis when configured and reachable, in-memory otherwise.
	var cache router.CacheStore
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable, using in-memory response cache", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
		if rdb != nil {
			cache = router.NewRedisCache(rdb, cfg.Routing.Cache.TTL)
		}
	}
	if cache == nil {
		cache = router.NewMemoryCache(cfg.Routing.Cache.TTL, cfg.Routing.Cache.MaxEntries, metrics)
	}

	// Document store: pgvector when the database is reachable, in-memory
	// otherwise.
	embedder := docstore.NewOllamaEmbedder(cfg.Providers.Local.BaseURL, cfg.Retrieval.EmbedModel, cfg.Retrieval.EmbedTimeout)
	var store docstore.Store
	if pool, err := pgxpool.New(context.Background(), cfg.Database.DSN()); err == nil && pool.Ping(context.Background()) == nil {
		logger.Info("database connected, using pgvector document store")
		defer pool.Close()
		store = docstore.NewPostgresStore(pool, embedder)
	} else {
		logger.Warn("database not reachable, using in-memory document store")
		store = docstore.NewMemoryStore(embedder, nil)
	}
	if err := store.Initialize(context.Background()); err != nil {
		logger.Error("failed to initialize document store", "error", err)
		os.Exit(1)
	}

	enhancer := retrieval.NewEnhancer(store, func() config.RetrievalConfig { return loader.Config().Retrieval }, logger)
	hybrid := router.NewHybrid(local, cloud, cache, func() config.RoutingConfig { return loader.Config().Routing }, logger, metrics)
	ag := agent.New(hybrid, enhancer, func() config.AgentConfig { return loader.Config().Agent }, logger, metrics)
	handler := server.NewHandler(ag, local, version)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(server.RequestID)
	r.Get("/halcyon/v1/health", handler.Health)
	r.Post("/v1/query", handler.Query)

	// Metrics on a separate listener so the query port stays clean.
	if cfg.Telemetry.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("halcyon starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("halcyon stopped")
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
