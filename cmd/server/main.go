package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zonecheck/internal/compliance"
	"zonecheck/internal/compliance/audit"
	"zonecheck/internal/compliance/handler"
	"zonecheck/internal/compliance/metrics"
	"zonecheck/internal/jurisdiction"
	"zonecheck/internal/platform/config"
	"zonecheck/internal/platform/httpserver"
	"zonecheck/internal/platform/kafka"
	"zonecheck/internal/platform/logger"
	"zonecheck/internal/platform/middleware"
	platformredis "zonecheck/internal/platform/redis"
	"zonecheck/internal/ruleset/cache"
	"zonecheck/internal/zoning/ordinance"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	registry, err := jurisdiction.Load(cfg.JurisdictionsFile)
	if err != nil {
		log.Error("load jurisdiction registry", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, closeStore, err := buildCacheStore(ctx, cfg, log)
	if err != nil {
		log.Error("build ruleset cache", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	}
	var publisher *audit.Publisher
	if producer != nil {
		publisher = audit.NewPublisher(producer, cfg.AuditTopic, log)
	}

	svc, err := compliance.New(
		registry,
		store,
		ordinance.NewHTTPFetcher(cfg.FetchTimeout),
		ordinance.NewParser(),
		compliance.WithLogger(log),
		compliance.WithMetrics(metrics.New()),
		compliance.WithAudit(publisher),
		compliance.WithWeights(weightsFromConfig(cfg)),
		compliance.WithFetchWaitBound(cfg.FetchWaitBound),
		compliance.WithFetchCost(cfg.FetchCostUSD),
	)
	if err != nil {
		log.Error("build compliance service", "error", err)
		os.Exit(1)
	}

	api, err := handler.New(svc, registry, log)
	if err != nil {
		log.Error("build handler", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(middleware.NewJWTValidator(cfg.JWTSigningKey), log))
		api.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting zonecheck", "addr", cfg.Addr, "jurisdictions", len(registry.List()))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	publisher.Close()
	if producer != nil {
		producer.Close()
	}
}

// buildCacheStore picks the first configured backend: PostgreSQL, then
// Redis, then process memory.
func buildCacheStore(ctx context.Context, cfg config.Server, log *slog.Logger) (cache.Store, func(), error) {
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("ruleset cache backend", "backend", "postgres")
		return store, pool.Close, nil
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("ruleset cache backend", "backend", "redis")
		return cache.NewRedis(client.Client), func() { _ = client.Close() }, nil
	}

	log.Info("ruleset cache backend", "backend", "memory")
	return cache.NewInMemory(), func() {}, nil
}

// weightsFromConfig overlays any configured penalty overrides on the engine
// defaults.
func weightsFromConfig(cfg config.Server) compliance.Weights {
	w := compliance.DefaultWeights()
	if cfg.StaleAge > 0 {
		w.StaleAge = cfg.StaleAge
	}
	if cfg.StalePenalty > 0 {
		w.StalePenalty = cfg.StalePenalty
	}
	if cfg.AmbiguityPenalty > 0 {
		w.AmbiguityPenalty = cfg.AmbiguityPenalty
	}
	if cfg.MissingFieldPenalty > 0 {
		w.MissingFieldPenalty = cfg.MissingFieldPenalty
	}
	if cfg.EdgeCasePenalty > 0 {
		w.EdgeCasePenalty = cfg.EdgeCasePenalty
	}
	return w
}
