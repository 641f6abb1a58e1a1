package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/noahsabaj/hearth-docs/pkg/api"
	"github.com/noahsabaj/hearth-docs/pkg/async"
	"github.com/noahsabaj/hearth-docs/pkg/config"
	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/history/cache"
	"github.com/noahsabaj/hearth-docs/pkg/history/github"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("hearth-docs exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	otelMetrics, err := observability.NewOTelMetrics()
	if err != nil {
		return err
	}
	metrics.AttachOTel(otelMetrics)

	// The table is loaded once; it is never reloaded while serving
	table, err := history.OpenTable(ctx, cfg.History.Table)
	if err != nil {
		return err
	}
	metrics.SetTableInfo(table.Len(), cfg.History.Latency)
	logger.WithFields(map[string]interface{}{
		"table_source": cfg.History.Table.Kind,
		"sections":     table.Len(),
		"latency":      cfg.History.Latency.String(),
	}).Info("History table loaded")

	var source history.Source = history.NewTableSource(table)
	if cfg.History.Source == config.SourceGitHub {
		client := github.NewClient(ctx, cfg.GitHub)
		source = github.NewSource(client, table)
		logger.Infof("Resolving history from GitHub %s/%s", cfg.GitHub.Owner, cfg.GitHub.Repo)
	}

	var (
		redisClient  *redis.Client
		historyCache *cache.Cache
	)
	if cfg.Cache.Enabled {
		if cfg.Cache.RedisURL != "" {
			redisClient, err = cache.NewRedisClient(ctx, cache.RedisOptions{
				URL:      cfg.Cache.RedisURL,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
				PoolSize: cfg.Cache.RedisPoolSize,
			})
			if err != nil {
				// Redis is a cache tier only; serve without it
				logger.WithError(err).Warn("Redis unavailable, using in-process cache only")
				redisClient = nil
			}
		}

		historyCache = cache.New(source, redisClient, &cache.Config{
			L1Size:          cfg.Cache.L1Size,
			L1TTL:           cfg.Cache.L1TTL,
			RedisTTL:        cfg.Cache.RedisTTL,
			NegativeTTL:     cfg.Cache.NegativeTTL,
			KeyPrefix:       "history:",
			WarmConcurrency: cfg.Cache.WarmConcurrency,
		}, cache.WithRecorder(metrics), cache.WithLogger(logger.WithField("component", "cache")))
		source = historyCache
	}

	resolver := history.NewResolver(source,
		history.WithLatency(cfg.History.Latency),
		history.WithLogger(logger.WithField("component", "history")),
		history.WithRecorder(metrics),
	)

	server := api.NewServer(table, resolver,
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithServiceName(cfg.Observability.OTelServiceName),
	)

	checker := observability.NewHealthChecker(redisClient, version, table.Len)
	var gatherer prometheus.Gatherer
	if cfg.Observability.MetricsEnabled {
		gatherer = registry
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:         cfg.Server.HealthAddr(),
		Handler:      api.NewHealthRouter(checker, gatherer),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.AddServer(apiServer)
	shutdown.AddServer(healthServer)

	if historyCache != nil {
		scheduler := async.NewScheduler(logger)
		warm := func(ctx context.Context) error {
			err := historyCache.Warm(ctx, table.Sections())
			status := "success"
			if err != nil {
				status = "error"
			}
			metrics.HistoryWarmupsTotal.WithLabelValues(status).Inc()
			return err
		}

		async.SafeGo(ctx, logger, time.Minute, "initial cache warm-up", warm)

		if cfg.Cache.WarmSchedule != "" {
			if err := scheduler.Add(cfg.Cache.WarmSchedule, "cache warm-up", time.Minute, warm); err != nil {
				return err
			}
			scheduler.Start()
			shutdown.RegisterShutdownFunc("scheduler", scheduler.Stop)
		}
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()

	for _, srv := range []*http.Server{apiServer, healthServer} {
		srv := srv
		go func() {
			defer observability.RecoverPanic(logger, "http server "+srv.Addr)
			logger.WithField("addr", srv.Addr).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).WithField("addr", srv.Addr).Error("HTTP server failed")
				stopServing()
			}
		}()
	}

	return shutdown.WaitForShutdown(serveCtx)
}
