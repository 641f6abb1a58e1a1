// Package observability provides structured logging, Prometheus metrics, health
// probes, OpenTelemetry setup and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("section", "installation").Info("history resolved")
//
// Request-scoped loggers carry the request id, section and trace ids:
//
//	observability.FromContext(r.Context()).Warn("lookup failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.SetTableInfo(table.Len(), 100*time.Millisecond)
//
// Metrics implements history.Recorder and the cache recorder, so it can be
// passed straight to history.WithRecorder and cache.WithRecorder.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(redisClient, version, table.Len)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// Lookup and cache counters can be mirrored to the OTLP meter provider:
//
//	otelMetrics, err := observability.NewOTelMetrics()
//	metrics.AttachOTel(otelMetrics)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
