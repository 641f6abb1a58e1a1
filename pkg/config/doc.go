// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. Configuration is read once at startup; the
// history table it points at is loaded once and never reloaded.
//
// # Configuration Structure
//
// Server settings:
//
//	HEARTH_HOST="0.0.0.0"
//	HEARTH_PORT="8080"
//	HEARTH_HEALTH_PORT="9090"
//	HEARTH_READ_TIMEOUT="15s"
//	HEARTH_CORS_ORIGINS="https://hearth-engine.dev,http://localhost:3000"
//
// History settings:
//
//	HEARTH_HISTORY_LATENCY="100ms"
//	HEARTH_HISTORY_SOURCE="table"   # table, github
//	HEARTH_TABLE_SOURCE="builtin"   # builtin, file, s3, sql
//	HEARTH_TABLE_FILE="/etc/hearth/history.yaml"
//	HEARTH_TABLE_S3_BUCKET="hearth-docs"
//	HEARTH_TABLE_S3_KEY="history.yaml"
//	HEARTH_TABLE_SQL_DRIVER="postgres"  # postgres, sqlite3
//	HEARTH_TABLE_SQL_DSN="postgres://localhost/hearth?sslmode=disable"
//
// GitHub settings:
//
//	HEARTH_GITHUB_OWNER="noahsabaj"
//	HEARTH_GITHUB_REPO="hearth-engine"
//	HEARTH_GITHUB_TOKEN="ghp_..."
//
// Cache settings:
//
//	HEARTH_CACHE_ENABLED="true"
//	HEARTH_REDIS_URL="redis://localhost:6379"
//	HEARTH_CACHE_L1_TTL="1m"
//	HEARTH_WARM_SCHEDULE="*/15 * * * *"
//
// Observability settings:
//
//	HEARTH_LOG_LEVEL="info"  # debug, info, warn, error
//	HEARTH_METRICS_ENABLED="true"
//	HEARTH_OTEL_ENABLED="true"
//	HEARTH_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatalf("Failed to load configuration: %v", err)
//	}
//	table, err := history.OpenTable(ctx, cfg.History.Table)
//
// # Validation
//
// LoadConfig validates the result: distinct API and health ports, a known table
// source with its required parameters, a parsable cron warm schedule and the
// OpenTelemetry endpoint when tracing is enabled.
package config
