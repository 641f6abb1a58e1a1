package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/history/github"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"github.com/robfig/cron/v3"
)

// History source kinds
const (
	SourceTable  = "table"
	SourceGitHub = "github"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// History resolution
	History HistoryConfig

	// GitHub commits API, used when History.Source is "github"
	GitHub github.Config

	// Cache configuration
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// Origins allowed to call the API from a browser
	CORSOrigins []string
}

// HistoryConfig holds the history table and resolution settings
type HistoryConfig struct {
	Latency time.Duration
	Source  string // table or github
	Table   history.TableSpec
}

// CacheConfig holds the read-through cache settings
type CacheConfig struct {
	Enabled bool

	L1Size      int
	L1TTL       time.Duration
	RedisTTL    time.Duration
	NegativeTTL time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Cron expression for periodic warm-up; empty disables it
	WarmSchedule    string
	WarmConcurrency int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		History:       loadHistoryConfig(),
		GitHub:        loadGitHubConfig(),
		Cache:         loadCacheConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HEARTH_HOST", "0.0.0.0"),
		Port:            getEnv("HEARTH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("HEARTH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("HEARTH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("HEARTH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("HEARTH_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("HEARTH_HEALTH_PORT", "9090"),
		CORSOrigins:     getEnvList("HEARTH_CORS_ORIGINS", nil),
	}
}

// loadHistoryConfig loads the table source and latency from environment
func loadHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Latency: getEnvDuration("HEARTH_HISTORY_LATENCY", history.DefaultLatency),
		Source:  strings.ToLower(getEnv("HEARTH_HISTORY_SOURCE", SourceTable)),
		Table: history.TableSpec{
			Kind:           strings.ToLower(getEnv("HEARTH_TABLE_SOURCE", history.TableKindBuiltin)),
			Path:           getEnv("HEARTH_TABLE_FILE", ""),
			S3Bucket:       getEnv("HEARTH_TABLE_S3_BUCKET", ""),
			S3Key:          getEnv("HEARTH_TABLE_S3_KEY", "history.yaml"),
			S3Region:       getEnv("HEARTH_TABLE_S3_REGION", "us-east-1"),
			S3Endpoint:     getEnv("HEARTH_TABLE_S3_ENDPOINT", ""),
			S3AccessKey:    getEnv("HEARTH_TABLE_S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("HEARTH_TABLE_S3_SECRET_KEY", ""),
			S3UsePathStyle: getEnvBool("HEARTH_TABLE_S3_USE_PATH_STYLE", false),
			SQLDriver:      getEnv("HEARTH_TABLE_SQL_DRIVER", "postgres"),
			SQLDSN:         getEnv("HEARTH_TABLE_SQL_DSN", ""),
			SQLQuery:       getEnv("HEARTH_TABLE_SQL_QUERY", ""),
		},
	}
}

// loadGitHubConfig overlays environment values on github.DefaultConfig
func loadGitHubConfig() github.Config {
	cfg := github.DefaultConfig()
	cfg.APIBaseURL = getEnv("HEARTH_GITHUB_API_URL", cfg.APIBaseURL)
	cfg.WebBaseURL = getEnv("HEARTH_GITHUB_WEB_URL", cfg.WebBaseURL)
	cfg.Owner = getEnv("HEARTH_GITHUB_OWNER", cfg.Owner)
	cfg.Repo = getEnv("HEARTH_GITHUB_REPO", cfg.Repo)
	cfg.Branch = getEnv("HEARTH_GITHUB_BRANCH", cfg.Branch)
	cfg.DocsDir = getEnv("HEARTH_GITHUB_DOCS_DIR", cfg.DocsDir)
	cfg.Token = getEnv("HEARTH_GITHUB_TOKEN", "")
	cfg.Timeout = getEnvDuration("HEARTH_GITHUB_TIMEOUT", cfg.Timeout)
	return cfg
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:         getEnvBool("HEARTH_CACHE_ENABLED", false),
		L1Size:          getEnvInt("HEARTH_CACHE_L1_SIZE", 256),
		L1TTL:           getEnvDuration("HEARTH_CACHE_L1_TTL", time.Minute),
		RedisTTL:        getEnvDuration("HEARTH_CACHE_REDIS_TTL", 15*time.Minute),
		NegativeTTL:     getEnvDuration("HEARTH_CACHE_NEGATIVE_TTL", time.Minute),
		RedisURL:        getEnv("HEARTH_REDIS_URL", ""),
		RedisPassword:   getEnv("HEARTH_REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("HEARTH_REDIS_DB", 0),
		RedisPoolSize:   getEnvInt("HEARTH_REDIS_POOL_SIZE", 10),
		WarmSchedule:    getEnv("HEARTH_WARM_SCHEDULE", ""),
		WarmConcurrency: getEnvInt("HEARTH_WARM_CONCURRENCY", 4),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("HEARTH_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("HEARTH_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("HEARTH_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("HEARTH_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("HEARTH_OTEL_SERVICE_NAME", "hearth-docs"),
		OTelServiceVersion: getEnv("HEARTH_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("HEARTH_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("HEARTH_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate history config
	if c.History.Latency < 0 {
		return fmt.Errorf("history latency must not be negative")
	}
	if err := validateTableSpec(c.History.Table); err != nil {
		return err
	}
	switch c.History.Source {
	case SourceTable:
	case SourceGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("GitHub owner and repo are required for the github history source")
		}
	default:
		return fmt.Errorf("invalid history source: %s (must be table or github)", c.History.Source)
	}

	// Validate cache config
	if c.Cache.Enabled && c.Cache.L1Size <= 0 {
		return fmt.Errorf("cache L1 size must be positive")
	}
	if c.Cache.WarmSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.WarmSchedule); err != nil {
			return fmt.Errorf("invalid warm schedule %q: %w", c.Cache.WarmSchedule, err)
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// validateTableSpec checks the parameters required by each table source
func validateTableSpec(spec history.TableSpec) error {
	switch spec.Kind {
	case history.TableKindBuiltin:
	case history.TableKindFile:
		if spec.Path == "" {
			return fmt.Errorf("table file path is required for file table source")
		}
	case history.TableKindS3:
		if spec.S3Bucket == "" || spec.S3Key == "" {
			return fmt.Errorf("S3 bucket and key are required for s3 table source")
		}
	case history.TableKindSQL:
		if spec.SQLDriver != "postgres" && spec.SQLDriver != "sqlite3" {
			return fmt.Errorf("invalid SQL driver: %s (must be postgres or sqlite3)", spec.SQLDriver)
		}
		if spec.SQLDSN == "" {
			return fmt.Errorf("SQL DSN is required for sql table source")
		}
	default:
		return fmt.Errorf("invalid table source: %s (must be builtin, file, s3, or sql)", spec.Kind)
	}
	return nil
}

// Addr returns the API listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// HealthAddr returns the health/metrics listen address
func (s ServerConfig) HealthAddr() string {
	return s.Host + ":" + s.HealthPort
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
