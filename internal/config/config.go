package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, read once from the environment.
type Config struct {
	Port        int
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	// JWTSecret signs/verifies HS256 tokens in development. When JWKSURL is
	// set, tokens are verified against the external identity provider's JWKS
	// instead.
	JWTSecret string
	JWKSURL   string

	LogLevel  string
	LogFormat string

	Engine EngineConfig
}

// EngineConfig carries the replenishment engine tunables.
type EngineConfig struct {
	AnalysisPeriodDays  int
	SafetyStockDays     int
	ForecastPeriodDays  int
	MinDataPointsForML  int
	WorkerLimit         int
	SupplierWorkerLimit int
	CollaboratorTimeout time.Duration
	SuggestionCacheTTL  time.Duration
	AlertSweepInterval  time.Duration
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioBucket:    getEnv("MINIO_BUCKET", "stockpilot-product-images"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWKSURL:   os.Getenv("AUTH_JWKS_URL"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Engine: EngineConfig{
			AnalysisPeriodDays:  getEnvInt("REORDER_ANALYSIS_PERIOD_DAYS", 30),
			SafetyStockDays:     getEnvInt("REORDER_SAFETY_STOCK_DAYS", 7),
			ForecastPeriodDays:  getEnvInt("REORDER_FORECAST_PERIOD_DAYS", 7),
			MinDataPointsForML:  getEnvInt("REORDER_MIN_DATA_POINTS_ML", 14),
			WorkerLimit:         getEnvInt("REORDER_WORKER_LIMIT", 5),
			SupplierWorkerLimit: getEnvInt("REORDER_SUPPLIER_WORKER_LIMIT", 3),
			CollaboratorTimeout: getEnvDuration("REORDER_COLLABORATOR_TIMEOUT", 10*time.Second),
			SuggestionCacheTTL:  getEnvDuration("REORDER_SUGGESTION_CACHE_TTL", 5*time.Minute),
			AlertSweepInterval:  getEnvDuration("REORDER_ALERT_SWEEP_INTERVAL", 6*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
