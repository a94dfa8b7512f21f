package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Remote document store (PostgREST-compatible)
	RemoteURL        string
	RemoteAnonKey    string
	RemoteServiceKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Live queries / sync
	PollInterval  time.Duration // snapshot poll cadence per collection
	FlushInterval time.Duration // defensive mirror flush cadence

	// Local mirror
	MirrorPath      string // sqlite file; empty disables the primary backend
	MirrorDir       string // flat-file fallback directory
	MirrorKeyPrefix string

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RemoteURL:        getEnv("REMOTE_STORE_URL", ""),
		RemoteAnonKey:    getEnv("REMOTE_STORE_ANON_KEY", ""),
		RemoteServiceKey: getEnv("REMOTE_STORE_SERVICE_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		PollInterval:  getEnvDuration("SYNC_POLL_INTERVAL", 2*time.Second),
		FlushInterval: getEnvDuration("SYNC_FLUSH_INTERVAL", 500*time.Millisecond),

		MirrorPath:      getEnv("MIRROR_DB_PATH", "fintrack-mirror.db"),
		MirrorDir:       getEnv("MIRROR_FALLBACK_DIR", ".fintrack-cache"),
		MirrorKeyPrefix: getEnv("MIRROR_KEY_PREFIX", "fintrack"),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:     getEnv("JWT_SECRET", "fintrack-default-dev-secret-change-me"),
		JWTAccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 24*time.Hour),
		JWTRefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
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
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
