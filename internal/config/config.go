package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config captures runtime configuration derived from environment variables.
type Config struct {
	Port     string
	LogLevel string

	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	TMDBTimeout      time.Duration
	TMDBRateLimit    int
	TMDBRateWindow   time.Duration
	UserAgent        string

	WatchlistBackend string
	WatchlistPath    string
	WatchlistSlot    string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	CacheRedis    bool

	DatabaseURL string

	InboundRPS   float64
	InboundBurst int
}

// Load reads configuration from the environment. The TMDB key is deliberately
// not checked here: a missing key shows up as an auth failure on the first call.
func Load() (Config, error) {
	cfg := Config{
		Port:     GetEnv("PORT", "8080"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		TMDBAPIKey:       os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:      GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL: GetEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		TMDBTimeout:      GetEnvDuration("TMDB_TIMEOUT", 10*time.Second),
		TMDBRateLimit:    GetEnvInt("TMDB_RATE_LIMIT", 40),
		TMDBRateWindow:   GetEnvDuration("TMDB_RATE_WINDOW", 10*time.Second),
		UserAgent:        GetEnv("USER_AGENT", "HorrorVault/1.0"),

		WatchlistBackend: GetEnv("WATCHLIST_BACKEND", BackendFile),
		WatchlistPath:    GetEnv("WATCHLIST_PATH", "data"),
		WatchlistSlot:    GetEnv("WATCHLIST_SLOT", "horror-movie-watchlist"),

		CacheRedis: GetEnvBool("CACHE_REDIS", false),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		InboundRPS:   GetEnvFloat("INBOUND_RPS", 20),
		InboundBurst: GetEnvInt("INBOUND_BURST", 40),
	}
	cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword = RedisConfig()

	if cfg.TMDBTimeout <= 0 {
		return Config{}, fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	if cfg.TMDBRateLimit <= 0 {
		return Config{}, fmt.Errorf("TMDB_RATE_LIMIT must be positive")
	}
	if cfg.TMDBRateWindow <= 0 {
		return Config{}, fmt.Errorf("TMDB_RATE_WINDOW must be positive")
	}
	if cfg.InboundRPS <= 0 || cfg.InboundBurst <= 0 {
		return Config{}, fmt.Errorf("INBOUND_RPS and INBOUND_BURST must be positive")
	}

	switch cfg.WatchlistBackend {
	case BackendFile, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres watchlist backend")
		}
	default:
		return Config{}, fmt.Errorf("WATCHLIST_BACKEND %q is not one of file, redis, postgres", cfg.WatchlistBackend)
	}

	return cfg, nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.CacheRedis || c.WatchlistBackend == BackendRedis
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvDuration accepts Go duration strings ("10s") or plain milliseconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
