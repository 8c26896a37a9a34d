/**
 * @description
 * Configuration loader for the PolyDebate web front.
 * Reads environment variables, applies defaults and validates the result.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - The API origin is the only value the browser-facing behaviour depends on;
 *   everything else tunes the server that stands in for the browser.
 */

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
	SessionBackendFile     = "file"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Session SessionConfig
	DB      DBConfig
	Redis   RedisConfig
	Feed    FeedConfig
	CLI     CLIConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string
	WSPort      string // websocket relay listener
	Env         string // "development", "staging", "production" or "test"
	LogLevel    string
	CORSOrigins string
}

// APIConfig points at the PolyDebate backend
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls how per-browser client state is persisted
type SessionConfig struct {
	Backend      string
	TTL          time.Duration
	CookieSecure bool
}

// DBConfig holds PostgreSQL settings (only needed for the postgres session backend)
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// FeedConfig tunes market feed pagination and caching
type FeedConfig struct {
	PageSize      int
	BreakingTopN  int
	ModelCacheTTL time.Duration
	PageCacheTTL  time.Duration
	WarmInterval  time.Duration // cache warmer period (cmd/worker)
}

// CLIConfig holds terminal client settings
type CLIConfig struct {
	StateFile string
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			WSPort:      getEnv("WS_PORT", "3001"),
			Env:         getEnv("GO_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("POLYDEBATE_API_URL", "http://localhost:5000"), "/"),
			Timeout: time.Duration(getEnvAsInt("API_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Session: SessionConfig{
			Backend:      strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendRedis)),
			TTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24*30)) * time.Hour,
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Feed: FeedConfig{
			PageSize:      getEnvAsInt("FEED_PAGE_SIZE", 20),
			BreakingTopN:  getEnvAsInt("BREAKING_TOP_N", 20),
			ModelCacheTTL: time.Duration(getEnvAsInt("MODEL_CACHE_TTL_MINUTES", 60)) * time.Minute,
			PageCacheTTL:  time.Duration(getEnvAsInt("MARKET_CACHE_TTL_SECONDS", 60)) * time.Second,
			WarmInterval:  time.Duration(getEnvAsInt("CACHE_WARM_INTERVAL_SECONDS", 120)) * time.Second,
		},
		CLI: CLIConfig{
			StateFile: getEnv("CLI_STATE_FILE", defaultStateFile()),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("POLYDEBATE_API_URL must be an absolute URL, got %q", cfg.API.BaseURL)
	}

	switch cfg.Session.Backend {
	case SessionBackendRedis, SessionBackendFile:
	case SessionBackendPostgres:
		if cfg.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}

	if cfg.Feed.PageSize <= 0 || cfg.Feed.PageSize > 100 {
		return fmt.Errorf("FEED_PAGE_SIZE must be between 1 and 100")
	}
	if cfg.Feed.BreakingTopN <= 0 {
		return fmt.Errorf("BREAKING_TOP_N must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polydebate.json"
	}
	return home + string(os.PathSeparator) + ".polydebate.json"
}
