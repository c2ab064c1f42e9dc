// ABOUTME: Configuration loader for the SubMe client
// ABOUTME: Loads settings from .env and environment variables with defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by SUBME_STORE
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	// Backend
	APIURL         string
	RequestTimeout time.Duration // overall per-request timeout (default 30s)
	RateLimit      float64       // requests per second, 0 disables throttling
	RateBurst      int

	// Session storage
	Store       string // file, memory, sqlite, redis (default: file)
	ConfigDir   string // directory for session.json / session.db / debug.log
	RedisURL    string
	RedisPrefix string

	// Logging
	LogLevel  string
	LogFormat string
	DebugLog  bool // write logs to ConfigDir/debug.log instead of stderr
}

// Overrides holds command-line values that win over the environment.
// Empty fields leave the environment value in place.
type Overrides struct {
	APIURL    string
	Store     string
	ConfigDir string
	LogLevel  string
}

// Load reads .env (if present) and then the environment.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	return LoadWith(Overrides{})
}

// LoadWith is Load with command-line overrides applied before validation,
// so a flag can replace an environment value that would not validate.
func LoadWith(o Overrides) (*Config, error) {
	_ = godotenv.Load()
	cfg := fromEnv()
	cfg.apply(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment only
func FromEnv() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		APIURL:         NormalizeURL(getEnv("SUBME_API_URL", "http://localhost:3000")),
		RequestTimeout: getEnvDuration("SUBME_REQUEST_TIMEOUT", 30*time.Second),
		RateLimit:      getEnvFloat("SUBME_RATE_LIMIT", 0),
		RateBurst:      getEnvInt("SUBME_RATE_BURST", 5),

		Store:       strings.ToLower(getEnv("SUBME_STORE", StoreFile)),
		ConfigDir:   getEnv("SUBME_CONFIG_DIR", DefaultConfigDir()),
		RedisURL:    os.Getenv("SUBME_REDIS_URL"),
		RedisPrefix: getEnv("SUBME_REDIS_PREFIX", "subme:"),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		DebugLog:  getEnvBool("SUBME_DEBUG_LOG", false),
	}
}

func (c *Config) apply(o Overrides) {
	if o.APIURL != "" {
		c.APIURL = NormalizeURL(o.APIURL)
	}
	if o.Store != "" {
		c.Store = strings.ToLower(o.Store)
	}
	if o.ConfigDir != "" {
		c.ConfigDir = o.ConfigDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// NormalizeURL trims trailing slashes and adds https:// when no scheme is given
func NormalizeURL(url string) string {
	return ensureScheme(strings.TrimRight(strings.TrimSpace(url), "/"))
}

// Validate checks field combinations that cannot work at runtime
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
		if c.ConfigDir == "" {
			return fmt.Errorf("SUBME_CONFIG_DIR is required for the %s store", c.Store)
		}
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("SUBME_REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("SUBME_STORE must be one of file, memory, sqlite, redis, got %q", c.Store)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("SUBME_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("SUBME_RATE_LIMIT must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("SUBME_RATE_BURST must be at least 1 when rate limiting, got %d", c.RateBurst)
	}
	return nil
}

// DefaultConfigDir returns the default config directory following the XDG base directory layout
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subme")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "subme")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
