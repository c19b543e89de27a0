// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Translation TranslationConfig
	Redis       RedisConfig
	Export      ExportConfig
	Images      ImageConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Pricing     PricingConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 120s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`

	// MaxBodyBytes caps JSON request bodies (default: 10MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"10485760"`
}

// DatabaseConfig holds the product master connection settings.
// The database is optional; without it requests must carry full product records.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a product database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// TranslationConfig selects and tunes the translation provider.
type TranslationConfig struct {
	// Provider is "none" or "openai" (default: none)
	Provider string `env:"TRANSLATION_PROVIDER" default:"none"`

	// OpenAIAPIKey is required when Provider is "openai"
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// Model is the chat model used for translation (default: gpt-4o-mini)
	Model string `env:"TRANSLATION_MODEL" default:"gpt-4o-mini"`

	// Timeout bounds a single provider call (default: 10s)
	Timeout time.Duration `env:"TRANSLATION_TIMEOUT" default:"10s"`

	// CacheTTL is how long translations stay in Redis (default: 720h)
	CacheTTL time.Duration `env:"TRANSLATION_CACHE_TTL" default:"720h"`
}

// RedisConfig holds the optional translation cache connection.
type RedisConfig struct {
	// URL is a redis:// connection string; empty disables caching
	URL string `env:"REDIS_URL"`

	// Prefix namespaces cache keys (default: listingbridge:tr:)
	Prefix string `env:"REDIS_PREFIX" default:"listingbridge:tr:"`

	// ConnectTimeout bounds the startup ping (default: 5s)
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" default:"5s"`
}

// ExportConfig holds batch transformation and CSV export settings.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of parallel export batches (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an export slot (default: 30s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"30s"`

	// MaxProducts caps the products in one export request (default: 5000)
	MaxProducts int `env:"EXPORT_MAX_PRODUCTS" default:"5000"`

	// Workers is the per-batch transform concurrency (default: 8)
	Workers int `env:"EXPORT_WORKERS" default:"8"`
}

// ImageConfig controls image metadata downloads.
type ImageConfig struct {
	// FetchTimeout bounds a single image metadata request (default: 10s)
	FetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" default:"10s"`

	// FetchConcurrency is the number of parallel image requests (default: 6)
	FetchConcurrency int `env:"IMAGE_FETCH_CONCURRENCY" default:"6"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the token bucket size per IP (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// PricingConfig holds currency conversion settings.
type PricingConfig struct {
	// ExchangeRates overrides the JPY price of one unit per currency,
	// e.g. "USD=150,AUD=100". Unlisted currencies keep their default.
	ExchangeRates map[string]string `env:"EXCHANGE_RATES"`
}

// RateTable merges the configured rates over platform.DefaultRates.
// Values have been checked by Validate.
func (c *PricingConfig) RateTable() platform.RateTable {
	rates := platform.DefaultRates()
	for code, v := range c.ExchangeRates {
		if d, err := decimal.NewFromString(v); err == nil {
			rates[code] = d
		}
	}
	return rates
}

func (c *PricingConfig) validate() []string {
	var errs []string
	codes := make([]string, 0, len(c.ExchangeRates))
	for code := range c.ExchangeRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		d, err := decimal.NewFromString(c.ExchangeRates[code])
		if err != nil || !d.IsPositive() {
			errs = append(errs, fmt.Sprintf("EXCHANGE_RATES %s=%q must be a positive number", code, c.ExchangeRates[code]))
		}
	}
	return errs
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
