// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ERPConfig provides settings for the remote catalog/order-storage collaborator.
type ERPConfig interface {
	GetERPBaseURL() string
	GetERPTimeout() time.Duration
	GetERPMaxRetries() int
	GetERPRateLimitRPS() float64
	GetTokenURL() string
	GetTokenClientID() string
	GetTokenClientSecret() string
}

// CacheConfig provides settings for the response cache.
type CacheConfig interface {
	GetCacheBackend() string
	GetCacheRedisURL() string
	GetCacheTTL() time.Duration
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the background task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// PricingConfig provides settings for the price resolver.
type PricingConfig interface {
	GetDefaultPriceTier() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	ERPBaseURL        string
	ERPTimeout        time.Duration
	ERPMaxRetries     int
	ERPRateLimitRPS   float64
	TokenURL          string
	TokenClientID     string
	TokenClientSecret string

	CacheBackend     string // "redis", "memory" or "none"
	CacheRedisURL    string
	CacheTTL         time.Duration
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	DefaultPriceTier string

	RateLimitRPS   float64
	RateLimitBurst int

	PaymentTermsFile string
	PaymentTerms     *PaymentTerms
}

// Load reads configuration from the environment, applying defaults.
// A .env file is honored when present (development convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:   getBool("CORS_ALLOW_ALL", true),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "")),
		CORSAllowCreds: getBool("CORS_ALLOW_CREDENTIALS", false),

		ERPBaseURL:        os.Getenv("ERP_BASE_URL"),
		ERPTimeout:        getDuration("ERP_TIMEOUT", 15*time.Second),
		ERPMaxRetries:     getInt("ERP_MAX_RETRIES", 3),
		ERPRateLimitRPS:   getFloat("ERP_RATE_LIMIT_RPS", 25),
		TokenURL:          os.Getenv("ERP_TOKEN_URL"),
		TokenClientID:     os.Getenv("ERP_TOKEN_CLIENT_ID"),
		TokenClientSecret: os.Getenv("ERP_TOKEN_CLIENT_SECRET"),

		CacheBackend:     getEnv("CACHE_BACKEND", "memory"),
		CacheRedisURL:    getEnv("CACHE_REDIS_URL", os.Getenv("REDIS_URL")),
		CacheTTL:         getDuration("CACHE_TTL", 60*time.Second),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "pricing"),
		AsynqConcurrency: getInt("ASYNQ_CONCURRENCY", 10),

		DefaultPriceTier: getEnv("DEFAULT_PRICE_TIER", "Shop"),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 100),

		PaymentTermsFile: os.Getenv("PAYMENT_TERMS_FILE"),
	}

	if cfg.ERPBaseURL == "" {
		return nil, fmt.Errorf("ERP_BASE_URL is required")
	}

	terms, err := LoadPaymentTerms(cfg.PaymentTermsFile)
	if err != nil {
		return nil, fmt.Errorf("load payment terms: %w", err)
	}
	cfg.PaymentTerms = terms

	return cfg, nil
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetEnv() string             { return c.Env }
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetERPBaseURL() string      { return c.ERPBaseURL }
func (c *Config) GetERPTimeout() time.Duration {
	return c.ERPTimeout
}
func (c *Config) GetERPMaxRetries() int        { return c.ERPMaxRetries }
func (c *Config) GetERPRateLimitRPS() float64  { return c.ERPRateLimitRPS }
func (c *Config) GetTokenURL() string          { return c.TokenURL }
func (c *Config) GetTokenClientID() string     { return c.TokenClientID }
func (c *Config) GetTokenClientSecret() string { return c.TokenClientSecret }
func (c *Config) GetCacheBackend() string      { return c.CacheBackend }
func (c *Config) GetCacheRedisURL() string     { return c.CacheRedisURL }
func (c *Config) GetCacheTTL() time.Duration   { return c.CacheTTL }
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetDefaultPriceTier() string  { return c.DefaultPriceTier }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
