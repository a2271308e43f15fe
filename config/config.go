// Package config provides configuration for the orchestration core.
// Values are resolved defaults-first, then a YAML file, then environment
// variables with the AGENTROUTE prefix.
package config

import (
	"fmt"
	"time"
)

// Config is the complete configuration of the orchestration core.
type Config struct {
	// Routing configures the handoff router.
	Routing RoutingConfig `yaml:"routing" env:"ROUTING"`

	// LLM configures provider fallback and retries.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Cache configures the multi-tier response cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Redis configures the shared store backing cache L2 and the optional
	// Redis handoff record store.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Database configures the optional relational handoff record store.
	// An empty DSN leaves it disabled.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// RoutingConfig holds the handoff router policy knobs.
type RoutingConfig struct {
	// ConfidenceThreshold is the minimum classifier score required to
	// consider a transfer at all.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`

	// Cooldown is the minimum gap between two transfers along the same
	// directed (contact, source, target) pair.
	Cooldown time.Duration `yaml:"cooldown" env:"COOLDOWN"`

	// MaxHandoffsPerHour caps transfers per contact in a rolling hour.
	MaxHandoffsPerHour int `yaml:"max_handoffs_per_hour" env:"MAX_HANDOFFS_PER_HOUR"`

	// MaxHandoffsPerDay caps transfers per contact in a rolling day.
	MaxHandoffsPerDay int `yaml:"max_handoffs_per_day" env:"MAX_HANDOFFS_PER_DAY"`

	// Retention bounds record storage; records older than this are pruned.
	// It must not be shorter than the daily rate window.
	Retention time.Duration `yaml:"retention" env:"RETENTION"`

	// Adaptive configures the optional learned-threshold policy.
	Adaptive AdaptiveConfig `yaml:"adaptive" env:"ADAPTIVE"`
}

// AdaptiveConfig tunes the ping-pong aware threshold policy. Disabled by
// default; the fixed threshold baseline applies when Enabled is false.
type AdaptiveConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// ReversalWindow is how soon a reversed transfer (B->A after A->B)
	// counts as a ping-pong signal.
	ReversalWindow time.Duration `yaml:"reversal_window" env:"REVERSAL_WINDOW"`

	// Step is how much the effective threshold is raised per observed
	// reversal for a pair.
	Step float64 `yaml:"step" env:"STEP"`

	// MaxThreshold caps the effective threshold.
	MaxThreshold float64 `yaml:"max_threshold" env:"MAX_THRESHOLD"`
}

// LLMConfig holds the provider chain and retry policy.
type LLMConfig struct {
	// ProviderOrder is the fallback chain, primary first.
	ProviderOrder []string `yaml:"provider_order" env:"PROVIDER_ORDER"`

	// RetryAttempts is the per-provider attempt cap for transient failures.
	RetryAttempts int `yaml:"retry_attempts" env:"RETRY_ATTEMPTS"`

	// RetryBaseDelay is the initial backoff delay.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" env:"RETRY_BASE_DELAY"`

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `yaml:"retry_max_delay" env:"RETRY_MAX_DELAY"`

	// RequestTimeout bounds a single provider attempt.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	// RateLimitRPS throttles outbound calls per provider (0 disables).
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`

	// RateLimitBurst is the burst allowance for the provider limiter.
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// CacheConfig holds the multi-tier cache knobs.
type CacheConfig struct {
	// TTL is the write-through expiry for cached responses.
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	// LocalMaxSize bounds the in-process tier entry count.
	LocalMaxSize int `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"`

	// LocalTTL is the in-process tier expiry, usually shorter than TTL.
	LocalTTL time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`

	EnableLocal    bool `yaml:"enable_local" env:"ENABLE_LOCAL"`
	EnableRedis    bool `yaml:"enable_redis" env:"ENABLE_REDIS"`
	EnableSemantic bool `yaml:"enable_semantic" env:"ENABLE_SEMANTIC"`

	// SemanticThreshold is the minimum cosine similarity for an L3 hit.
	SemanticThreshold float64 `yaml:"semantic_threshold" env:"SEMANTIC_THRESHOLD"`
}

// RedisConfig configures the shared Redis store.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig configures the relational store connection.
type DatabaseConfig struct {
	// Driver selects the dialect: "postgres" or "sqlite".
	Driver string `yaml:"driver" env:"DRIVER"`

	// DSN is the connection string. Empty disables the relational store.
	DSN string `yaml:"dsn" env:"DSN"`

	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// TelemetryConfig configures the OTel SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	Insecure     bool    `yaml:"insecure" env:"INSECURE"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Routing:   DefaultRoutingConfig(),
		LLM:       DefaultLLMConfig(),
		Cache:     DefaultCacheConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       LogConfig{Level: "info", Format: "json"},
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultRoutingConfig returns the router policy defaults.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		ConfidenceThreshold: 0.7,
		Cooldown:            30 * time.Minute,
		MaxHandoffsPerHour:  3,
		MaxHandoffsPerDay:   10,
		Retention:           24 * time.Hour,
		Adaptive: AdaptiveConfig{
			Enabled:        false,
			ReversalWindow: 10 * time.Minute,
			Step:           0.05,
			MaxThreshold:   0.95,
		},
	}
}

// DefaultLLMConfig returns the fallback chain defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		ProviderOrder:  []string{"claude", "gpt4", "gemini"},
		RetryAttempts:  3,
		RetryBaseDelay: 1 * time.Second,
		RetryMaxDelay:  30 * time.Second,
		RequestTimeout: 60 * time.Second,
		RateLimitRPS:   0,
		RateLimitBurst: 1,
	}
}

// DefaultCacheConfig returns the multi-tier cache defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:               24 * time.Hour,
		LocalMaxSize:      1000,
		LocalTTL:          5 * time.Minute,
		EnableLocal:       true,
		EnableRedis:       true,
		EnableSemantic:    false,
		SemanticThreshold: 0.92,
	}
}

// DefaultRedisConfig returns Redis connection defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig returns database defaults (disabled).
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultTelemetryConfig returns telemetry defaults (disabled).
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		ServiceName:  "agentroute",
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		SampleRate:   1.0,
	}
}

// Validate checks cross-field constraints on the resolved configuration.
func (c *Config) Validate() error {
	if c.Routing.ConfidenceThreshold < 0 || c.Routing.ConfidenceThreshold > 1 {
		return fmt.Errorf("routing.confidence_threshold must be in [0,1], got %v", c.Routing.ConfidenceThreshold)
	}
	if c.Routing.Cooldown <= 0 {
		return fmt.Errorf("routing.cooldown must be positive")
	}
	if c.Routing.MaxHandoffsPerHour <= 0 || c.Routing.MaxHandoffsPerDay <= 0 {
		return fmt.Errorf("routing rate caps must be positive")
	}
	if c.Routing.Retention < 24*time.Hour {
		return fmt.Errorf("routing.retention must cover the daily rate window")
	}
	if len(c.LLM.ProviderOrder) == 0 {
		return fmt.Errorf("llm.provider_order must not be empty")
	}
	if c.LLM.RetryAttempts < 1 {
		return fmt.Errorf("llm.retry_attempts must be at least 1")
	}
	if c.Cache.SemanticThreshold < 0 || c.Cache.SemanticThreshold > 1 {
		return fmt.Errorf("cache.semantic_threshold must be in [0,1]")
	}
	return nil
}
