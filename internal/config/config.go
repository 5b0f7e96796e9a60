package config

import (
	"time"
)

// Config represents the complete application configuration
// following the Fulmen Forge Workhorse Standard three-layer pattern:
// Layer 1: Crucible defaults (config/riftrewind/v0/riftrewind-defaults.yaml)
// Layer 2: User overrides (~/.config/riftrewind/riftrewind/config.yaml)
// Layer 3: Environment variables and runtime overrides
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Riot      RiotConfig      `mapstructure:"riot"`
	Gen       GenConfig       `mapstructure:"gen"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Debug     DebugConfig     `mapstructure:"debug"`
	Workers   int             `mapstructure:"workers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains durable cache TTL and retention configuration.
type CacheConfig struct {
	MatchTTL      time.Duration `mapstructure:"match_ttl"`
	ProfileTTL    time.Duration `mapstructure:"profile_ttl"`
	InsightTTL    time.Duration `mapstructure:"insight_ttl"`
	RetentionDays int           `mapstructure:"retention_days"`
}

// RiotConfig contains Riot API access and governor settings.
//
// RatePerSecond and RatePer2Min mirror the development key limits;
// raise them in config when running with a production key.
type RiotConfig struct {
	APIKey          string `mapstructure:"api_key"`
	RegionBaseURL   string `mapstructure:"region_base_url"`
	PlatformBaseURL string `mapstructure:"platform_base_url"`
	RatePerSecond   int    `mapstructure:"rate_per_second"`
	RatePer2Min     int    `mapstructure:"rate_per_2min"`
}

// GenConfig contains the generation governor settings: a proactive
// per-second cap plus reactive exponential backoff after throttles.
type GenConfig struct {
	RatePerSecond     int           `mapstructure:"rate_per_second"`
	MinInterval       time.Duration `mapstructure:"min_interval"`
	BackoffBase       time.Duration `mapstructure:"backoff_base"`
	BackoffMax        time.Duration `mapstructure:"backoff_max"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	JitterFraction    float64       `mapstructure:"jitter_fraction"`
}

// AnalysisConfig contains match discovery and selection settings.
type AnalysisConfig struct {
	TargetCount      int `mapstructure:"target_count"`
	MaxAgeDays       int `mapstructure:"max_age_days"`
	DiscoveryCeiling int `mapstructure:"discovery_ceiling"`
	SampleSize       int `mapstructure:"sample_size"`
	BatchSize        int `mapstructure:"batch_size"`
}

// AnthropicConfig contains insight generation provider settings.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`

	// PromptFile points at a markdown prompt template that replaces the
	// built-in review prompt. Empty means use the built-in prompt.
	PromptFile string `mapstructure:"prompt_file"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles per Fulmen Forge Workhorse Standard:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
// - ENTERPRISE: Multiple sinks, middleware, throttling, policy enforcement (production)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	// See: gofulmen/docs/crucible-go/standards/observability/logging.md
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port in JSON format
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
