package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Search    SearchConfig
	Checkout  CheckoutConfig
	Breaker   BreakerConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Language string // BCP 47 tag of the operator language, e.g. "pt-BR"
}

// BackendConfig holds the store backend connection
type BackendConfig struct {
	BaseURL   string
	StoreID   string
	Timeout   time.Duration
	AuthToken string
}

// SearchConfig holds product and customer search settings
type SearchConfig struct {
	Debounce       time.Duration
	MinQueryLength int
	MaxResults     int
	RateLimitQPS   float64
	RateLimitBurst int
}

// CheckoutConfig holds checkout behavior settings
type CheckoutConfig struct {
	NoticeTTL                 time.Duration
	FailureNoticeTTL          time.Duration
	ContinuousDefaultQuantity string // Pre-filled quantity for products sold by weight
}

// BreakerConfig holds circuit breaker settings for backend calls
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// CacheConfig holds the product search cache settings
type CacheConfig struct {
	Enabled bool
	Backend string // memory, redis
	TTL     time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool // Export logs over OTLP
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PDV_ prefix (e.g., PDV_BACKEND_STORE_ID)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.pdv")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PDV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Language: v.GetString("app.language"),
		},
		Backend: BackendConfig{
			BaseURL:   v.GetString("backend.base_url"),
			StoreID:   v.GetString("backend.store_id"),
			Timeout:   v.GetDuration("backend.timeout"),
			AuthToken: v.GetString("backend.auth_token"),
		},
		Search: SearchConfig{
			Debounce:       v.GetDuration("search.debounce"),
			MinQueryLength: v.GetInt("search.min_query_length"),
			MaxResults:     v.GetInt("search.max_results"),
			RateLimitQPS:   v.GetFloat64("search.rate_limit_qps"),
			RateLimitBurst: v.GetInt("search.rate_limit_burst"),
		},
		Checkout: CheckoutConfig{
			NoticeTTL:                 v.GetDuration("checkout.notice_ttl"),
			FailureNoticeTTL:          v.GetDuration("checkout.failure_notice_ttl"),
			ContinuousDefaultQuantity: v.GetString("checkout.continuous_default_quantity"),
		},
		Breaker: BreakerConfig{
			MaxRequests:         v.GetUint32("breaker.max_requests"),
			Interval:            v.GetDuration("breaker.interval"),
			Timeout:             v.GetDuration("breaker.timeout"),
			ConsecutiveFailures: v.GetUint32("breaker.consecutive_failures"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Backend: v.GetString("cache.backend"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pdv"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Language == "" {
		cfg.App.Language = "pt-BR"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:3001"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Search.Debounce == 0 {
		cfg.Search.Debounce = 300 * time.Millisecond
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = 2
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 20
	}
	if cfg.Search.RateLimitQPS == 0 {
		cfg.Search.RateLimitQPS = 5
	}
	if cfg.Search.RateLimitBurst == 0 {
		cfg.Search.RateLimitBurst = 2
	}
	if cfg.Checkout.NoticeTTL == 0 {
		cfg.Checkout.NoticeTTL = 3 * time.Second
	}
	if cfg.Checkout.FailureNoticeTTL == 0 {
		cfg.Checkout.FailureNoticeTTL = 4 * time.Second
	}
	if cfg.Checkout.ContinuousDefaultQuantity == "" {
		cfg.Checkout.ContinuousDefaultQuantity = "1.000"
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 1
	}
	if cfg.Breaker.Interval == 0 {
		cfg.Breaker.Interval = time.Minute
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = 15 * time.Second
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker.ConsecutiveFailures = 5
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 2 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		// The terminal owns stdout
		cfg.Log.Output = "pdv.log"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "pdv"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.StoreID) == "" {
		return fmt.Errorf("backend.store_id is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be positive")
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be positive")
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce cannot be negative")
	}
	if c.Search.RateLimitQPS < 0 {
		return fmt.Errorf("search.rate_limit_qps cannot be negative")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}

	if c.App.Env == "production" {
		if u.Scheme != "https" {
			return fmt.Errorf("backend.base_url must use https in production")
		}
		if c.Backend.AuthToken == "" {
			return fmt.Errorf("backend.auth_token is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

