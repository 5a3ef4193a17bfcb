// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package config loads Adsgate configuration.
//
// Values are layered with koanf, later layers overriding earlier ones:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables, including an optional .env file
//
// The Ads developer token and the OAuth client credentials have no
// defaults. Validate rejects a configuration without them.
package config

import "time"

// Config holds all Adsgate configuration.
type Config struct {
	Ads       AdsConfig       `koanf:"ads"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	Token     TokenConfig     `koanf:"token"`
	Cache     CacheConfig     `koanf:"cache"`
	Redis     RedisConfig     `koanf:"redis"`
	Badger    BadgerConfig    `koanf:"badger"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Retry     RetryConfig     `koanf:"retry"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Pool      PoolConfig      `koanf:"pool"`
	Events    EventsConfig    `koanf:"events"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

// AdsConfig describes the remote Google Ads API.
type AdsConfig struct {
	DeveloperToken string `koanf:"developer_token"`
	// LoginCustomerID is the manager (MCC) account used when a request does
	// not name a customer.
	LoginCustomerID string        `koanf:"login_customer_id"`
	BaseURL         string        `koanf:"base_url"`
	APIVersion      string        `koanf:"api_version"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	// FanOut bounds concurrent detail lookups when listing many customers.
	FanOut int `koanf:"fan_out"`
}

// OAuthConfig describes the OAuth client and the token endpoints.
type OAuthConfig struct {
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	AuthURL      string   `koanf:"auth_url"`
	TokenURL     string   `koanf:"token_url"`
	RevokeURL    string   `koanf:"revoke_url"`
	RedirectURL  string   `koanf:"redirect_url"`
	Scopes       []string `koanf:"scopes"`
}

// TokenConfig controls token storage and the refresh sweep.
type TokenConfig struct {
	EncryptionEnabled bool `koanf:"encryption_enabled"`
	// EncryptionKey is a base64 master key. When encryption is enabled and
	// the key is empty, one is generated at startup and logged.
	EncryptionKey  string        `koanf:"encryption_key"`
	ExpiryBuffer   time.Duration `koanf:"expiry_buffer"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	RefreshHorizon time.Duration `koanf:"refresh_horizon"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
}

// CacheConfig controls the two-tier response cache.
type CacheConfig struct {
	Enabled bool `koanf:"enabled"`
	// Backend selects the shared tier: none, redis or badger.
	Backend         string        `koanf:"backend"`
	MaxEntries      int           `koanf:"max_entries"`
	KeyPrefix       string        `koanf:"key_prefix"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	TTL             CacheTTL      `koanf:"ttl"`
}

// CacheTTL holds per-operation cache lifetimes.
type CacheTTL struct {
	Customers       time.Duration `koanf:"customers"`
	CustomerDetails time.Duration `koanf:"customer_details"`
	Campaigns       time.Duration `koanf:"campaigns"`
	AdGroups        time.Duration `koanf:"ad_groups"`
	Keywords        time.Duration `koanf:"keywords"`
	Reports         time.Duration `koanf:"reports"`
	Hierarchy       time.Duration `koanf:"hierarchy"`
	Tokens          time.Duration `koanf:"tokens"`
}

// RedisConfig configures the Redis shared tier.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// BadgerConfig configures the embedded Badger shared tier.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// RateLimitConfig bounds outbound Ads API traffic.
type RateLimitConfig struct {
	RequestsPerSecond int           `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	AcquireTimeout    time.Duration `koanf:"acquire_timeout"`
	PollInterval      time.Duration `koanf:"poll_interval"`
}

// RetryConfig controls retries of remote calls.
type RetryConfig struct {
	MaxRetries int `koanf:"max_retries"`
	// Strategy is linear, exponential or adaptive.
	Strategy  string        `koanf:"strategy"`
	Factor    float64       `koanf:"factor"`
	Unit      time.Duration `koanf:"unit"`
	MaxDelay  time.Duration `koanf:"max_delay"`
	MaxJitter time.Duration `koanf:"max_jitter"`
}

// BreakerConfig configures the circuit breaker around remote calls.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// PoolConfig sizes the client pool.
type PoolConfig struct {
	Capacity int `koanf:"capacity"`
	// ProbeInterval skips the liveness probe for handles probed more
	// recently than this. Zero probes on every reuse.
	ProbeInterval time.Duration `koanf:"probe_interval"`
}

// ServerConfig configures the operational HTTP listener.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RateLimitPerMinute caps /api requests per client IP.
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	// AdminJWTSecret, when set, requires an HS256 bearer token with the
	// admin role on mutating routes.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`
}

// EventsConfig selects the transport for token lifecycle events. The
// default "memory" bus is process-local; "nats" lets every instance that
// shares a cache evict pooled clients when any of them changes a token.
type EventsConfig struct {
	Backend string `koanf:"backend"`
	NATSURL string `koanf:"nats_url"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
