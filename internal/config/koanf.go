// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/adsgate/config.yaml",
	"/etc/adsgate/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotenvPathEnvVar overrides the .env file path.
const DotenvPathEnvVar = "DOTENV_PATH"

// Default returns the built-in defaults without credentials. The result
// does not validate until the developer token and OAuth client are set.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Ads: AdsConfig{
			BaseURL:        "https://googleads.googleapis.com",
			APIVersion:     "v17",
			RequestTimeout: 30 * time.Second,
			FanOut:         4,
		},
		OAuth: OAuthConfig{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  "https://oauth2.googleapis.com/token",
			RevokeURL: "https://oauth2.googleapis.com/revoke",
			Scopes:    []string{"https://www.googleapis.com/auth/adwords"},
		},
		Token: TokenConfig{
			EncryptionEnabled: true,
			ExpiryBuffer:      300 * time.Second,
			SweepInterval:     5 * time.Minute,
			RefreshHorizon:    10 * time.Minute,
			RefreshTimeout:    15 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:         true,
			Backend:         "none",
			MaxEntries:      10000,
			KeyPrefix:       "adsgate:",
			CleanupInterval: 5 * time.Minute,
			TTL: CacheTTL{
				Customers:       time.Hour,
				CustomerDetails: time.Hour,
				Campaigns:       30 * time.Minute,
				AdGroups:        30 * time.Minute,
				Keywords:        30 * time.Minute,
				Reports:         15 * time.Minute,
				Hierarchy:       time.Hour,
				Tokens:          time.Hour,
			},
		},
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			DialTimeout: 5 * time.Second,
		},
		Badger: BadgerConfig{
			Path: "/data/adsgate-cache",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             10,
			AcquireTimeout:    30 * time.Second,
			PollInterval:      100 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			Strategy:   "exponential",
			Factor:     2,
			Unit:       time.Second,
			MaxDelay:   60 * time.Second,
			MaxJitter:  time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      2 * time.Minute,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Pool: PoolConfig{
			Capacity:      100,
			ProbeInterval: time.Minute,
		},
		Events: EventsConfig{
			Backend: "memory",
			NATSURL: "nats://127.0.0.1:4222",
		},
		Server: ServerConfig{
			Enabled:            true,
			Host:               "0.0.0.0",
			Port:               8086,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			ServiceName: "adsgate",
			SampleRatio: 1.0,
		},
	}
}

// LoadWithKoanf layers defaults, the optional config file and the
// environment, then validates the result.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotenv exports variables from .env without overriding the real
// environment. A missing file is not an error.
func loadDotenv() error {
	path := ".env"
	if p := os.Getenv(DotenvPathEnvVar); p != "" {
		path = p
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// FilePath returns the config file Load would read, or "" when none exists.
func FilePath() string {
	return findConfigFile()
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"oauth.scopes",
	"server.cors_allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercase environment names to koanf paths. Unmapped
// variables are ignored.
var envMappings = map[string]string{
	"google_ads_developer_token":   "ads.developer_token",
	"google_ads_login_customer_id": "ads.login_customer_id",
	"google_ads_base_url":          "ads.base_url",
	"google_ads_api_version":       "ads.api_version",
	"google_ads_request_timeout":   "ads.request_timeout",
	"google_ads_fan_out":           "ads.fan_out",

	"google_oauth_client_id":     "oauth.client_id",
	"google_oauth_client_secret": "oauth.client_secret",
	"google_oauth_auth_url":      "oauth.auth_url",
	"google_oauth_token_url":     "oauth.token_url",
	"google_oauth_revoke_url":    "oauth.revoke_url",
	"google_oauth_redirect_url":  "oauth.redirect_url",
	"google_oauth_scopes":        "oauth.scopes",

	"token_encryption_enabled": "token.encryption_enabled",
	"token_encryption_key":     "token.encryption_key",
	"token_expiry_buffer":      "token.expiry_buffer",
	"token_sweep_interval":     "token.sweep_interval",
	"token_refresh_horizon":    "token.refresh_horizon",
	"token_refresh_timeout":    "token.refresh_timeout",

	"cache_enabled":          "cache.enabled",
	"cache_backend":          "cache.backend",
	"cache_max_entries":      "cache.max_entries",
	"cache_key_prefix":       "cache.key_prefix",
	"cache_cleanup_interval": "cache.cleanup_interval",
	"cache_ttl_campaigns":    "cache.ttl.campaigns",
	"cache_ttl_reports":      "cache.ttl.reports",

	"redis_addr":     "redis.addr",
	"redis_url":      "redis.addr",
	"redis_username": "redis.username",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"badger_path":      "badger.path",
	"badger_in_memory": "badger.in_memory",

	"ads_requests_per_second":     "rate_limit.requests_per_second",
	"ads_burst":                   "rate_limit.burst",
	"ads_acquire_timeout":         "rate_limit.acquire_timeout",
	"ads_max_retries":             "retry.max_retries",
	"ads_retry_strategy":          "retry.strategy",
	"ads_retry_factor":            "retry.factor",
	"ads_retry_max_delay":         "retry.max_delay",
	"ads_breaker_enabled":         "breaker.enabled",
	"ads_pool_capacity":           "pool.capacity",
	"ads_pool_probe_interval":     "pool.probe_interval",
	"http_enabled":                "server.enabled",
	"http_host":                   "server.host",
	"http_port":                   "server.port",
	"http_rate_limit_per_min":     "server.rate_limit_per_minute",
	"http_cors_allowed_origins":   "server.cors_allowed_origins",
	"http_admin_jwt_secret":       "server.admin_jwt_secret",
	"events_backend":              "events.backend",
	"nats_url":                    "events.nats_url",
	"log_level":                   "logging.level",
	"log_format":                  "logging.format",
	"log_caller":                  "logging.caller",
	"otel_tracing_enabled":        "tracing.enabled",
	"otel_exporter_otlp_endpoint": "tracing.endpoint",
	"otel_service_name":           "tracing.service_name",
	"otel_traces_sample_ratio":    "tracing.sample_ratio",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile invokes callback whenever the file changes. Callers are
// responsible for synchronizing access to a reloaded configuration.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
