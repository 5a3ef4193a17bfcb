// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

// Validate checks the configuration. Every failure is a configuration
// error; the manager refuses to start on any of them.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateCredentials,
		c.validateAds,
		c.validateOAuthEndpoints,
		c.validateToken,
		c.validateCache,
		c.validateRateLimit,
		c.validateRetry,
		c.validatePool,
		c.validateEvents,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return adserrors.Wrap(adserrors.KindConfiguration, "config.Validate", "invalid configuration", err)
		}
	}
	return nil
}

// validateCredentials requires the developer token and OAuth client pair.
func (c *Config) validateCredentials() error {
	if strings.TrimSpace(c.Ads.DeveloperToken) == "" {
		return fmt.Errorf("GOOGLE_ADS_DEVELOPER_TOKEN is required")
	}
	if containsPlaceholder(c.Ads.DeveloperToken) {
		return fmt.Errorf("GOOGLE_ADS_DEVELOPER_TOKEN contains a placeholder value")
	}
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		return fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID is required")
	}
	if strings.TrimSpace(c.OAuth.ClientSecret) == "" {
		return fmt.Errorf("GOOGLE_OAUTH_CLIENT_SECRET is required")
	}
	return nil
}

func (c *Config) validateAds() error {
	if err := validateHTTPURL("GOOGLE_ADS_BASE_URL", c.Ads.BaseURL); err != nil {
		return err
	}
	if c.Ads.APIVersion == "" {
		return fmt.Errorf("GOOGLE_ADS_API_VERSION is required")
	}
	if id := c.Ads.LoginCustomerID; id != "" && !isDigits(strings.ReplaceAll(id, "-", "")) {
		return fmt.Errorf("GOOGLE_ADS_LOGIN_CUSTOMER_ID must be numeric, got %q", id)
	}
	if c.Ads.RequestTimeout <= 0 {
		return fmt.Errorf("GOOGLE_ADS_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateOAuthEndpoints() error {
	if err := validateHTTPURL("GOOGLE_OAUTH_TOKEN_URL", c.OAuth.TokenURL); err != nil {
		return err
	}
	return validateHTTPURL("GOOGLE_OAUTH_REVOKE_URL", c.OAuth.RevokeURL)
}

func (c *Config) validateToken() error {
	if c.Token.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Token.EncryptionKey)
		if err != nil {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be base64: %w", err)
		}
		if len(key) < 16 {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must decode to at least 16 bytes, got %d", len(key))
		}
	}
	if c.Token.ExpiryBuffer < 0 {
		return fmt.Errorf("TOKEN_EXPIRY_BUFFER must not be negative")
	}
	if c.Token.SweepInterval <= 0 {
		return fmt.Errorf("TOKEN_SWEEP_INTERVAL must be positive")
	}
	if c.Token.RefreshHorizon < c.Token.ExpiryBuffer {
		return fmt.Errorf("TOKEN_REFRESH_HORIZON (%s) must be at least TOKEN_EXPIRY_BUFFER (%s)",
			c.Token.RefreshHorizon, c.Token.ExpiryBuffer)
	}
	return nil
}

var validCacheBackends = map[string]bool{"none": true, "redis": true, "badger": true}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: none, redis, badger")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1")
	}
	if c.Cache.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
	}
	if c.Cache.Backend == "badger" && !c.Badger.InMemory && c.Badger.Path == "" {
		return fmt.Errorf("BADGER_PATH is required when CACHE_BACKEND=badger")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.RequestsPerSecond < 1 {
		return fmt.Errorf("ADS_REQUESTS_PER_SECOND must be at least 1")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("ADS_BURST must be at least 1")
	}
	if c.RateLimit.AcquireTimeout <= 0 {
		return fmt.Errorf("ADS_ACQUIRE_TIMEOUT must be positive")
	}
	return nil
}

var validRetryStrategies = map[string]bool{"linear": true, "exponential": true, "adaptive": true}

func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("ADS_MAX_RETRIES must be at least 1")
	}
	if !validRetryStrategies[strings.ToLower(c.Retry.Strategy)] {
		return fmt.Errorf("ADS_RETRY_STRATEGY must be one of: linear, exponential, adaptive")
	}
	if c.Retry.Factor <= 0 {
		return fmt.Errorf("ADS_RETRY_FACTOR must be positive")
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.Pool.Capacity < 1 {
		return fmt.Errorf("ADS_POOL_CAPACITY must be at least 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "", "memory":
		return nil
	case "nats":
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || u.Host == "" || (u.Scheme != "nats" && u.Scheme != "tls") {
			return fmt.Errorf("NATS_URL must be a nats:// or tls:// URL, got %q", c.Events.NATSURL)
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of: memory, nats")
	}
}

// minAdminSecretLen matches the HS256 key size.
const minAdminSecretLen = 32

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if s := c.Server.AdminJWTSecret; s != "" && len(s) < minAdminSecretLen {
		return fmt.Errorf("HTTP_ADMIN_JWT_SECRET must be at least %d characters", minAdminSecretLen)
	}
	for _, o := range c.Server.CORSAllowedOrigins {
		if o == "*" && c.Server.AdminJWTSecret == "" {
			return fmt.Errorf("HTTP_CORS_ALLOWED_ORIGINS=* requires HTTP_ADMIN_JWT_SECRET")
		}
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// placeholderPatterns catch values copied from sample configs.
var placeholderPatterns = []string{"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_", "PLACEHOLDER", "EXAMPLE"}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
