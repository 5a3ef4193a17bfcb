// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Ads.DeveloperToken = "dev-token-123"
	cfg.OAuth.ClientID = "client-id"
	cfg.OAuth.ClientSecret = "client-secret"
	return cfg
}

func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	t.Setenv(DotenvPathEnvVar, filepath.Join(dir, "missing.env"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Token.ExpiryBuffer != 300*time.Second {
		t.Errorf("Token.ExpiryBuffer = %v, want 300s", cfg.Token.ExpiryBuffer)
	}
	if cfg.Token.SweepInterval != 5*time.Minute {
		t.Errorf("Token.SweepInterval = %v, want 5m", cfg.Token.SweepInterval)
	}
	if cfg.Token.RefreshHorizon != 10*time.Minute {
		t.Errorf("Token.RefreshHorizon = %v, want 10m", cfg.Token.RefreshHorizon)
	}
	if cfg.RateLimit.PollInterval != 100*time.Millisecond {
		t.Errorf("RateLimit.PollInterval = %v, want 100ms", cfg.RateLimit.PollInterval)
	}
	if cfg.Retry.MaxDelay != 60*time.Second {
		t.Errorf("Retry.MaxDelay = %v, want 60s", cfg.Retry.MaxDelay)
	}
	if cfg.Cache.TTL.Reports >= cfg.Cache.TTL.Campaigns {
		t.Errorf("report TTL %v should be shorter than list TTL %v", cfg.Cache.TTL.Reports, cfg.Cache.TTL.Campaigns)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing developer token", func(c *Config) { c.Ads.DeveloperToken = "" }},
		{"placeholder developer token", func(c *Config) { c.Ads.DeveloperToken = "CHANGEME" }},
		{"missing client id", func(c *Config) { c.OAuth.ClientID = "" }},
		{"missing client secret", func(c *Config) { c.OAuth.ClientSecret = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, adserrors.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"bad strategy", func(c *Config) { c.Retry.Strategy = "fibonacci" }},
		{"zero rps", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
		{"short key", func(c *Config) { c.Token.EncryptionKey = "c2hvcnQ=" }},
		{"non-numeric login customer", func(c *Config) { c.Ads.LoginCustomerID = "abc" }},
		{"token url", func(c *Config) { c.OAuth.TokenURL = "ftp://example" }},
		{"horizon below buffer", func(c *Config) { c.Token.RefreshHorizon = time.Minute }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Redis.Addr = "" }},
		{"bad events backend", func(c *Config) { c.Events.Backend = "kafka" }},
		{"nats without url", func(c *Config) { c.Events.Backend = "nats"; c.Events.NATSURL = "http://nats" }},
		{"short admin secret", func(c *Config) { c.Server.AdminJWTSecret = "short" }},
		{"wildcard cors without auth", func(c *Config) { c.Server.CORSAllowedOrigins = []string{"*"} }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "dev-token")
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_ADS_LOGIN_CUSTOMER_ID", "123-456-7890")
	t.Setenv("ADS_REQUESTS_PER_SECOND", "5")
	t.Setenv("ADS_RETRY_STRATEGY", "linear")
	t.Setenv("TOKEN_SWEEP_INTERVAL", "1m")
	t.Setenv("GOOGLE_OAUTH_SCOPES", "a, b ,c")
	t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "https://ops.example.com,https://grafana.example.com")
	t.Setenv("EVENTS_BACKEND", "nats")
	t.Setenv("NATS_URL", "nats://nats:4222")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Ads.DeveloperToken != "dev-token" {
		t.Errorf("DeveloperToken = %q", cfg.Ads.DeveloperToken)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %d, want 5", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Retry.Strategy != "linear" {
		t.Errorf("Strategy = %q, want linear", cfg.Retry.Strategy)
	}
	if cfg.Token.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.Token.SweepInterval)
	}
	if len(cfg.OAuth.Scopes) != 3 || cfg.OAuth.Scopes[1] != "b" {
		t.Errorf("Scopes = %v", cfg.OAuth.Scopes)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Events.Backend != "nats" || cfg.Events.NATSURL != "nats://nats:4222" {
		t.Errorf("Events = %+v", cfg.Events)
	}
}

func TestLoadWithKoanfFileAndDotenv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	yamlBody := []byte("ads:\n  developer_token: from-file\npool:\n  capacity: 7\ncache:\n  backend: badger\nbadger:\n  in_memory: true\n")
	if err := os.WriteFile(yamlPath, yamlBody, 0o600); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("GOOGLE_OAUTH_CLIENT_ID=dotenv-id\nGOOGLE_OAUTH_CLIENT_SECRET=dotenv-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, yamlPath)
	t.Setenv(DotenvPathEnvVar, envPath)
	// godotenv exports into the process environment; restore afterwards.
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")
	os.Unsetenv("GOOGLE_OAUTH_CLIENT_ID")
	os.Unsetenv("GOOGLE_OAUTH_CLIENT_SECRET")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Ads.DeveloperToken != "from-file" {
		t.Errorf("DeveloperToken = %q, want from-file", cfg.Ads.DeveloperToken)
	}
	if cfg.Pool.Capacity != 7 {
		t.Errorf("Pool.Capacity = %d, want 7", cfg.Pool.Capacity)
	}
	if cfg.OAuth.ClientID != "dotenv-id" {
		t.Errorf("OAuth.ClientID = %q, want dotenv-id", cfg.OAuth.ClientID)
	}
	if !cfg.Badger.InMemory {
		t.Error("Badger.InMemory should come from the file")
	}
}

func TestLoadWithKoanfMissingCredentials(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")

	_, err := LoadWithKoanf()
	if !adserrors.IsKind(err, adserrors.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
