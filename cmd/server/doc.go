// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
Package main is the entry point for the Adsgate server.

Adsgate manages Google Ads API access for many users: OAuth token
storage and refresh, a pool of authenticated clients, a two-tier
response cache, a process-wide rate limit and retry with backoff behind a
circuit breaker.

# Process layout

	RootSupervisor ("adsgate")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── Token sweeper (expired token cleanup)
	└── APISupervisor ("api-layer")
	    └── HTTP server (health, metrics, stats, cache invalidation)

Initialization order:

 1. Configuration: koanf v2 with defaults, optional YAML file, .env and
    environment variables
 2. Logging: zerolog with JSON or console output
 3. Tracing: OpenTelemetry OTLP/HTTP exporter when enabled
 4. Manager: cache, rate limiter, circuit breaker, token manager and
    client pool
 5. Supervisor tree: suture v4
 6. Signal handling: SIGINT and SIGTERM cancel the tree, then the manager
    is closed and traces are flushed

# Configuration

The required settings are the developer token and the OAuth client:

	GOOGLE_ADS_DEVELOPER_TOKEN=...
	GOOGLE_OAUTH_CLIENT_ID=...
	GOOGLE_OAUTH_CLIENT_SECRET=...

See internal/config for the complete list.
*/
package main
