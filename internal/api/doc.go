// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
Package api serves the operational HTTP surface of an Adsgate process.

Routes:

	GET    /healthz                   liveness plus circuit breaker state
	GET    /metrics                   Prometheus exposition
	GET    /api/v1/stats              manager statistics snapshot
	DELETE /api/v1/cache              clear every response cache namespace
	DELETE /api/v1/cache/{namespace}  clear one namespace

Everything under /api is rate limited per client IP with httprate. When an
admin secret is configured, the cache routes require an HS256 bearer token
carrying role "admin". JSON
bodies use the envelope in response.go; failures carry an error code
derived from the adserrors kind so clients can branch on it without
parsing messages.
*/
package api
