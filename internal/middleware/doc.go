// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
Package middleware provides the HTTP middleware used by the operational
server: request ID propagation, Prometheus request instrumentation and
response compression.

Every middleware has the standard func(http.Handler) http.Handler shape so
it composes directly with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression())

PrometheusMetrics labels requests by chi route pattern rather than raw
path, so path parameters such as the cache namespace do not create new
series.
*/
package middleware
