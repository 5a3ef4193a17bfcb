// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/adsgate/internal/manager"
	"github.com/tomtom215/adsgate/internal/middleware"
	"github.com/tomtom215/adsgate/internal/telemetry"
)

// Service is the part of *manager.Manager the HTTP surface needs.
type Service interface {
	GetStats() manager.Stats
	InvalidateCache(ctx context.Context, namespace string) error
}

// RouterConfig tunes the router.
type RouterConfig struct {
	// RateLimitPerMinute caps /api requests per client IP. Zero disables
	// the limit.
	RateLimitPerMinute int
	// CORSAllowedOrigins enables CORS for browser dashboards. Empty means
	// no CORS headers are sent.
	CORSAllowedOrigins []string
	// AdminJWTSecret guards the cache routes. Empty leaves them open.
	AdminJWTSecret string
	Version        string
}

// NewRouter builds the operational router.
func NewRouter(svc Service, cfg RouterConfig) http.Handler {
	h := &handler{svc: svc, version: cfg.Version, started: time.Now()}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "no such route")
	})

	r.With(telemetry.Middleware("healthz")).Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				cfg.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByRealIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
				}),
			))
		}
		r.Use(middleware.Compression())

		r.With(telemetry.Middleware("stats")).Get("/stats", h.stats)
		r.Route("/cache", func(r chi.Router) {
			r.Use(telemetry.Middleware("invalidate_cache"))
			r.Use(requireAdmin([]byte(cfg.AdminJWTSecret)))
			r.Delete("/", h.invalidateCache)
			r.Delete("/{namespace}", h.invalidateCache)
		})
	})

	return r
}
