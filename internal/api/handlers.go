// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/manager"
)

type handler struct {
	svc     Service
	version string
	started time.Time
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status         string  `json:"status"`
	Version        string  `json:"version,omitempty"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	CircuitBreaker string  `json:"circuit_breaker"`
}

// health reports degraded, still with 200, while the breaker is open so
// load balancers keep the process in rotation for cached reads.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.GetStats()
	status := "ok"
	if stats.Breaker == "open" {
		status = "degraded"
	}
	writeData(w, r, HealthResponse{
		Status:         status,
		Version:        h.version,
		UptimeSeconds:  time.Since(h.started).Seconds(),
		CircuitBreaker: stats.Breaker,
	})
}

// StatsResponse adds derived totals to the manager snapshot.
type StatsResponse struct {
	manager.Stats
	TotalRequests int64 `json:"total_requests"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.svc.GetStats()
	writeData(w, r, StatsResponse{Stats: s, TotalRequests: s.TotalRequests()})
}

// InvalidateResponse is returned by both cache routes.
type InvalidateResponse struct {
	Namespace string `json:"namespace"`
}

func (h *handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	if err := h.svc.InvalidateCache(r.Context(), ns); err != nil {
		writeFailure(w, r, err)
		return
	}
	if ns == "" {
		ns = "*"
	}
	logging.Ctx(r.Context()).Info().Str("namespace", ns).Msg("Cache invalidated over HTTP")
	writeData(w, r, InvalidateResponse{Namespace: ns})
}
