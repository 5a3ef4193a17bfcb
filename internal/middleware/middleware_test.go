// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

func TestRequestIDGeneratesID(t *testing.T) {
	var fromCtx, correlation string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logging.RequestIDFromContext(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("response request ID %q is not a UUID: %v", got, err)
	}
	if fromCtx != got {
		t.Errorf("context request ID = %q, header = %q", fromCtx, got)
	}
	if correlation == "" {
		t.Error("expected a correlation ID on the context")
	}
}

func TestRequestIDPreservesUpstream(t *testing.T) {
	var fromCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if fromCtx != "upstream-123" || rec.Header().Get(RequestIDHeader) != "upstream-123" {
		t.Errorf("request ID = %q / %q, want upstream-123", fromCtx, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rec := httptest.NewRecorder()
	RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("oversized request ID was not replaced: %v", err)
	}
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Delete("/cache/{namespace}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodDelete, "/cache/{namespace}", "204"))
	for _, ns := range []string{"campaigns", "keywords"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/"+ns, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodDelete, "/cache/{namespace}", "204"))
	if after-before != 2 {
		t.Errorf("counter grew by %v, want 2", after-before)
	}
}

func TestPrometheusMetricsUnmatched(t *testing.T) {
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "418"))
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "418"))
	if after-before != 1 {
		t.Errorf("counter grew by %v, want 1", after-before)
	}
}

func TestCompression(t *testing.T) {
	large := strings.Repeat("adsgate ", 512)
	h := Compression()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/small" {
			_, _ = io.WriteString(w, "ok")
			return
		}
		_, _ = io.WriteString(w, large)
	}))

	t.Run("large body is gzipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/large", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("gzip.NewReader: %v", err)
		}
		body, _ := io.ReadAll(zr)
		if string(body) != large {
			t.Error("decompressed body mismatch")
		}
	})

	t.Run("small body is not", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/small", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != "ok" {
			t.Errorf("small body was altered: %q %q", rec.Header().Get("Content-Encoding"), rec.Body.String())
		}
	})

	t.Run("client without gzip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/large", nil))
		if rec.Body.String() != large {
			t.Error("body altered for client without Accept-Encoding")
		}
	})
}
