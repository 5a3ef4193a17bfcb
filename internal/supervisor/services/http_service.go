// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package services adapts the process's long-lived components to
// suture.Service.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/adsgate/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService serves the ops listener until the supervisor stops it.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout
// falls back to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. A listener that exits on its own is
// reported so the supervisor restarts it; http.ErrServerClosed only ever
// follows our own Shutdown.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	exited := make(chan error, 1)
	go func() {
		exited <- h.server.ListenAndServe()
	}()
	logging.Info().Str("addr", h.addr()).Msg("HTTP server listening")

	select {
	case err := <-exited:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logging.Error().Err(err).Str("addr", h.addr()).Msg("HTTP server exited")
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	if err := h.shutdown(); err != nil {
		return err
	}
	<-exited
	logging.Info().Msg("HTTP server stopped")
	return ctx.Err()
}

// shutdown drains in-flight requests. The caller's context is already
// done, so the drain gets a deadline of its own.
func (h *HTTPServerService) shutdown() error {
	drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func (h *HTTPServerService) addr() string {
	if srv, ok := h.server.(*http.Server); ok {
		return srv.Addr
	}
	return ""
}

// String names the service in supervisor events.
func (h *HTTPServerService) String() string {
	return "http-server"
}
