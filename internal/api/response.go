// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/logging"
)

// Response is the envelope of every JSON body.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    Meta   `json:"meta"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta is attached to every response.
type Meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body Response) {
	body.Meta = Meta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write response body")
	}
}

func writeData(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, Response{Error: &Error{Code: code, Message: message}})
}

// writeFailure maps err onto a status and error code by its kind.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	var ae *adserrors.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	writeError(w, r, status, code, msg)
}

func classify(err error) (int, string) {
	switch adserrors.KindOf(err) {
	case adserrors.KindDataValidation:
		return http.StatusBadRequest, ErrCodeBadRequest
	case adserrors.KindAuthentication:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case adserrors.KindRateLimit, adserrors.KindQuotaExceeded:
		return http.StatusTooManyRequests, ErrCodeTooManyRequests
	case adserrors.KindCircuitOpen:
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	case adserrors.KindRemote, adserrors.KindNetwork, adserrors.KindRetryExhausted:
		return http.StatusBadGateway, ErrCodeUpstreamFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
