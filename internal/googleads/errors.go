// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package googleads

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

// apiErrorBody is the google.rpc.Status envelope. GoogleAdsFailure details
// carry one errorCode object per error, e.g. {"quotaError": "RATE_EXCEEDED"}.
type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type   string `json:"@type"`
			Errors []struct {
				ErrorCode map[string]string `json:"errorCode"`
				Message   string            `json:"message"`
			} `json:"errors"`
			RequestID string `json:"requestId"`
		} `json:"details"`
	} `json:"error"`
}

// parseErrorResponse classifies a non-200 response.
func parseErrorResponse(op string, status int, body []byte) error {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || (parsed.Error.Status == "" && parsed.Error.Message == "") {
		return adserrors.Remote(op, codeForStatus(status),
			fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(string(body))))
	}

	// The status name decides the kind; the detail code is kept as the
	// more specific tag. Either one can make the failure retryable.
	rpcStatus, message := parsed.Error.Status, parsed.Error.Message
	if rpcStatus == "" {
		rpcStatus = codeForStatus(status)
	}
	var code string
	if detailCode, detailMessage, ok := parsed.firstFailure(); ok {
		code = detailCode
		if detailMessage != "" {
			message = detailMessage
		}
	}
	if id := parsed.requestID(); id != "" {
		message = fmt.Sprintf("%s (request %s)", message, id)
	}
	return adserrors.RemoteStatus(op, rpcStatus, code, message)
}

// firstFailure returns the code of the first GoogleAdsFailure error.
func (b *apiErrorBody) firstFailure() (code, message string, ok bool) {
	for _, d := range b.Error.Details {
		for _, e := range d.Errors {
			for _, c := range e.ErrorCode {
				return c, e.Message, true
			}
		}
	}
	return "", "", false
}

func (b *apiErrorBody) requestID() string {
	for _, d := range b.Error.Details {
		if d.RequestID != "" {
			return d.RequestID
		}
	}
	return ""
}

// codeForStatus is the fallback when the body carries no status name.
func codeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return adserrors.CodeResourceExhausted
	case http.StatusUnauthorized:
		return adserrors.CodeUnauthenticated
	case http.StatusForbidden:
		return adserrors.CodePermissionDenied
	case http.StatusNotFound:
		return adserrors.CodeNotFound
	case http.StatusBadRequest:
		return adserrors.CodeInvalidArgument
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return adserrors.CodeUnavailable
	case http.StatusGatewayTimeout:
		return adserrors.CodeDeadlineExceeded
	default:
		if status >= 500 {
			return adserrors.CodeInternal
		}
		return fmt.Sprintf("HTTP_%d", status)
	}
}
