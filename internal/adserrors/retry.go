// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package adserrors

// Remote status tags the Ads service reports, either as google.rpc status
// names or as GoogleAdsFailure error codes.
const (
	CodeRateExceeded      = "RATE_EXCEEDED"
	CodeResourceExhausted = "RESOURCE_EXHAUSTED"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeInternal          = "INTERNAL"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeDeadlineExceeded  = "DEADLINE_EXCEEDED"
	CodeUnavailable       = "UNAVAILABLE"
	CodeTransientError    = "TRANSIENT_ERROR"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeNotFound          = "NOT_FOUND"
)

// retryableCodes is the whole retry policy. Anything not listed fails fast.
var retryableCodes = map[string]bool{
	CodeRateExceeded:      true,
	CodeResourceExhausted: true,
	CodeQuotaExceeded:     true,
	CodeInternal:          true,
	CodeInternalError:     true,
	CodeDeadlineExceeded:  true,
	CodeUnavailable:       true,
	CodeTransientError:    true,
}

// IsRetryableCode reports whether a remote code is worth another attempt.
func IsRetryableCode(code string) bool {
	return retryableCodes[code]
}

// IsRetryable decides whether err should be retried. Only remote failures
// whose detail code or status name is retryable qualify; local errors
// (validation, rate limit, authentication, open circuit) never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindRemote, KindQuotaExceeded, KindNetwork:
		return IsRetryableCode(CodeOf(err)) || IsRetryableCode(StatusOf(err))
	default:
		return false
	}
}

// KindForCode maps a remote code to the kind surfaced to callers.
func KindForCode(code string) Kind {
	switch code {
	case CodeResourceExhausted, CodeQuotaExceeded:
		return KindQuotaExceeded
	case CodeUnauthenticated:
		return KindAuthentication
	default:
		return KindRemote
	}
}
