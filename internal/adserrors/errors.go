// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package adserrors defines the typed errors surfaced by the Ads client
// manager and the single table deciding which remote failures are retried.
//
// Callers branch on the Kind:
//
//	if adserrors.IsKind(err, adserrors.KindRateLimit) { ... }
//	if errors.Is(err, adserrors.ErrAuthentication) { ... }
package adserrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers and for the retry decision.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindRateLimit      Kind = "rate_limit"
	KindQuotaExceeded  Kind = "quota_exceeded"
	KindConfiguration  Kind = "configuration"
	KindNetwork        Kind = "network"
	KindDataValidation Kind = "data_validation"
	KindRemote         Kind = "remote"
	KindRetryExhausted Kind = "retry_exhausted"
	KindCircuitOpen    Kind = "circuit_open"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrQuotaExceeded  = &Error{Kind: KindQuotaExceeded}
	ErrConfiguration  = &Error{Kind: KindConfiguration}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrDataValidation = &Error{Kind: KindDataValidation}
	ErrRetryExhausted = &Error{Kind: KindRetryExhausted}
	ErrCircuitOpen    = &Error{Kind: KindCircuitOpen}
)

// Error is the typed error carried through the manager.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "GetCampaigns".
	Op string
	// Code is the most specific remote tag (RATE_EXCEEDED,
	// OAUTH_TOKEN_EXPIRED, ...) when the failure came from the Ads service.
	Code string
	// Status is the google.rpc status name (UNAUTHENTICATED,
	// RESOURCE_EXHAUSTED, ...) when it differs from Code.
	Status  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteByte(':')
		b.WriteString(e.Op)
	}
	b.WriteByte(']')
	if e.Code != "" {
		b.WriteString(" ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Code == "" && t.Status == "" && t.Message == "" && t.Cause == nil
}

// New creates an error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. The remote code and status
// of err, if any, are carried over.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Code: CodeOf(err), Status: StatusOf(err), Message: message, Cause: err}
}

// Remote builds the error for a failure reported by the Ads service. The
// kind follows the code.
func Remote(op, code, message string) *Error {
	code = strings.ToUpper(strings.TrimSpace(code))
	return &Error{Kind: KindForCode(code), Op: op, Code: code, Message: message}
}

// RemoteStatus builds the error for a failure that carries both a status
// name and a more specific detail code. The kind follows the status and
// falls back to the code; code may be empty.
func RemoteStatus(op, status, code, message string) *Error {
	status = strings.ToUpper(strings.TrimSpace(status))
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code, status = status, ""
	}
	if status == code {
		status = ""
	}
	kind := KindForCode(status)
	if kind == KindRemote {
		kind = KindForCode(code)
	}
	return &Error{Kind: kind, Op: op, Code: code, Status: status, Message: message}
}

// KindOf returns the kind of the outermost *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the first remote code found in the chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code != "" {
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// StatusOf returns the first remote status name found in the chain, or "".
func StatusOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Status != "" {
			return e.Status
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// IsKind reports whether any *Error in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
