// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by SharedStore.Get for absent or expired keys.
var ErrNotFound = errors.New("cache: key not found")

// SharedStore is the text-oriented, TTL-aware key/value backend behind the
// second cache tier. Implementations must be safe for concurrent use; no
// extra locking is layered on top and last write wins.
type SharedStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Keys lists every live key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
