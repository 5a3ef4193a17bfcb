// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package cache implements the response cache in front of the Ads API.
//
// AdvancedCache keeps a bounded in-process map in front of an optional
// SharedStore (Redis or Badger). Keys are namespaced and hashed with xxh3.
// Shared-tier values are JSON envelopes compressed with zstd and armored
// with base64 so any text store can hold them.
//
// The cache is best effort: shared-tier failures are logged and counted,
// then treated as misses.
package cache
