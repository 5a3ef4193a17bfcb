// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package googleads is a thin REST client for the Google Ads API: account
// listing, GAQL search, query builders and typed row decoding.
package googleads
