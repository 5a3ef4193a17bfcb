// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
Package auth manages per-user OAuth tokens for Google Ads API access.

A TokenManager keeps one TokenRecord per user, sealed with a
TokenEncryptor when encryption is configured and persisted to the
namespaced cache. Callers ask for a token with ValidToken, which returns
the stored token when it is outside the expiry buffer and otherwise
refreshes it through the OAuthClient. Refreshes for the same user are
coalesced into a single remote call.

The sweep loop (Start/Stop, or Serve under a supervisor) periodically
refreshes tokens nearing expiry and drops records that can no longer be
used. Lifecycle events are published on TokenTopic so the client pool
can drop handles built from a stale token.
*/
package auth
