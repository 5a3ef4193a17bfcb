// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
Package manager is the entry point for Google Ads operations.

A Manager is built explicitly with New and owns every collaborator: the
two-tier response cache, the token manager, the client pool, the process
wide rate limiter and the circuit breaker guarding remote calls. Each
operation runs the same pipeline:

	cache lookup -> rate limit -> pooled client -> retried remote call -> cache store

Only remote failures carrying a retryable code are retried; the decision
table lives in adserrors.IsRetryable. An authentication failure from the
remote side evicts the pooled client before the error is returned.

Usage:

	m, err := manager.New(cfg)
	if err != nil {
	    return err
	}
	defer m.Close()

	m.Start()
	campaigns, err := m.GetCampaigns(ctx, userID, customerID, googleads.CampaignFilter{})
*/
package manager
