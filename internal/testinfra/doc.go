// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package testinfra starts real backing services in Docker for integration
// tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/cache/...
//
// # Redis Container
//
//	func TestSharedTier(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//
//	    store := cache.NewRedisStore(cache.RedisOptions{Addr: redis.Addr})
//	    ...
//	}
//
// Tests call SkipIfNoDocker first so they skip cleanly on machines without
// a Docker daemon.
package testinfra
