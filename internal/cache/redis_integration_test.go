// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/adsgate/internal/testinfra"
)

// TestRedisStoreAgainstRealServer runs the shared tier against a real Redis
// so SCAN-based clearing and server-side expiry are exercised for real.
func TestRedisStoreAgainstRealServer(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	redis, err := testinfra.NewRedisContainer(ctx, testinfra.WithRedisPassword("s3cret"))
	if err != nil {
		t.Fatalf("NewRedisContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, redis)

	newCache := func() *AdvancedCache {
		store := NewRedisStore(RedisOptions{Addr: redis.Addr, Password: "s3cret", DialTimeout: 5 * time.Second})
		if err := store.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
		c := New(Options{MaxEntries: 100, KeyPrefix: "it:", Shared: store})
		t.Cleanup(func() { c.Close() })
		return c
	}

	writer, reader := newCache(), newCache()
	writer.Set(ctx, "campaigns", "u1:123", []byte(`[{"id":"1"}]`), time.Minute)
	writer.Set(ctx, "campaigns", "u1:456", []byte(`[]`), time.Second)
	writer.Set(ctx, "keywords", "u1:123", []byte(`[]`), time.Minute)

	got, ok := reader.Get(ctx, "campaigns", "u1:123")
	if !ok || string(got) != `[{"id":"1"}]` {
		t.Fatalf("reader Get = %q, %v", got, ok)
	}
	if reader.Stats().SharedHits != 1 {
		t.Errorf("SharedHits = %d, want 1", reader.Stats().SharedHits)
	}

	// Real server-side expiry, not the in-memory clock.
	time.Sleep(1500 * time.Millisecond)
	if _, ok := reader.Get(ctx, "campaigns", "u1:456"); ok {
		t.Error("expired shared entry was served")
	}

	writer.Clear(ctx, "campaigns")
	fresh := newCache()
	if _, ok := fresh.Get(ctx, "campaigns", "u1:123"); ok {
		t.Error("cleared namespace still served from Redis")
	}
	if _, ok := fresh.Get(ctx, "keywords", "u1:123"); !ok {
		t.Error("Clear removed another namespace")
	}
}
