// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newRedisBacked(t *testing.T, opts Options) (*AdvancedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	opts.Shared = NewRedisStore(RedisOptions{Addr: mr.Addr()})
	c := New(opts)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestSetGetHonorsTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{MaxEntries: 10, Clock: clock.Now})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "campaigns", "u1:123", []byte("payload"), time.Minute)
	got, ok := c.Get(ctx, "campaigns", "u1:123")
	if !ok || string(got) != "payload" {
		t.Fatalf("Get = %q, %v; want payload, true", got, ok)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "campaigns", "u1:123"); !ok {
		t.Fatal("entry expired early")
	}
	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "campaigns", "u1:123"); ok {
		t.Fatal("entry should be absent once the ttl elapsed")
	}
}

func TestSetCopiesValue(t *testing.T) {
	t.Parallel()

	c := New(Options{MaxEntries: 10})
	defer c.Close()
	ctx := context.Background()

	buf := []byte("abc")
	c.Set(ctx, "ns", "k", buf, time.Minute)
	buf[0] = 'x'
	if got, _ := c.Get(ctx, "ns", "k"); string(got) != "abc" {
		t.Fatalf("cached value changed with caller buffer: %q", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		shared bool
	}{
		{"memory tier", false},
		{"shared tier", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			opts := Options{MaxEntries: 10}
			var mr *miniredis.Miniredis
			if tt.shared {
				mr = miniredis.RunT(t)
				opts.Shared = NewRedisStore(RedisOptions{Addr: mr.Addr()})
			}
			c := New(opts)
			defer c.Close()
			c.Set(ctx, "ns", "k", []byte("abc"), time.Minute)

			if tt.shared {
				// A second instance on the same store hydrates from the shared tier.
				other := New(Options{MaxEntries: 10, Shared: NewRedisStore(RedisOptions{Addr: mr.Addr()})})
				defer other.Close()
				c = other
			}
			got, ok := c.Get(ctx, "ns", "k")
			if !ok {
				t.Fatal("expected a hit")
			}
			got[0] = 'x'
			again, _ := c.Get(ctx, "ns", "k")
			if string(again) != "abc" {
				t.Fatalf("cached value changed with returned slice: %q", again)
			}
		})
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	t.Parallel()

	c := New(Options{MaxEntries: 10})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "campaigns", "k", []byte("a"), time.Minute)
	c.Set(ctx, "keywords", "k", []byte("b"), time.Minute)

	a, _ := c.Get(ctx, "campaigns", "k")
	b, _ := c.Get(ctx, "keywords", "k")
	if string(a) != "a" || string(b) != "b" {
		t.Fatalf("namespaces collided: %q %q", a, b)
	}
}

func TestOverflowEvictsEarliestExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{MaxEntries: 8, Clock: clock.Now})
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		c.Set(ctx, "ns", fmt.Sprint(i), []byte{byte(i)}, time.Duration(i+1)*time.Minute)
	}
	c.Set(ctx, "ns", "new", []byte("n"), time.Hour)

	if got := c.Stats().Entries; got != 7 {
		t.Fatalf("entries = %d, want 7 after evicting a quarter of 8", got)
	}
	for i := 0; i < 2; i++ {
		if _, ok := c.Get(ctx, "ns", fmt.Sprint(i)); ok {
			t.Errorf("entry %d with earliest expiry should be evicted", i)
		}
	}
	for i := 2; i < 8; i++ {
		if _, ok := c.Get(ctx, "ns", fmt.Sprint(i)); !ok {
			t.Errorf("entry %d should survive", i)
		}
	}
	if c.Stats().Evictions != 2 {
		t.Errorf("evictions = %d, want 2", c.Stats().Evictions)
	}
}

func TestSharedTierHydratesMemory(t *testing.T) {
	t.Parallel()

	writer, mr := newRedisBacked(t, Options{MaxEntries: 10, KeyPrefix: "test:"})
	ctx := context.Background()
	writer.Set(ctx, "customers", "u1", []byte(`["123"]`), time.Minute)

	reader := New(Options{MaxEntries: 10, KeyPrefix: "test:", Shared: NewRedisStore(RedisOptions{Addr: mr.Addr()})})
	defer reader.Close()

	got, ok := reader.Get(ctx, "customers", "u1")
	if !ok || string(got) != `["123"]` {
		t.Fatalf("shared Get = %q, %v", got, ok)
	}
	if _, ok := reader.Get(ctx, "customers", "u1"); !ok {
		t.Fatal("second Get should hit")
	}
	s := reader.Stats()
	if s.SharedHits != 1 || s.MemoryHits != 1 {
		t.Fatalf("stats = %+v, want one shared and one memory hit", s)
	}
}

func TestSharedValueIsCompressedAndArmored(t *testing.T) {
	t.Parallel()

	c, mr := newRedisBacked(t, Options{MaxEntries: 10, KeyPrefix: "p:"})
	ctx := context.Background()
	c.Set(ctx, "reports", "k", []byte("rows"), time.Minute)

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("redis keys = %v, want one", keys)
	}
	raw, err := mr.Get(keys[0])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := base64.StdEncoding.DecodeString(raw); err != nil {
		t.Fatalf("stored value is not base64: %v", err)
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if env.Namespace != "reports" || string(env.Value) != "rows" {
		t.Fatalf("envelope = %+v", env)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("shared ttl = %v, want (0, 1m]", ttl)
	}
}

func TestSharedTierExpiry(t *testing.T) {
	t.Parallel()

	c, mr := newRedisBacked(t, Options{MaxEntries: 10})
	ctx := context.Background()
	c.Set(ctx, "ns", "k", []byte("v"), 30*time.Second)
	mr.FastForward(31 * time.Second)

	reader := New(Options{MaxEntries: 10, Shared: NewRedisStore(RedisOptions{Addr: mr.Addr()})})
	defer reader.Close()
	if _, ok := reader.Get(ctx, "ns", "k"); ok {
		t.Fatal("expired shared entry should miss")
	}
}

func TestSharedTierUnavailableDegrades(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store := NewRedisStore(RedisOptions{Addr: mr.Addr(), DialTimeout: 100 * time.Millisecond})
	mr.Close()

	c := New(Options{MaxEntries: 10, Shared: store})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "ns", "k", []byte("v"), time.Minute)
	if got, ok := c.Get(ctx, "ns", "k"); !ok || string(got) != "v" {
		t.Fatalf("memory tier should still serve: %q %v", got, ok)
	}
	if _, ok := c.Get(ctx, "ns", "absent"); ok {
		t.Fatal("absent key should miss")
	}
	c.Delete(ctx, "ns", "k")
	c.Clear(ctx, "ns")

	if c.Stats().SharedErrors == 0 {
		t.Fatal("shared failures should be counted")
	}
}

func TestClearNamespaceBothTiers(t *testing.T) {
	t.Parallel()

	c, mr := newRedisBacked(t, Options{MaxEntries: 10, KeyPrefix: "adsgate:"})
	ctx := context.Background()
	c.Set(ctx, "campaigns", "a", []byte("1"), time.Minute)
	c.Set(ctx, "campaigns", "b", []byte("2"), time.Minute)
	c.Set(ctx, "keywords", "a", []byte("3"), time.Minute)
	// Shares the "campaigns" prefix but is a different namespace.
	c.Set(ctx, "campaigns:archived", "a", []byte("4"), time.Minute)

	c.Clear(ctx, "campaigns")

	fresh := New(Options{MaxEntries: 10, KeyPrefix: "adsgate:", Shared: NewRedisStore(RedisOptions{Addr: mr.Addr()})})
	defer fresh.Close()
	for _, probe := range []*AdvancedCache{c, fresh} {
		if _, ok := probe.Get(ctx, "campaigns", "a"); ok {
			t.Error("campaigns/a should be cleared")
		}
		if _, ok := probe.Get(ctx, "keywords", "a"); !ok {
			t.Error("keywords/a should survive")
		}
		if _, ok := probe.Get(ctx, "campaigns:archived", "a"); !ok {
			t.Error("campaigns:archived/a should survive")
		}
	}

	c.Clear(ctx, "")
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("Clear() left %d shared keys", n)
	}
	if c.Stats().Entries != 0 {
		t.Fatal("Clear() should empty the memory tier")
	}
}

func TestBadgerSharedTier(t *testing.T) {
	t.Parallel()

	store, err := OpenBadgerStore("", true)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	c := New(Options{MaxEntries: 10, KeyPrefix: "b:", Shared: store})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "hierarchy", "mcc", []byte("tree"), time.Minute)
	c.mem.clearAll()

	got, ok := c.Get(ctx, "hierarchy", "mcc")
	if !ok || string(got) != "tree" {
		t.Fatalf("badger tier Get = %q, %v", got, ok)
	}
	keys, err := store.Keys(ctx, "b:hierarchy:")
	if err != nil || len(keys) != 1 {
		t.Fatalf("Keys = %v, %v", keys, err)
	}

	c.Clear(ctx, "hierarchy")
	c.mem.clearAll()
	if _, ok := c.Get(ctx, "hierarchy", "mcc"); ok {
		t.Fatal("cleared badger entry should miss")
	}
}

func TestGetSetJSON(t *testing.T) {
	t.Parallel()

	type campaign struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	c := New(Options{MaxEntries: 10})
	defer c.Close()
	ctx := context.Background()

	SetJSON(ctx, c, "campaigns", "k", []campaign{{ID: "1", Name: "Brand"}}, time.Minute)
	got, ok := GetJSON[[]campaign](ctx, c, "campaigns", "k")
	if !ok || len(got) != 1 || got[0].Name != "Brand" {
		t.Fatalf("GetJSON = %+v, %v", got, ok)
	}

	c.Set(ctx, "campaigns", "bad", []byte("{not json"), time.Minute)
	if _, ok := GetJSON[[]campaign](ctx, c, "campaigns", "bad"); ok {
		t.Fatal("undecodable entry should be a miss")
	}
}

func TestKeyDerivation(t *testing.T) {
	t.Parallel()

	if DeriveKey("ns", "k") != DeriveKey("ns", "k") {
		t.Fatal("DeriveKey is not deterministic")
	}
	if DeriveKey("ns", "k") == DeriveKey("ns2", "k") {
		t.Fatal("namespace must affect the key")
	}
	a := LogicalKey("GetCampaigns", map[string]any{"status": "ENABLED", "limit": 10})
	b := LogicalKey("GetCampaigns", map[string]any{"limit": 10, "status": "ENABLED"})
	if a != b {
		t.Fatalf("logical keys differ by map order: %s vs %s", a, b)
	}
}
