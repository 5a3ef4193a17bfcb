// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

const sharedOpTimeout = 2 * time.Second

// Options configures an AdvancedCache.
type Options struct {
	MaxEntries      int
	KeyPrefix       string
	CleanupInterval time.Duration
	// Shared is the optional second tier. Nil means in-process only.
	Shared SharedStore
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	MemoryHits   int64   `json:"memory_hits"`
	SharedHits   int64   `json:"shared_hits"`
	Misses       int64   `json:"misses"`
	Sets         int64   `json:"sets"`
	Evictions    int64   `json:"evictions"`
	SharedErrors int64   `json:"shared_errors"`
	Entries      int     `json:"entries"`
	SharedTier   bool    `json:"shared_tier"`
	HitRate      float64 `json:"hit_rate"`
}

// AdvancedCache is a namespaced two-tier cache: a bounded in-process map
// in front of an optional shared store. Every failure degrades to a miss;
// no method returns an error to the caller.
type AdvancedCache struct {
	mem    *memoryTier
	shared SharedStore
	prefix string
	now    func() time.Time

	memHits, sharedHits, misses, sets, evictions, sharedErrs atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates the cache and starts its expiry cleanup loop. Call Close to
// stop the loop and release the shared store.
func New(opts Options) *AdvancedCache {
	c := &AdvancedCache{
		mem:    newMemoryTier(opts.MaxEntries),
		shared: opts.Shared,
		prefix: opts.KeyPrefix,
		now:    opts.Clock,
		done:   make(chan struct{}),
	}
	if c.now == nil {
		c.now = time.Now
	}

	if c.shared != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sharedOpTimeout)
		if err := c.shared.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("Shared cache tier unreachable at startup; continuing with degraded caching")
		}
		cancel()
	}

	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go c.cleanupLoop(interval)
	return c
}

// HasSharedTier reports whether a shared store is configured.
func (c *AdvancedCache) HasSharedTier() bool {
	return c.shared != nil
}

// Get returns a copy of the cached value. The in-process tier is
// consulted first; a shared-tier hit is written back into it with the
// same expiry.
func (c *AdvancedCache) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	sk := storageKey(namespace, key)
	now := c.now()

	if v, _, ok := c.mem.get(sk, now); ok {
		c.memHits.Add(1)
		metrics.CacheHits.WithLabelValues("memory", namespace).Inc()
		return bytes.Clone(v), true
	}

	if c.shared != nil {
		if env, ok := c.getShared(ctx, sk, now); ok {
			c.hydrate(sk, namespace, env.Value, time.Unix(0, env.ExpiresAt))
			c.sharedHits.Add(1)
			metrics.CacheHits.WithLabelValues("shared", namespace).Inc()
			return bytes.Clone(env.Value), true
		}
	}

	c.misses.Add(1)
	metrics.CacheMisses.WithLabelValues(namespace).Inc()
	return nil, false
}

func (c *AdvancedCache) getShared(ctx context.Context, sk string, now time.Time) (envelope, bool) {
	sctx, cancel := context.WithTimeout(ctx, sharedOpTimeout)
	defer cancel()

	raw, err := c.shared.Get(sctx, c.prefix+sk)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.sharedFailure(ctx, "get", err)
		}
		return envelope{}, false
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		c.sharedFailure(ctx, "decode", err)
		return envelope{}, false
	}
	if !now.Before(time.Unix(0, env.ExpiresAt)) {
		return envelope{}, false
	}
	return env, true
}

func (c *AdvancedCache) hydrate(sk, namespace string, value []byte, expiresAt time.Time) {
	if n := c.mem.set(sk, namespace, value, expiresAt); n > 0 {
		c.evictions.Add(int64(n))
		metrics.CacheEvictions.Add(float64(n))
	}
	metrics.CacheEntries.Set(float64(c.mem.len()))
}

// Set stores value in both tiers. A non-positive ttl is ignored.
func (c *AdvancedCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	sk := storageKey(namespace, key)
	expiresAt := c.now().Add(ttl)
	value = bytes.Clone(value)

	c.hydrate(sk, namespace, value, expiresAt)
	c.sets.Add(1)

	if c.shared == nil {
		return
	}
	encoded, err := encodeEnvelope(namespace, value, expiresAt)
	if err != nil {
		c.sharedFailure(ctx, "encode", err)
		return
	}
	sctx, cancel := context.WithTimeout(ctx, sharedOpTimeout)
	defer cancel()
	if err := c.shared.SetEX(sctx, c.prefix+sk, encoded, ttl); err != nil {
		c.sharedFailure(ctx, "set", err)
	}
}

// Delete removes one key from both tiers.
func (c *AdvancedCache) Delete(ctx context.Context, namespace, key string) {
	sk := storageKey(namespace, key)
	c.mem.delete(sk)
	if c.shared == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, sharedOpTimeout)
	defer cancel()
	if err := c.shared.Del(sctx, c.prefix+sk); err != nil {
		c.sharedFailure(ctx, "delete", err)
	}
}

// Clear removes every key under namespace from both tiers. An empty
// namespace clears everything under the configured prefix.
func (c *AdvancedCache) Clear(ctx context.Context, namespace string) {
	var removed int
	scan := c.prefix
	if namespace == "" {
		removed = c.mem.clearAll()
	} else {
		removed = c.mem.clearNamespace(namespace)
		scan += namespaceKey(namespace)
	}
	metrics.CacheEntries.Set(float64(c.mem.len()))
	logging.Ctx(ctx).Debug().Str("namespace", namespace).Int("removed", removed).Msg("Cache cleared")

	if c.shared == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 4*sharedOpTimeout)
	defer cancel()
	keys, err := c.shared.Keys(sctx, scan)
	if err != nil {
		c.sharedFailure(ctx, "keys", err)
		return
	}
	if err := c.shared.Del(sctx, keys...); err != nil {
		c.sharedFailure(ctx, "delete", err)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *AdvancedCache) Stats() Stats {
	s := Stats{
		MemoryHits:   c.memHits.Load(),
		SharedHits:   c.sharedHits.Load(),
		Misses:       c.misses.Load(),
		Sets:         c.sets.Load(),
		Evictions:    c.evictions.Load(),
		SharedErrors: c.sharedErrs.Load(),
		Entries:      c.mem.len(),
		SharedTier:   c.shared != nil,
	}
	if total := s.MemoryHits + s.SharedHits + s.Misses; total > 0 {
		s.HitRate = float64(s.MemoryHits+s.SharedHits) / float64(total) * 100
	}
	return s
}

// Close stops the cleanup loop and closes the shared store.
func (c *AdvancedCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.shared != nil {
			err = c.shared.Close()
		}
	})
	return err
}

func (c *AdvancedCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mem.cleanup(c.now())
			metrics.CacheEntries.Set(float64(c.mem.len()))
		}
	}
}

func (c *AdvancedCache) sharedFailure(ctx context.Context, op string, err error) {
	c.sharedErrs.Add(1)
	metrics.CacheSharedErrors.WithLabelValues(op).Inc()
	logging.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("Shared cache tier failure; treating as miss")
}

// GetJSON reads and unmarshals a cached value. Undecodable entries are
// reported as misses.
func GetJSON[T any](ctx context.Context, c *AdvancedCache, namespace, key string) (T, bool) {
	var v T
	raw, ok := c.Get(ctx, namespace, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("namespace", namespace).Msg("Discarding undecodable cache entry")
		c.Delete(ctx, namespace, key)
		var zero T
		return zero, false
	}
	return v, true
}

// SetJSON marshals v and caches it.
func SetJSON(ctx context.Context, c *AdvancedCache, namespace, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("namespace", namespace).Msg("Value not cacheable")
		return
	}
	c.Set(ctx, namespace, key, raw, ttl)
}
