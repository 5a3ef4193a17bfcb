// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"maps"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tomtom215/adsgate/internal/cache"
	"github.com/tomtom215/adsgate/internal/ratelimit"
)

// latencyWindow is the number of remote calls averaged for the adaptive
// backoff and for reporting.
const latencyWindow = 100

// Stats is a point-in-time snapshot of the manager.
type Stats struct {
	RequestCounts map[string]int64 `json:"request_counts"`
	CacheHits     map[string]int64 `json:"cache_hits"`
	ErrorCounts   map[string]int64 `json:"error_counts"`
	Retries       int64            `json:"retries"`
	AvgLatency    time.Duration    `json:"avg_latency_ns"`
	Cache         cache.Stats      `json:"cache"`
	PoolSize      int              `json:"pool_size"`
	Tokens        int              `json:"tokens"`
	RateLimiter   ratelimit.State  `json:"rate_limiter"`
	Breaker       string           `json:"circuit_breaker"`
}

// TotalRequests sums RequestCounts.
func (s Stats) TotalRequests() int64 {
	return lo.Sum(lo.Values(s.RequestCounts))
}

type statsRecorder struct {
	mu        sync.Mutex
	requests  map[string]int64
	hits      map[string]int64
	errors    map[string]int64
	retries   int64
	latencies [latencyWindow]time.Duration
	next      int
	filled    int
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		requests: make(map[string]int64),
		hits:     make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// record counts one finished operation. kind is empty on success.
func (s *statsRecorder) record(op, kind string, cacheHit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[op]++
	if cacheHit {
		s.hits[op]++
	}
	if kind != "" {
		s.errors[kind]++
	}
}

func (s *statsRecorder) retried() {
	s.mu.Lock()
	s.retries++
	s.mu.Unlock()
}

func (s *statsRecorder) observeLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies[s.next] = d
	s.next = (s.next + 1) % latencyWindow
	if s.filled < latencyWindow {
		s.filled++
	}
}

func (s *statsRecorder) avgLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avgLatencyLocked()
}

func (s *statsRecorder) avgLatencyLocked() time.Duration {
	if s.filled == 0 {
		return 0
	}
	return lo.Sum(s.latencies[:s.filled]) / time.Duration(s.filled)
}

func (s *statsRecorder) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		RequestCounts: maps.Clone(s.requests),
		CacheHits:     maps.Clone(s.hits),
		ErrorCounts:   maps.Clone(s.errors),
		Retries:       s.retries,
		AvgLatency:    s.avgLatencyLocked(),
	}
}

// GetStats reports counters and the state of every collaborator.
func (m *Manager) GetStats() Stats {
	st := m.stats.snapshot()
	st.Cache = m.cache.Stats()
	st.PoolSize = m.pool.Size()
	st.Tokens = m.tokens.Count()
	st.RateLimiter = m.limiter.State()
	st.Breaker = m.breaker.state()
	return st
}
