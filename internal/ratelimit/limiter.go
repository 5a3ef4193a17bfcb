// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package ratelimit bounds outbound Ads API traffic for the whole process.
//
// A Limiter combines a token bucket (sustained rate plus burst) with a
// sliding one-second window capping admissions to RequestsPerSecond, so a
// full bucket can never produce a spike above the steady-state rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/adsgate/internal/metrics"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	window              = time.Second
)

// Config configures a Limiter.
type Config struct {
	RequestsPerSecond int
	Burst             int
	// RefillRate defaults to RequestsPerSecond.
	RefillRate   float64
	PollInterval time.Duration
}

// State is a snapshot of the limiter.
type State struct {
	Tokens     float64
	Capacity   int
	RefillRate float64
	InWindow   int
}

// Limiter is safe for concurrent use. One instance is shared by every
// caller in the process.
type Limiter struct {
	mu     sync.Mutex
	bucket *rate.Limiter
	recent []time.Time
	rps    int
	burst  int
	refill float64
	poll   time.Duration
	now    func() time.Time
}

// New creates a Limiter. Non-positive values fall back to 1 request per
// second with a burst of 1.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond < 1 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = float64(cfg.RequestsPerSecond)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RefillRate), cfg.Burst),
		recent: make([]time.Time, 0, cfg.RequestsPerSecond),
		rps:    cfg.RequestsPerSecond,
		burst:  cfg.Burst,
		refill: cfg.RefillRate,
		poll:   cfg.PollInterval,
		now:    time.Now,
	}
}

// TryAcquire admits one request if the window has room and a token is
// available. The window is checked first so a window rejection does not
// spend a token.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	if len(l.recent) >= l.rps {
		return false
	}
	if !l.bucket.AllowN(now, 1) {
		return false
	}
	l.recent = append(l.recent, now)
	return true
}

// Acquire waits up to timeout for admission, polling at the configured
// interval. It returns false on timeout or when ctx is done. Callers map
// false to a rate-limit error; it is not a retryable network failure.
func (l *Limiter) Acquire(ctx context.Context, timeout time.Duration) bool {
	start := time.Now()
	defer func() { metrics.RateLimitWait.Observe(time.Since(start).Seconds()) }()

	if l.TryAcquire() {
		return true
	}
	if timeout <= 0 {
		metrics.RateLimitRejections.Inc()
		return false
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			metrics.RateLimitRejections.Inc()
			return false
		case <-deadline.C:
			metrics.RateLimitRejections.Inc()
			return false
		case <-ticker.C:
			if l.TryAcquire() {
				return true
			}
		}
	}
}

// State returns a snapshot for stats reporting.
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	tokens := l.bucket.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	return State{
		Tokens:     tokens,
		Capacity:   l.burst,
		RefillRate: l.refill,
		InWindow:   len(l.recent),
	}
}

// pruneLocked drops admissions older than the window. recent is sorted.
func (l *Limiter) pruneLocked(now time.Time) {
	cut := 0
	for cut < len(l.recent) && now.Sub(l.recent[cut]) >= window {
		cut++
	}
	if cut > 0 {
		l.recent = append(l.recent[:0], l.recent[cut:]...)
	}
}
