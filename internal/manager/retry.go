// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/config"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

// Strategy selects how the delay between attempts grows.
type Strategy string

const (
	StrategyLinear      Strategy = "linear"
	StrategyExponential Strategy = "exponential"
	StrategyAdaptive    Strategy = "adaptive"
)

const defaultMaxDelay = 60 * time.Second

// Backoff computes the wait inserted before a retry.
type Backoff struct {
	Strategy  Strategy
	Factor    float64
	Unit      time.Duration
	MaxDelay  time.Duration
	MaxJitter time.Duration

	// jitter returns a value in [0, 1). Nil uses math/rand.
	jitter func() float64
}

// BackoffFromConfig builds a Backoff from the retry section.
func BackoffFromConfig(cfg config.RetryConfig) Backoff {
	return Backoff{
		Strategy:  Strategy(strings.ToLower(cfg.Strategy)),
		Factor:    cfg.Factor,
		Unit:      cfg.Unit,
		MaxDelay:  cfg.MaxDelay,
		MaxJitter: cfg.MaxJitter,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
// avgLatency feeds the adaptive strategy. The result never exceeds
// MaxDelay.
//
//	linear:      attempt * factor * unit
//	exponential: factor^attempt * unit + jitter
//	adaptive:    attempt * factor * unit * max(1, avgLatency / 1s)
func (b Backoff) Delay(attempt int, avgLatency time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	unit := b.Unit
	if unit <= 0 {
		unit = time.Second
	}
	factor := b.Factor
	if factor <= 0 {
		factor = 1
	}
	limit := b.MaxDelay
	if limit <= 0 {
		limit = defaultMaxDelay
	}

	var d float64
	switch b.Strategy {
	case StrategyLinear:
		d = float64(attempt) * factor * float64(unit)
	case StrategyAdaptive:
		scale := math.Max(1, avgLatency.Seconds())
		d = float64(attempt) * factor * float64(unit) * scale
	default:
		d = math.Pow(factor, float64(attempt)) * float64(unit)
		if b.MaxJitter > 0 {
			d += b.random() * float64(b.MaxJitter)
		}
	}

	// Overflowed float conversions come out negative.
	if d >= float64(limit) || d < 0 || math.IsInf(d, 0) || math.IsNaN(d) {
		return limit
	}
	return time.Duration(d)
}

func (b Backoff) random() float64 {
	if b.jitter != nil {
		return b.jitter()
	}
	return rand.Float64()
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry runs attempt up to the configured number of times. Errors that
// adserrors.IsRetryable rejects are returned after the first attempt with
// their kind intact; exhausting every attempt returns a retry_exhausted
// error wrapping the last failure.
func (m *Manager) withRetry(ctx context.Context, op string, attempt func(context.Context) error) error {
	attempts := m.cfg.Retry.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 1; i <= attempts; i++ {
		start := m.now()
		err := m.breaker.do(op, func() error { return attempt(ctx) })
		elapsed := m.now().Sub(start)
		m.stats.observeLatency(elapsed)
		metrics.RecordRemoteCall(op, elapsed)

		if err == nil {
			return nil
		}
		last = err
		if !adserrors.IsRetryable(err) {
			kind := adserrors.KindOf(err)
			if kind == "" {
				kind = adserrors.KindRemote
			}
			return adserrors.Wrap(kind, op, "remote call failed", err)
		}
		if i == attempts {
			break
		}

		delay := m.backoff.Delay(i, m.stats.avgLatency())
		code := adserrors.CodeOf(err)
		metrics.AdsRetries.WithLabelValues(op, code).Inc()
		m.stats.retried()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("operation", op).
			Str("code", code).
			Int("attempt", i).
			Int("max_attempts", attempts).
			Dur("backoff", delay).
			Msg("Retrying Ads API call")

		if err := m.sleep(ctx, delay); err != nil {
			return adserrors.Wrap(adserrors.KindNetwork, op, "retry wait interrupted", err)
		}
	}
	return adserrors.Wrap(adserrors.KindRetryExhausted, op, fmt.Sprintf("giving up after %d attempts", attempts), last)
}
