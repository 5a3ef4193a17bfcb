// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/config"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

const breakerName = "google-ads-api"

// breaker guards remote calls. A nil *breaker passes every call through.
type breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// newBreaker returns nil when the breaker is disabled. Only retryable
// failures count against the circuit: a rejected argument says nothing
// about the health of the remote service.
func newBreaker(cfg config.BreakerConfig) *breaker {
	if !cfg.Enabled {
		return nil
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio < cfg.FailureRatio {
				return false
			}
			logging.Warn().
				Uint32("failures", counts.TotalFailures).
				Float64("failure_rate", ratio*100).
				Msg("[CIRCUIT BREAKER] Opening circuit")
			return true
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !adserrors.IsRetryable(err)
		},
	})
	return &breaker{cb: cb}
}

// do runs fn through the circuit. A rejected call becomes a circuit_open
// error without reaching the remote service.
func (b *breaker) do(op string, fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return adserrors.Wrap(adserrors.KindCircuitOpen, op, "remote calls suspended after repeated failures", err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return err
	}
}

// state reports "disabled" for a nil breaker.
func (b *breaker) state() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
