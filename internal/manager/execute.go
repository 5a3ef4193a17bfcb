// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/cache"
	"github.com/tomtom215/adsgate/internal/googleads"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

// call describes one cache-aware remote operation.
type call[T any] struct {
	op         string
	userID     string
	customerID string
	namespace  string
	ttl        time.Duration
	// params identify the request within the namespace, next to the user
	// and customer.
	params any
	fetch  func(ctx context.Context, client googleads.Service) (T, error)
}

// cacheScope keys cached responses by the caller's identity so one user
// never reads another user's results.
type cacheScope struct {
	UserID     string `json:"user_id"`
	CustomerID string `json:"customer_id"`
	Params     any    `json:"params"`
}

// execute runs c through cache lookup, rate limiting, the client pool and
// the retry loop, then caches a successful result.
func execute[T any](ctx context.Context, m *Manager, c call[T]) (T, error) {
	var zero T

	ctx, span := m.tracer.Start(ctx, "ads."+c.op, trace.WithAttributes(
		attribute.String("ads.user_id", c.userID),
		attribute.String("ads.customer_id", c.customerID),
		attribute.String("ads.cache_namespace", c.namespace),
	))
	defer span.End()
	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithAccount(ctx, c.userID, c.customerID)

	var key string
	if m.caching {
		key = cache.LogicalKey(c.op, cacheScope{UserID: c.userID, CustomerID: c.customerID, Params: c.params})
		if v, ok := cache.GetJSON[T](ctx, m.cache, c.namespace, key); ok {
			m.finish(ctx, span, c.op, nil, true)
			return v, nil
		}
	}

	timeout := m.cfg.RateLimit.AcquireTimeout
	if !m.limiter.Acquire(ctx, timeout) {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = adserrors.Wrap(adserrors.KindRateLimit, c.op, "cancelled while waiting for the rate limiter", ctxErr)
		} else {
			err = adserrors.Newf(adserrors.KindRateLimit, c.op, "rate limiter did not admit the request within %s", timeout)
		}
		m.finish(ctx, span, c.op, err, false)
		return zero, err
	}

	client, err := m.pool.GetClient(ctx, c.userID, c.customerID, false)
	if err != nil {
		m.finish(ctx, span, c.op, err, false)
		return zero, err
	}

	var result T
	err = m.withRetry(ctx, c.op, func(ctx context.Context) error {
		var err error
		result, err = c.fetch(ctx, client)
		return err
	})
	if err != nil {
		if adserrors.IsKind(err, adserrors.KindAuthentication) {
			m.pool.Evict(c.userID, c.customerID)
		}
		m.finish(ctx, span, c.op, err, false)
		return zero, err
	}

	if key != "" {
		cache.SetJSON(ctx, m.cache, c.namespace, key, result, c.ttl)
	}
	m.finish(ctx, span, c.op, nil, false)
	return result, nil
}

// reject records an operation refused before it reached the pipeline.
func (m *Manager) reject(ctx context.Context, op string, err error) error {
	_, span := m.tracer.Start(ctx, "ads."+op)
	defer span.End()
	m.finish(ctx, span, op, err, false)
	return err
}

func (m *Manager) finish(ctx context.Context, span trace.Span, op string, err error, cacheHit bool) {
	span.SetAttributes(attribute.Bool("ads.cache_hit", cacheHit))
	var kind string
	if err != nil {
		kind = string(adserrors.KindOf(err))
		if kind == "" {
			kind = "unknown"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Str("kind", kind).Msg("Ads operation failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	m.stats.record(op, kind, cacheHit)
	metrics.RecordOutcome(op, kind, cacheHit)
}
