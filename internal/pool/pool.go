// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package pool keeps authenticated Google Ads clients per (user, customer)
// pair so repeated operations reuse one client instead of rebuilding it.
package pool

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jellydator/ttlcache/v3"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/auth"
	"github.com/tomtom215/adsgate/internal/googleads"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
	"github.com/tomtom215/adsgate/internal/validation"
)

// DefaultCustomer is the pool key used when no customer ID is given.
const DefaultCustomer = "default"

const defaultCapacity = 100

// ClientFactory builds a remote client bound to creds.
type ClientFactory func(ctx context.Context, creds googleads.Credentials) (googleads.Service, error)

// TokenSource hands out usable access tokens. *auth.TokenManager
// satisfies it.
type TokenSource interface {
	ValidToken(ctx context.Context, userID string) (*auth.TokenRecord, error)
}

// Config wires a Pool.
type Config struct {
	Capacity int
	// ProbeInterval skips the liveness probe for handles probed within
	// this interval. Zero probes on every reuse.
	ProbeInterval   time.Duration
	DeveloperToken  string
	LoginCustomerID string
	Factory         ClientFactory
	Tokens          TokenSource
	Clock           func() time.Time
}

// Key identifies a pooled handle.
type Key struct {
	UserID     string
	CustomerID string
}

func keyFor(userID, customerID string) Key {
	customerID = validation.NormalizeCustomerID(customerID)
	if customerID == "" {
		customerID = DefaultCustomer
	}
	return Key{UserID: userID, CustomerID: customerID}
}

type handle struct {
	client    googleads.Service
	createdAt time.Time
}

// Pool is safe for concurrent use. The lock is never held across a
// network call.
type Pool struct {
	capacity int
	devToken string
	login    string
	factory  ClientFactory
	tokens   TokenSource
	now      func() time.Time

	mu      sync.Mutex
	handles map[Key]*handle

	probed *ttlcache.Cache[Key, struct{}]

	closeOnce sync.Once
}

// New creates a Pool.
func New(cfg Config) (*Pool, error) {
	const op = "pool.New"
	if cfg.Factory == nil || cfg.Tokens == nil {
		return nil, adserrors.New(adserrors.KindConfiguration, op, "client factory and token source are required")
	}
	if cfg.DeveloperToken == "" {
		return nil, adserrors.New(adserrors.KindConfiguration, op, "developer token is required")
	}
	p := &Pool{
		capacity: cfg.Capacity,
		devToken: cfg.DeveloperToken,
		login:    validation.NormalizeCustomerID(cfg.LoginCustomerID),
		factory:  cfg.Factory,
		tokens:   cfg.Tokens,
		now:      cfg.Clock,
		handles:  make(map[Key]*handle),
	}
	if p.capacity <= 0 {
		p.capacity = defaultCapacity
	}
	if p.now == nil {
		p.now = time.Now
	}
	if cfg.ProbeInterval > 0 {
		p.probed = ttlcache.New(
			ttlcache.WithTTL[Key, struct{}](cfg.ProbeInterval),
			ttlcache.WithDisableTouchOnHit[Key, struct{}](),
		)
		go p.probed.Start()
	}
	return p, nil
}

// GetClient returns a live client for (userID, customerID). A pooled
// client is probed before reuse and rebuilt when the probe fails; forceNew
// skips the pool entirely. Every failure is an authentication error and no
// partially built client is ever returned.
func (p *Pool) GetClient(ctx context.Context, userID, customerID string, forceNew bool) (googleads.Service, error) {
	const op = "pool.GetClient"
	if userID == "" {
		return nil, adserrors.New(adserrors.KindAuthentication, op, "user ID is required")
	}
	key := keyFor(userID, customerID)

	if !forceNew {
		if client, ok := p.reuse(ctx, key); ok {
			return client, nil
		}
	}

	tok, err := p.tokens.ValidToken(ctx, userID)
	if err != nil {
		return nil, adserrors.Wrap(adserrors.KindAuthentication, op, "no valid token for user "+userID, err)
	}

	creds := googleads.Credentials{
		DeveloperToken:  p.devToken,
		AccessToken:     tok.AccessToken,
		LoginCustomerID: p.login,
	}
	if key.CustomerID != DefaultCustomer {
		creds.CustomerID = key.CustomerID
	}
	client, err := p.factory(ctx, creds)
	if err != nil {
		return nil, adserrors.Wrap(adserrors.KindAuthentication, op, "build Ads client", err)
	}
	if client == nil {
		return nil, adserrors.New(adserrors.KindAuthentication, op, "client factory returned no client")
	}

	p.insert(key, client)
	logging.Ctx(ctx).Debug().
		Str("user_id", key.UserID).
		Str("customer_id", key.CustomerID).
		Msg("Created Ads client")
	return client, nil
}

func (p *Pool) reuse(ctx context.Context, key Key) (googleads.Service, bool) {
	p.mu.Lock()
	h, ok := p.handles[key]
	p.mu.Unlock()
	if !ok {
		return nil, false
	}

	if p.probed != nil && p.probed.Has(key) {
		return h.client, true
	}
	if err := h.client.Ping(ctx); err != nil {
		logging.Ctx(ctx).Info().Err(err).
			Str("user_id", key.UserID).
			Str("customer_id", key.CustomerID).
			Msg("Pooled Ads client failed liveness probe; rebuilding")
		p.evictIf(key, h, "probe_failed")
		return nil, false
	}
	p.markProbed(key)
	return h.client, true
}

func (p *Pool) insert(key Key, client googleads.Service) {
	p.mu.Lock()
	p.handles[key] = &handle{client: client, createdAt: p.now()}
	evicted := p.evictOldestLocked()
	size := len(p.handles)
	p.mu.Unlock()

	p.markProbed(key)
	for _, k := range evicted {
		p.forgetProbe(k)
	}
	metrics.PoolSize.Set(float64(size))
}

// evictOldestLocked drops the oldest quarter of handles by creation time
// once the pool is over capacity.
func (p *Pool) evictOldestLocked() []Key {
	if len(p.handles) <= p.capacity {
		return nil
	}
	keys := make([]Key, 0, len(p.handles))
	for k := range p.handles {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return p.handles[a].createdAt.Compare(p.handles[b].createdAt)
	})

	n := max(len(keys)/4, len(keys)-p.capacity, 1)
	for _, k := range keys[:n] {
		delete(p.handles, k)
	}
	metrics.PoolEvictions.WithLabelValues("capacity").Add(float64(n))
	return keys[:n]
}

// evictIf removes key only if it still maps to h, so a concurrent rebuild
// is not thrown away.
func (p *Pool) evictIf(key Key, h *handle, reason string) {
	p.mu.Lock()
	removed := false
	if cur, ok := p.handles[key]; ok && cur == h {
		delete(p.handles, key)
		removed = true
	}
	size := len(p.handles)
	p.mu.Unlock()

	if removed {
		p.forgetProbe(key)
		metrics.PoolEvictions.WithLabelValues(reason).Inc()
		metrics.PoolSize.Set(float64(size))
	}
}

// Evict drops the handle for (userID, customerID).
func (p *Pool) Evict(userID, customerID string) {
	key := keyFor(userID, customerID)
	p.mu.Lock()
	h := p.handles[key]
	p.mu.Unlock()
	if h != nil {
		p.evictIf(key, h, "manual")
	}
}

// EvictUser drops every handle belonging to userID and returns how many
// were removed.
func (p *Pool) EvictUser(userID string) int {
	return p.evictUserBefore(userID, time.Time{})
}

// evictUserBefore drops userID's handles built before cutoff. A zero
// cutoff drops them all.
func (p *Pool) evictUserBefore(userID string, cutoff time.Time) int {
	p.mu.Lock()
	var removed []Key
	for k, h := range p.handles {
		if k.UserID != userID {
			continue
		}
		if !cutoff.IsZero() && !h.createdAt.Before(cutoff) {
			continue
		}
		delete(p.handles, k)
		removed = append(removed, k)
	}
	size := len(p.handles)
	p.mu.Unlock()

	for _, k := range removed {
		p.forgetProbe(k)
	}
	if len(removed) > 0 {
		metrics.PoolEvictions.WithLabelValues("user").Add(float64(len(removed)))
		metrics.PoolSize.Set(float64(size))
	}
	return len(removed)
}

// Size returns the number of pooled handles.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Keys returns the pooled keys, oldest first.
func (p *Pool) Keys() []Key {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]Key, 0, len(p.handles))
	for k := range p.handles {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return p.handles[a].createdAt.Compare(p.handles[b].createdAt)
	})
	return keys
}

// WatchTokenEvents evicts a user's handles whenever their token is
// stored, refreshed or revoked, so no client keeps a stale access token.
// It returns once the subscription is established; consumption stops when
// ctx is cancelled or the subscriber is closed.
func (p *Pool) WatchTokenEvents(ctx context.Context, sub message.Subscriber) error {
	msgs, err := sub.Subscribe(ctx, auth.TokenTopic)
	if err != nil {
		return adserrors.Wrap(adserrors.KindConfiguration, "pool.WatchTokenEvents", "subscribe to token events", err)
	}
	go func() {
		for msg := range msgs {
			ev, err := auth.DecodeTokenEvent(msg)
			msg.Ack()
			if err != nil {
				logging.Warn().Err(err).Msg("Ignoring malformed token event")
				continue
			}
			// Handles built at or after the event already use the new token;
			// GetClient's own refresh publishes before its handle is stored.
			if n := p.evictUserBefore(ev.UserID, ev.At); n > 0 {
				logging.Debug().Str("user_id", ev.UserID).Str("event", ev.Type).Int("evicted", n).Msg("Evicted pooled clients after token change")
			}
		}
	}()
	return nil
}

// Close drops every handle and stops the probe memo.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.handles = make(map[Key]*handle)
		p.mu.Unlock()
		metrics.PoolSize.Set(0)
		if p.probed != nil {
			p.probed.Stop()
			p.probed.DeleteAll()
		}
	})
}

func (p *Pool) markProbed(key Key) {
	if p.probed != nil {
		p.probed.Set(key, struct{}{}, ttlcache.DefaultTTL)
	}
}

func (p *Pool) forgetProbe(key Key) {
	if p.probed != nil {
		p.probed.Delete(key)
	}
}
