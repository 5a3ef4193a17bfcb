// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/cache"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/metrics"
)

// TokenNamespace is the cache namespace holding sealed token records.
const TokenNamespace = "tokens"

const (
	defaultExpiryBuffer   = 5 * time.Minute
	defaultSweepInterval  = 5 * time.Minute
	defaultRefreshHorizon = 10 * time.Minute
	defaultRefreshTimeout = 15 * time.Second
	defaultTokenCacheTTL  = time.Hour

	triggerDemand = "demand"
	triggerSweep  = "sweep"
)

// TokenManagerConfig wires a TokenManager. Only OAuth is required.
type TokenManagerConfig struct {
	OAuth OAuthClient
	// Cache persists sealed records so other instances can read them.
	Cache     *cache.AdvancedCache
	Encryptor *TokenEncryptor
	Events    message.Publisher

	ExpiryBuffer   time.Duration
	SweepInterval  time.Duration
	RefreshHorizon time.Duration
	RefreshTimeout time.Duration
	// CacheTTL is the minimum lifetime of a cached record.
	CacheTTL time.Duration

	Clock func() time.Time
}

// TokenManager owns the OAuth tokens of every user.
//
// Records are held sealed (encrypted when an encryptor is configured) in
// an in-memory index backed by the cache. Callers only ever see plaintext
// copies. Refreshes for the same user are coalesced into one remote call.
type TokenManager struct {
	oauth     OAuthClient
	cache     *cache.AdvancedCache
	encryptor *TokenEncryptor
	events    message.Publisher

	buffer   time.Duration
	sweep    time.Duration
	horizon  time.Duration
	timeout  time.Duration
	cacheTTL time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	records map[string]*TokenRecord
	// gens counts local writes and removals per user. A refresh only
	// lands if nothing else touched the user since it read the record.
	gens map[string]uint64

	flight singleflight.Group

	loopMu  sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewTokenManager creates a TokenManager. The sweep loop is not started;
// call Start.
func NewTokenManager(cfg TokenManagerConfig) (*TokenManager, error) {
	if cfg.OAuth == nil {
		return nil, adserrors.New(adserrors.KindConfiguration, "auth.NewTokenManager", "OAuth client is required")
	}
	m := &TokenManager{
		oauth:     cfg.OAuth,
		cache:     cfg.Cache,
		encryptor: cfg.Encryptor,
		events:    cfg.Events,
		buffer:    orDefault(cfg.ExpiryBuffer, defaultExpiryBuffer),
		sweep:     orDefault(cfg.SweepInterval, defaultSweepInterval),
		horizon:   orDefault(cfg.RefreshHorizon, defaultRefreshHorizon),
		timeout:   orDefault(cfg.RefreshTimeout, defaultRefreshTimeout),
		cacheTTL:  orDefault(cfg.CacheTTL, defaultTokenCacheTTL),
		now:       cfg.Clock,
		records:   make(map[string]*TokenRecord),
		gens:      make(map[string]uint64),
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// StoreToken records rec for userID, replacing any previous record.
func (m *TokenManager) StoreToken(ctx context.Context, userID string, rec *TokenRecord) error {
	if userID == "" {
		return adserrors.New(adserrors.KindDataValidation, "auth.StoreToken", "user ID is required")
	}
	if rec == nil || rec.AccessToken == "" {
		return adserrors.New(adserrors.KindDataValidation, "auth.StoreToken", "access token is required")
	}
	rec = rec.Clone()
	rec.UserID = userID
	if _, err := m.put(ctx, rec, anyGeneration); err != nil {
		return err
	}
	m.publish(EventTokenStored, userID)
	logging.Ctx(ctx).Debug().Str("user_id", userID).Time("expires_at", rec.ExpiresAt).Msg("Stored OAuth token")
	return nil
}

// StoreTokenPayload stores the result of an OAuth callback.
func (m *TokenManager) StoreTokenPayload(ctx context.Context, userID string, p TokenPayload) (*TokenRecord, error) {
	rec := NewTokenRecord(userID, p, m.now())
	if err := m.StoreToken(ctx, userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ExchangeCode completes an authorization code handoff and stores the
// resulting tokens for userID.
func (m *TokenManager) ExchangeCode(ctx context.Context, userID, code string) (*TokenRecord, error) {
	if code == "" {
		return nil, adserrors.New(adserrors.KindDataValidation, "auth.ExchangeCode", "authorization code is required")
	}
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, adserrors.Wrap(adserrors.KindAuthentication, "auth.ExchangeCode", "authorization code exchange failed", err)
	}
	return m.StoreTokenPayload(ctx, userID, PayloadFromOAuth2(tok, m.now()))
}

// GetToken returns a plaintext copy of the user's token, or false when
// there is none or it expires within the safety buffer. A record that
// cannot be decrypted counts as absent.
func (m *TokenManager) GetToken(ctx context.Context, userID string) (*TokenRecord, bool) {
	rec, ok := m.lookup(ctx, userID)
	if !ok || rec.IsExpired(m.now(), m.buffer) {
		return nil, false
	}
	return rec, true
}

// ValidToken returns a usable token, refreshing it when needed.
func (m *TokenManager) ValidToken(ctx context.Context, userID string) (*TokenRecord, error) {
	if rec, ok := m.GetToken(ctx, userID); ok {
		return rec, nil
	}
	return m.RefreshToken(ctx, userID)
}

// RefreshToken obtains a fresh access token for userID. Concurrent calls
// for the same user share a single remote refresh. When the remote call
// fails the stored record is left unchanged.
func (m *TokenManager) RefreshToken(ctx context.Context, userID string) (*TokenRecord, error) {
	return m.refresh(ctx, userID, triggerDemand)
}

func (m *TokenManager) refresh(ctx context.Context, userID, trigger string) (*TokenRecord, error) {
	ch := m.flight.DoChan(userID, func() (any, error) {
		return m.doRefresh(userID, trigger)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenRecord).Clone(), nil
	case <-ctx.Done():
		return nil, adserrors.Wrap(adserrors.KindAuthentication, "auth.RefreshToken", "refresh abandoned", ctx.Err())
	}
}

// doRefresh runs detached from any single caller so one caller giving up
// does not fail the others waiting on the same flight.
func (m *TokenManager) doRefresh(userID, trigger string) (*TokenRecord, error) {
	const op = "auth.RefreshToken"
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	gen := m.generation(userID)
	current, ok := m.lookup(ctx, userID)
	if !ok {
		metrics.TokenRefreshes.WithLabelValues(trigger, "no_token").Inc()
		return nil, adserrors.Newf(adserrors.KindAuthentication, op, "no token stored for user %s", userID)
	}

	// Another flight may have refreshed it moments ago.
	if !current.ExpiresWithin(m.now(), m.freshness(trigger)) {
		metrics.TokenRefreshes.WithLabelValues(trigger, "fresh").Inc()
		return current, nil
	}
	if current.RefreshToken == "" {
		metrics.TokenRefreshes.WithLabelValues(trigger, "no_refresh_token").Inc()
		return nil, adserrors.Newf(adserrors.KindAuthentication, op, "no refresh token for user %s", userID)
	}

	tok, err := m.oauth.Refresh(ctx, current.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(trigger, "failed").Inc()
		logging.Warn().Err(err).Str("user_id", userID).Str("trigger", trigger).Msg("OAuth token refresh failed")
		return nil, adserrors.Wrap(adserrors.KindAuthentication, op, "token refresh failed", err)
	}

	next := current.refreshed(PayloadFromOAuth2(tok, m.now()), m.now())
	landed, err := m.put(ctx, next, gen)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(trigger, "failed").Inc()
		return nil, adserrors.Wrap(adserrors.KindAuthentication, op, "store refreshed token", err)
	}
	if !landed {
		metrics.TokenRefreshes.WithLabelValues(trigger, "superseded").Inc()
		return nil, m.discardRefresh(ctx, userID, tok.AccessToken)
	}
	metrics.TokenRefreshes.WithLabelValues(trigger, "ok").Inc()
	m.publish(EventTokenRefreshed, userID)
	logging.Info().
		Str("user_id", userID).
		Str("trigger", trigger).
		Int("refresh_count", next.RefreshCount).
		Msg("Refreshed OAuth token")
	return next, nil
}

// discardRefresh handles a refresh that finished after the user's token
// was revoked or replaced. A revoked user must not keep a live grant, so
// the token minted by the lost refresh is revoked at the provider too.
func (m *TokenManager) discardRefresh(ctx context.Context, userID, accessToken string) error {
	const op = "auth.RefreshToken"
	m.mu.RLock()
	_, replaced := m.records[userID]
	m.mu.RUnlock()
	if replaced {
		logging.Debug().Str("user_id", userID).Msg("Dropped refresh result; token was replaced meanwhile")
		return adserrors.Newf(adserrors.KindAuthentication, op, "token for user %s changed during refresh", userID)
	}

	if err := m.oauth.Revoke(ctx, accessToken); err != nil {
		metrics.TokenRevocations.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("user_id", userID).Msg("Could not revoke token minted during revocation")
	} else {
		metrics.TokenRevocations.WithLabelValues("ok").Inc()
	}
	return adserrors.Newf(adserrors.KindAuthentication, op, "token for user %s was revoked during refresh", userID)
}

// freshness is how far ahead a record must stay valid to skip a refresh.
func (m *TokenManager) freshness(trigger string) time.Duration {
	if trigger == triggerSweep {
		return m.horizon
	}
	return m.buffer
}

// RevokeToken revokes the user's token at the provider, best effort, and
// always removes it locally. The remote error, if any, is returned after
// the local delete.
func (m *TokenManager) RevokeToken(ctx context.Context, userID string) error {
	rec, ok := m.lookup(ctx, userID)
	m.remove(ctx, userID)
	m.publish(EventTokenRevoked, userID)

	if !ok {
		metrics.TokenRevocations.WithLabelValues("skipped").Inc()
		return nil
	}
	token := rec.RefreshToken
	if token == "" {
		token = rec.AccessToken
	}
	if err := m.oauth.Revoke(ctx, token); err != nil {
		metrics.TokenRevocations.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Remote token revocation failed; local token removed")
		return adserrors.Wrap(adserrors.KindNetwork, "auth.RevokeToken", "remote revocation failed", err)
	}
	metrics.TokenRevocations.WithLabelValues("ok").Inc()
	return nil
}

// Count returns the number of records in the in-memory index.
func (m *TokenManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// SweepOnce refreshes tokens that expire within the refresh horizon and
// drops records that are expired with no refresh token or cannot be
// decrypted. It returns the number of refreshed and removed records.
func (m *TokenManager) SweepOnce(ctx context.Context) (refreshed, removed int) {
	m.mu.RLock()
	sealed := make(map[string]*TokenRecord, len(m.records))
	for id, rec := range m.records {
		sealed[id] = rec
	}
	m.mu.RUnlock()

	now := m.now()
	for userID, s := range sealed {
		if ctx.Err() != nil {
			return refreshed, removed
		}
		rec, err := m.encryptor.Open(s)
		if err != nil {
			logging.Warn().Err(err).Str("user_id", userID).Msg("Dropping undecryptable token record")
			m.remove(ctx, userID)
			removed++
			continue
		}
		if !rec.ExpiresWithin(now, m.horizon) {
			continue
		}
		if rec.RefreshToken == "" {
			if !now.Before(rec.ExpiresAt) {
				m.remove(ctx, userID)
				removed++
			}
			continue
		}
		if _, err := m.refresh(ctx, userID, triggerSweep); err == nil {
			refreshed++
		}
	}
	if refreshed > 0 || removed > 0 {
		logging.Info().Int("refreshed", refreshed).Int("removed", removed).Msg("Token sweep completed")
	}
	return refreshed, removed
}

// Start launches the sweep loop. It is a no-op when already running.
func (m *TokenManager) Start() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.running {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.running = true
	go m.sweepLoop(m.stopCh, m.doneCh)
}

// Stop halts the sweep loop and waits for an in-flight sweep to return.
func (m *TokenManager) Stop() {
	m.loopMu.Lock()
	if !m.running {
		m.loopMu.Unlock()
		return
	}
	close(m.stopCh)
	done := m.doneCh
	m.running = false
	m.loopMu.Unlock()
	<-done
}

func (m *TokenManager) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.SweepOnce(ctx)
		}
	}
}

// lookup returns a plaintext copy regardless of expiry, checking memory
// first and then the cache.
func (m *TokenManager) lookup(ctx context.Context, userID string) (*TokenRecord, bool) {
	m.mu.RLock()
	sealed, ok := m.records[userID]
	m.mu.RUnlock()

	if !ok && m.cache != nil {
		var hit bool
		sealed, hit = cache.GetJSON[*TokenRecord](ctx, m.cache, TokenNamespace, userID)
		if hit && sealed != nil {
			m.mu.Lock()
			if _, exists := m.records[userID]; !exists {
				m.records[userID] = sealed
			}
			metrics.TokensStored.Set(float64(len(m.records)))
			m.mu.Unlock()
			ok = true
		}
	}
	if !ok || sealed == nil {
		return nil, false
	}

	rec, err := m.encryptor.Open(sealed)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Stored token could not be decrypted; treating as absent")
		return nil, false
	}
	return rec, true
}

// anyGeneration makes put unconditional.
const anyGeneration = ^uint64(0)

func (m *TokenManager) generation(userID string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[userID]
}

// put stores rec. Unless want is anyGeneration, the write is skipped and
// put reports false when the user's generation moved past want.
func (m *TokenManager) put(ctx context.Context, rec *TokenRecord, want uint64) (bool, error) {
	sealed, err := m.encryptor.Seal(rec)
	if err != nil {
		return false, adserrors.Wrap(adserrors.KindConfiguration, "auth.StoreToken", "seal token", err)
	}

	m.mu.Lock()
	if want != anyGeneration && m.gens[rec.UserID] != want {
		m.mu.Unlock()
		return false, nil
	}
	m.gens[rec.UserID]++
	gen := m.gens[rec.UserID]
	m.records[rec.UserID] = sealed
	metrics.TokensStored.Set(float64(len(m.records)))
	m.mu.Unlock()

	if m.cache != nil {
		// Kept at least cacheTTL so the refresh token stays readable from
		// other instances after the access token expires.
		ttl := max(rec.ExpiresAt.Sub(m.now()), m.cacheTTL)
		cache.SetJSON(ctx, m.cache, TokenNamespace, rec.UserID, sealed, ttl)
		// A remove that ran while the cache write was in flight may have
		// deleted before we wrote; make sure its delete wins.
		m.mu.RLock()
		_, present := m.records[rec.UserID]
		stale := m.gens[rec.UserID] != gen && !present
		m.mu.RUnlock()
		if stale {
			m.cache.Delete(ctx, TokenNamespace, rec.UserID)
		}
	}
	return true, nil
}

func (m *TokenManager) remove(ctx context.Context, userID string) {
	m.mu.Lock()
	delete(m.records, userID)
	m.gens[userID]++
	metrics.TokensStored.Set(float64(len(m.records)))
	m.mu.Unlock()

	if m.cache != nil {
		m.cache.Delete(ctx, TokenNamespace, userID)
	}
}

