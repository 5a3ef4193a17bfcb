// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/auth"
	"github.com/tomtom215/adsgate/internal/cache"
	"github.com/tomtom215/adsgate/internal/config"
	"github.com/tomtom215/adsgate/internal/googleads"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/pool"
	"github.com/tomtom215/adsgate/internal/ratelimit"
)

const tracerName = "github.com/tomtom215/adsgate/internal/manager"

// Option customizes New.
type Option func(*options)

type options struct {
	shared     cache.SharedStore
	factory    pool.ClientFactory
	oauth      auth.OAuthClient
	publisher  message.Publisher
	subscriber message.Subscriber
	clock      func() time.Time
	sleep      Sleeper
	httpClient *http.Client
}

// WithSharedStore replaces the shared cache tier selected by
// cfg.Cache.Backend.
func WithSharedStore(s cache.SharedStore) Option {
	return func(o *options) { o.shared = s }
}

// WithClientFactory replaces the REST client factory.
func WithClientFactory(f pool.ClientFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithOAuthClient replaces the Google token endpoint client.
func WithOAuthClient(c auth.OAuthClient) Option {
	return func(o *options) { o.oauth = c }
}

// WithEventBus routes token events through an external bus. Without it
// the manager creates and owns an in-process bus.
func WithEventBus(pub message.Publisher, sub message.Subscriber) Option {
	return func(o *options) {
		o.publisher = pub
		o.subscriber = sub
	}
}

// WithClock overrides time.Now for every collaborator.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithSleeper overrides the wait between retry attempts.
func WithSleeper(s Sleeper) Option {
	return func(o *options) { o.sleep = s }
}

// WithHTTPClient sets the HTTP client used for both the Ads API and the
// OAuth endpoints.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Manager runs Google Ads operations on behalf of users. It is safe for
// concurrent use; create one per process and share it.
type Manager struct {
	cfg     *config.Config
	caching bool

	cache   *cache.AdvancedCache
	tokens  *auth.TokenManager
	pool    *pool.Pool
	limiter *ratelimit.Limiter
	breaker *breaker
	backoff Backoff
	tracer  trace.Tracer

	now   func() time.Time
	sleep Sleeper
	stats *statsRecorder

	ownedBus    interface{ Close() error }
	cancelWatch context.CancelFunc
	closeOnce   sync.Once
}

// New validates cfg and wires every collaborator. It fails with a
// configuration error when the developer token or the OAuth client
// credentials are missing. The token sweep loop is not started; call
// Start or supervise Tokens().
func New(cfg *config.Config, opts ...Option) (*Manager, error) {
	const op = "manager.New"
	if cfg == nil {
		return nil, adserrors.New(adserrors.KindConfiguration, op, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepContext
	}

	shared := o.shared
	if shared == nil {
		shared = openSharedStore(cfg)
	}
	responses := cache.New(cache.Options{
		MaxEntries:      cfg.Cache.MaxEntries,
		KeyPrefix:       cfg.Cache.KeyPrefix,
		CleanupInterval: cfg.Cache.CleanupInterval,
		Shared:          shared,
		Clock:           o.clock,
	})

	m := &Manager{
		cfg:     cfg,
		caching: cfg.Cache.Enabled,
		cache:   responses,
		limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			PollInterval:      cfg.RateLimit.PollInterval,
		}),
		breaker: newBreaker(cfg.Breaker),
		backoff: BackoffFromConfig(cfg.Retry),
		tracer:  otel.Tracer(tracerName),
		now:     o.clock,
		sleep:   o.sleep,
		stats:   newStatsRecorder(),
	}

	encryptor, err := newEncryptor(cfg.Token)
	if err != nil {
		_ = responses.Close()
		return nil, adserrors.Wrap(adserrors.KindConfiguration, op, "token encryption", err)
	}

	pub, sub := o.publisher, o.subscriber
	if pub == nil || sub == nil {
		bus, err := openEventBus(cfg.Events)
		if err != nil {
			_ = responses.Close()
			return nil, adserrors.Wrap(adserrors.KindConfiguration, op, "token event bus", err)
		}
		m.ownedBus = bus
		pub, sub = bus, bus
	}

	oauthClient := o.oauth
	if oauthClient == nil {
		oauthClient = auth.NewOAuthClient(cfg.OAuth, o.httpClient)
	}
	m.tokens, err = auth.NewTokenManager(auth.TokenManagerConfig{
		OAuth:          oauthClient,
		Cache:          responses,
		Encryptor:      encryptor,
		Events:         pub,
		ExpiryBuffer:   cfg.Token.ExpiryBuffer,
		SweepInterval:  cfg.Token.SweepInterval,
		RefreshHorizon: cfg.Token.RefreshHorizon,
		RefreshTimeout: cfg.Token.RefreshTimeout,
		CacheTTL:       cfg.Cache.TTL.Tokens,
		Clock:          o.clock,
	})
	if err != nil {
		_ = m.closeOwned()
		return nil, err
	}

	factory := o.factory
	if factory == nil {
		factory = restClientFactory(cfg.Ads, o.httpClient)
	}
	m.pool, err = pool.New(pool.Config{
		Capacity:        cfg.Pool.Capacity,
		ProbeInterval:   cfg.Pool.ProbeInterval,
		DeveloperToken:  cfg.Ads.DeveloperToken,
		LoginCustomerID: cfg.Ads.LoginCustomerID,
		Factory:         factory,
		Tokens:          m.tokens,
		Clock:           o.clock,
	})
	if err != nil {
		_ = m.closeOwned()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	if err := m.pool.WatchTokenEvents(watchCtx, sub); err != nil {
		cancel()
		m.pool.Close()
		_ = m.closeOwned()
		return nil, err
	}
	m.cancelWatch = cancel

	logging.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Str("events_backend", cfg.Events.Backend).
		Bool("caching", m.caching).
		Bool("token_encryption", encryptor.IsEnabled()).
		Int("requests_per_second", cfg.RateLimit.RequestsPerSecond).
		Int("max_retries", cfg.Retry.MaxRetries).
		Str("retry_strategy", string(m.backoff.Strategy)).
		Msg("Ads API manager initialized")
	return m, nil
}

func restClientFactory(ads config.AdsConfig, hc *http.Client) pool.ClientFactory {
	clientCfg := googleads.ClientConfig{
		BaseURL:    ads.BaseURL,
		APIVersion: ads.APIVersion,
		Timeout:    ads.RequestTimeout,
		HTTPClient: hc,
	}
	return func(_ context.Context, creds googleads.Credentials) (googleads.Service, error) {
		client, err := googleads.NewClient(clientCfg, creds)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

type eventBus interface {
	message.Publisher
	message.Subscriber
}

// openEventBus returns the process-local bus unless NATS is configured.
func openEventBus(cfg config.EventsConfig) (eventBus, error) {
	if cfg.Backend != "nats" {
		return auth.NewEventBus(), nil
	}
	bus, err := auth.NewNATSEventBus(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("url", cfg.NATSURL).Msg("Token events shared over NATS")
	return bus, nil
}

// openSharedStore returns the configured second tier, or nil. A store
// that cannot be opened leaves the cache in-process only.
func openSharedStore(cfg *config.Config) cache.SharedStore {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(cache.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Username:    cfg.Redis.Username,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
	case "badger":
		store, err := cache.OpenBadgerStore(cfg.Badger.Path, cfg.Badger.InMemory)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Badger.Path).Msg("Could not open Badger cache; continuing with in-process caching only")
			return nil
		}
		return store
	default:
		return nil
	}
}

// newEncryptor returns nil when encryption is disabled. An enabled
// encryptor without a configured key gets a fresh key that is logged so
// an operator can pin it.
func newEncryptor(cfg config.TokenConfig) (*auth.TokenEncryptor, error) {
	if !cfg.EncryptionEnabled {
		return nil, nil
	}
	key := cfg.EncryptionKey
	if key == "" {
		generated, err := auth.GenerateEncryptionKey()
		if err != nil {
			return nil, err
		}
		key = generated
		logging.Warn().
			Str("generated_key", key).
			Msg("TOKEN_ENCRYPTION_KEY is not set; generated a key for this process. Set TOKEN_ENCRYPTION_KEY to this value to read stored tokens after a restart")
	}
	return auth.NewTokenEncryptor(&auth.TokenEncryptorConfig{MasterKey: key})
}

// Start launches the background token sweep.
func (m *Manager) Start() {
	m.tokens.Start()
}

// Tokens exposes the token manager for supervision.
func (m *Manager) Tokens() *auth.TokenManager {
	return m.tokens
}

// GetClient returns a pooled client for (userID, customerID).
func (m *Manager) GetClient(ctx context.Context, userID, customerID string, forceNew bool) (googleads.Service, error) {
	return m.pool.GetClient(ctx, userID, customerID, forceNew)
}

// StoreUserToken stores the OAuth tokens obtained for userID.
func (m *Manager) StoreUserToken(ctx context.Context, userID string, p auth.TokenPayload) (*auth.TokenRecord, error) {
	return m.tokens.StoreTokenPayload(ctx, userID, p)
}

// ExchangeAuthorizationCode trades an OAuth authorization code for tokens
// and stores them for userID.
func (m *Manager) ExchangeAuthorizationCode(ctx context.Context, userID, code string) (*auth.TokenRecord, error) {
	return m.tokens.ExchangeCode(ctx, userID, code)
}

// RevokeUserToken revokes userID's tokens and drops their pooled
// clients. The local state is removed even when the remote revoke fails;
// that failure is still returned.
func (m *Manager) RevokeUserToken(ctx context.Context, userID string) error {
	err := m.tokens.RevokeToken(ctx, userID)
	m.pool.EvictUser(userID)
	return err
}

// Close stops background work and releases the cache tiers. It is safe to
// call more than once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.tokens.Stop()
		if m.cancelWatch != nil {
			m.cancelWatch()
		}
		m.pool.Close()
		err = m.closeOwned()
		logging.Info().Msg("Ads API manager closed")
	})
	return err
}

func (m *Manager) closeOwned() error {
	var err error
	if m.ownedBus != nil {
		err = m.ownedBus.Close()
	}
	if cerr := m.cache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
