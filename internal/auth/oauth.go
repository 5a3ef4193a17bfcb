// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/tomtom215/adsgate/internal/config"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// OAuthClient talks to the OAuth token endpoint. The endpoint is treated
// as a black box that trades a refresh token or an authorization code for
// a fresh access token.
type OAuthClient interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Revoke(ctx context.Context, token string) error
}

// GoogleOAuthClient is the x/oauth2 backed OAuthClient.
type GoogleOAuthClient struct {
	cfg        *oauth2.Config
	revokeURL  string
	httpClient *http.Client
}

// NewOAuthClient builds an OAuthClient from configuration. A nil
// httpClient gets an instrumented default with a 30 second timeout.
func NewOAuthClient(cfg config.OAuthConfig, httpClient *http.Client) *GoogleOAuthClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &GoogleOAuthClient{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		revokeURL:  cfg.RevokeURL,
		httpClient: httpClient,
	}
}

func (c *GoogleOAuthClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Refresh trades a refresh token for a new access token.
func (c *GoogleOAuthClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := c.cfg.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return tok, nil
}

// Exchange trades an authorization code for tokens. Offline access is
// requested at consent time, see AuthCodeURL.
func (c *GoogleOAuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.cfg.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// AuthCodeURL returns the consent URL for state.
func (c *GoogleOAuthClient) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Revoke invalidates token at the provider.
func (c *GoogleOAuthClient) Revoke(ctx context.Context, token string) error {
	if c.revokeURL == "" {
		return fmt.Errorf("revoke token: no revoke URL configured")
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort
		return fmt.Errorf("revoke failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
