// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenRecord is the OAuth state held for one user. Outside the manager it
// only ever circulates as a plaintext copy.
type TokenRecord struct {
	UserID          string    `json:"user_id"`
	CustomerID      string    `json:"customer_id,omitempty"`
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token,omitempty"`
	TokenType       string    `json:"token_type"`
	Scope           string    `json:"scope,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	RefreshCount    int       `json:"refresh_count"`
	LastRefreshedAt time.Time `json:"last_refreshed_at,omitempty"`
	Encrypted       bool      `json:"encrypted"`
}

// TokenPayload is what the OAuth callback hands over after a code
// exchange, in token endpoint terms.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the lifetime in seconds.
	ExpiresIn  int64  `json:"expires_in"`
	Scope      string `json:"scope,omitempty"`
	TokenType  string `json:"token_type,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// NewTokenRecord builds a record with ExpiresAt = CreatedAt + ExpiresIn.
func NewTokenRecord(userID string, p TokenPayload, now time.Time) *TokenRecord {
	tokenType := p.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &TokenRecord{
		UserID:       userID,
		CustomerID:   p.CustomerID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    tokenType,
		Scope:        p.Scope,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(p.ExpiresIn) * time.Second),
	}
}

// PayloadFromOAuth2 converts a token endpoint response.
func PayloadFromOAuth2(tok *oauth2.Token, now time.Time) TokenPayload {
	p := TokenPayload{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	switch {
	case tok.ExpiresIn > 0:
		p.ExpiresIn = tok.ExpiresIn
	case !tok.Expiry.IsZero():
		p.ExpiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		p.Scope = scope
	}
	return p
}

// ExpiresWithin reports whether the token expires before now+d.
func (r *TokenRecord) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Add(d).Before(r.ExpiresAt)
}

// IsExpired applies the safety buffer: a token inside the buffer is
// already treated as expired.
func (r *TokenRecord) IsExpired(now time.Time, buffer time.Duration) bool {
	return r.ExpiresWithin(now, buffer)
}

// Clone returns a copy; nil stays nil.
func (r *TokenRecord) Clone() *TokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// refreshed derives the record that replaces r after a successful refresh.
// A token endpoint that does not rotate the refresh token keeps the old one.
func (r *TokenRecord) refreshed(p TokenPayload, now time.Time) *TokenRecord {
	next := NewTokenRecord(r.UserID, p, now)
	next.CustomerID = r.CustomerID
	if next.RefreshToken == "" {
		next.RefreshToken = r.RefreshToken
	}
	if next.Scope == "" {
		next.Scope = r.Scope
	}
	next.RefreshCount = r.RefreshCount + 1
	next.LastRefreshedAt = now
	return next
}
