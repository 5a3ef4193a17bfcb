// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/adsgate/internal/logging"
)

// Sweeper is the token manager's background loop. *auth.TokenManager
// satisfies it.
type Sweeper interface {
	Start()
	Stop()
	SweepOnce(ctx context.Context) (refreshed, removed int)
}

// TokenSweeperService runs the token sweep under supervision. One sweep
// runs immediately on start so tokens that expired while the process was
// down are handled before the first tick.
type TokenSweeperService struct {
	sweeper      Sweeper
	startTimeout time.Duration
}

// NewTokenSweeperService wraps s.
func NewTokenSweeperService(s Sweeper) *TokenSweeperService {
	return &TokenSweeperService{sweeper: s, startTimeout: 30 * time.Second}
}

// Serve implements suture.Service.
func (s *TokenSweeperService) Serve(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, s.startTimeout)
	refreshed, removed := s.sweeper.SweepOnce(sweepCtx)
	cancel()
	logging.Debug().Int("refreshed", refreshed).Int("removed", removed).Msg("Startup token sweep finished")

	s.sweeper.Start()
	<-ctx.Done()
	s.sweeper.Stop()
	return ctx.Err()
}

// String names the service in supervisor events.
func (s *TokenSweeperService) String() string {
	return "token-sweeper"
}
