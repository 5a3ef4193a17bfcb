// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	sweeps, starts, stops atomic.Int32
}

func (f *fakeSweeper) Start() { f.starts.Add(1) }
func (f *fakeSweeper) Stop()  { f.stops.Add(1) }
func (f *fakeSweeper) SweepOnce(context.Context) (int, int) {
	f.sweeps.Add(1)
	return 0, 0
}

func TestTokenSweeperServiceLifecycle(t *testing.T) {
	sw := &fakeSweeper{}
	svc := NewTokenSweeperService(sw)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for sw.starts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if sw.sweeps.Load() != 1 || sw.starts.Load() != 1 || sw.stops.Load() != 1 {
		t.Errorf("sweeps=%d starts=%d stops=%d", sw.sweeps.Load(), sw.starts.Load(), sw.stops.Load())
	}
	if svc.String() != "token-sweeper" {
		t.Errorf("String() = %q", svc.String())
	}
}
