// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordOutcome(t *testing.T) {
	op := "TestRecordOutcome"

	RecordOutcome(op, "", true)
	RecordOutcome(op, "", false)
	RecordOutcome(op, "rate_limit", false)
	RecordOutcome(op, "rate_limit", false)

	if got := testutil.ToFloat64(AdsRequests.WithLabelValues(op, "cache_hit")); got != 1 {
		t.Errorf("cache_hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(AdsRequests.WithLabelValues(op, "success")); got != 1 {
		t.Errorf("success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(AdsRequests.WithLabelValues(op, "error")); got != 2 {
		t.Errorf("error = %v, want 2", got)
	}
	if got := testutil.ToFloat64(AdsErrors.WithLabelValues(op, "rate_limit")); got != 2 {
		t.Errorf("rate_limit errors = %v, want 2", got)
	}
}

func TestRecordRemoteCall(t *testing.T) {
	op := "TestRecordRemoteCall"
	before := testutil.CollectAndCount(AdsRemoteDuration)

	RecordRemoteCall(op, 120*time.Millisecond)

	if after := testutil.CollectAndCount(AdsRemoteDuration); after != before+1 {
		t.Errorf("histogram series = %d, want %d", after, before+1)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	route := "/test/{id}"

	RecordHTTPRequest("GET", route, "200", 20*time.Millisecond)
	RecordHTTPRequest("GET", route, "200", 40*time.Millisecond)

	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", route, "200")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}

	var m dto.Metric
	if err := HTTPDuration.WithLabelValues("GET", route).(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	h := m.GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 0.059 || sum > 0.061 {
		t.Errorf("sample sum = %v, want 0.06", sum)
	}
}
