// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

type sample struct {
	CustomerID string   `validate:"required,customer_id"`
	Status     string   `validate:"omitempty,gaql_enum"`
	AdGroupID  string   `validate:"omitempty,gaql_id"`
	Statuses   []string `validate:"dive,oneof=ENABLED PAUSED REMOVED"`
	Limit      int      `validate:"gte=0,lte=10000"`
	StartDate  string   `validate:"omitempty,datetime=2006-01-02"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantTag string
	}{
		{name: "valid", in: sample{CustomerID: "123-456-7890", Status: "ENABLED", Statuses: []string{"PAUSED"}, StartDate: "2026-01-31"}},
		{name: "missing customer", in: sample{}, wantTag: "required"},
		{name: "customer letters", in: sample{CustomerID: "12a"}, wantTag: "customer_id"},
		{name: "trailing dash", in: sample{CustomerID: "123-"}, wantTag: "customer_id"},
		{name: "lower case enum", in: sample{CustomerID: "1", Status: "enabled"}, wantTag: "gaql_enum"},
		{name: "injected enum", in: sample{CustomerID: "1", Status: "ENABLED' OR 1=1"}, wantTag: "gaql_enum"},
		{name: "bad id", in: sample{CustomerID: "1", AdGroupID: "12 OR 1"}, wantTag: "gaql_id"},
		{name: "bad status list", in: sample{CustomerID: "1", Statuses: []string{"ENABLED", "DELETED"}}, wantTag: "oneof"},
		{name: "limit too large", in: sample{CustomerID: "1", Limit: 10001}, wantTag: "lte"},
		{name: "bad date", in: sample{CustomerID: "1", StartDate: "31/01/2026"}, wantTag: "datetime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.in)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected %s failure", tt.wantTag)
			}
			if got := verr.Fields[0].Tag; got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestValidateReturnsDataValidationKind(t *testing.T) {
	err := Validate("googleads.GetCampaigns", &sample{CustomerID: "abc"})
	if !adserrors.IsKind(err, adserrors.KindDataValidation) {
		t.Fatalf("err = %v, want data_validation", err)
	}
	if !strings.Contains(err.Error(), "numeric customer ID") {
		t.Errorf("message not translated: %v", err)
	}
	if err := Validate("op", &sample{CustomerID: "42"}); err != nil {
		t.Errorf("valid struct: %v", err)
	}
}

func TestNormalizeCustomerID(t *testing.T) {
	if got := NormalizeCustomerID(" 123-456-7890 "); got != "1234567890" {
		t.Errorf("NormalizeCustomerID = %q", got)
	}
}
