// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package googleads

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

func TestCampaignsQuery(t *testing.T) {
	q, err := CampaignsQuery(CampaignFilter{
		Statuses:     []string{"ENABLED", "PAUSED", "ENABLED"},
		NameContains: "Brand's 50%",
		Limit:        25,
	})
	if err != nil {
		t.Fatalf("CampaignsQuery: %v", err)
	}
	for _, want := range []string{
		"FROM campaign",
		"campaign.status IN ('ENABLED', 'PAUSED')",
		`campaign.name LIKE '%Brand\'s 50\%%'`,
		"LIMIT 25",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if strings.Contains(q, "metrics.") {
		t.Error("metrics selected without IncludeMetrics")
	}

	q, _ = CampaignsQuery(CampaignFilter{IncludeMetrics: true})
	if !strings.Contains(q, "metrics.clicks") || !strings.Contains(q, "campaign.status != 'REMOVED'") {
		t.Errorf("unexpected default query:\n%s", q)
	}
}

func TestQueryBuildersRejectBadFilters(t *testing.T) {
	checks := map[string]error{}
	_, checks["campaign status"] = CampaignsQuery(CampaignFilter{Statuses: []string{"enabled"}})
	_, checks["ad group campaign id"] = AdGroupsQuery(AdGroupFilter{CampaignID: "1 OR 1=1"})
	_, checks["keyword match type"] = KeywordsQuery(KeywordFilter{MatchTypes: []string{"FUZZY"}})
	_, checks["report date format"] = ReportQuery(ReportRequest{StartDate: "2026/01/01", EndDate: "2026-01-31"})
	_, checks["report date order"] = ReportQuery(ReportRequest{StartDate: "2026-02-01", EndDate: "2026-01-31"})
	_, checks["report missing dates"] = ReportQuery(ReportRequest{})
	_, checks["customer level with campaigns"] = ReportQuery(ReportRequest{
		StartDate: "2026-01-01", EndDate: "2026-01-31", Level: LevelCustomer, CampaignIDs: []string{"1"},
	})

	for name, err := range checks {
		if !adserrors.IsKind(err, adserrors.KindDataValidation) {
			t.Errorf("%s: err = %v, want data_validation", name, err)
		}
	}
}

func TestReportQueryLevels(t *testing.T) {
	q, err := ReportQuery(ReportRequest{
		StartDate: "2026-01-01", EndDate: "2026-01-31", Level: LevelAdGroup, CampaignIDs: []string{"7", "8"},
	})
	if err != nil {
		t.Fatalf("ReportQuery: %v", err)
	}
	for _, want := range []string{"FROM ad_group", "ad_group.name", "segments.date BETWEEN '2026-01-01' AND '2026-01-31'", "campaign.id IN (7, 8)"} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func raw(t *testing.T, rows ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		out[i] = json.RawMessage(r)
	}
	return out
}

func TestDecodeCampaigns(t *testing.T) {
	campaigns, err := DecodeCampaigns(raw(t,
		`{"campaign":{"id":"11","name":"Brand","status":"ENABLED","advertisingChannelType":"SEARCH"},
		  "campaignBudget":{"amountMicros":"5000000"},
		  "metrics":{"impressions":"1200","clicks":"30","costMicros":"4500000","conversions":2.5,"ctr":0.025,"averageCpc":150000}}`,
	))
	if err != nil {
		t.Fatalf("DecodeCampaigns: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("got %d campaigns", len(campaigns))
	}
	c := campaigns[0]
	if c.ID != "11" || c.ChannelType != "SEARCH" || c.BudgetMicros != 5000000 {
		t.Errorf("campaign = %+v", c)
	}
	if c.Metrics == nil || c.Metrics.Impressions != 1200 || c.Metrics.Conversions != 2.5 {
		t.Errorf("metrics = %+v", c.Metrics)
	}
}

func TestDecodeCustomerAndHierarchy(t *testing.T) {
	info, err := DecodeCustomer("123", raw(t,
		`{"customer":{"id":"123","descriptiveName":"Acme","currencyCode":"EUR","timeZone":"Europe/Berlin","manager":true,"status":"ENABLED"}}`))
	if err != nil {
		t.Fatalf("DecodeCustomer: %v", err)
	}
	if !info.IsManager || info.Currency != "EUR" || len(info.Permissions) != 2 {
		t.Errorf("info = %+v", info)
	}

	if _, err := DecodeCustomer("9", nil); adserrors.CodeOf(err) != adserrors.CodeNotFound {
		t.Errorf("empty result: err = %v, want NOT_FOUND", err)
	}

	nodes, err := DecodeHierarchy("100", raw(t,
		`{"customerClient":{"clientCustomer":"customers/100","id":"100","level":"0","manager":true}}`,
		`{"customerClient":{"clientCustomer":"customers/200","id":"200","level":"1","manager":true}}`,
		`{"customerClient":{"clientCustomer":"customers/300","id":"300","level":"2","manager":false}}`,
	))
	if err != nil {
		t.Fatalf("DecodeHierarchy: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	if nodes[0].ParentID != "" || nodes[1].ParentID != "100" || nodes[2].ParentID != "200" {
		t.Errorf("parents = %q %q %q", nodes[0].ParentID, nodes[1].ParentID, nodes[2].ParentID)
	}
	if nodes[2].HierarchyLevel != 2 || nodes[2].Permissions[0] != "read" {
		t.Errorf("leaf = %+v", nodes[2])
	}
}

func TestDecodeMalformedRow(t *testing.T) {
	if _, err := DecodeKeywords(raw(t, `{"adGroupCriterion":`)); !adserrors.IsKind(err, adserrors.KindRemote) {
		t.Errorf("err = %v, want remote", err)
	}
}
