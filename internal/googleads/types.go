// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package googleads

// Credentials bind a client to one user's access token and, optionally,
// to the manager account the requests are made through.
type Credentials struct {
	DeveloperToken  string
	AccessToken     string
	LoginCustomerID string
	// CustomerID is the account this client is scoped to, or empty for
	// user-level calls such as ListAccessibleCustomers.
	CustomerID string
}

// CustomerInfo describes one advertiser or manager account.
type CustomerInfo struct {
	CustomerID      string   `json:"customer_id"`
	DescriptiveName string   `json:"descriptive_name"`
	Currency        string   `json:"currency"`
	TimeZone        string   `json:"time_zone"`
	IsManager       bool     `json:"is_manager"`
	Status          string   `json:"status"`
	HierarchyLevel  int      `json:"hierarchy_level"`
	Permissions     []string `json:"permissions"`
}

// AccountNode is one account in a manager hierarchy.
type AccountNode struct {
	CustomerInfo
	ParentID string `json:"parent_id,omitempty"`
}

// Metrics are the performance counters shared by every reporting row.
type Metrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CostMicros  int64   `json:"cost_micros"`
	Conversions float64 `json:"conversions"`
	CTR         float64 `json:"ctr"`
	AverageCPC  float64 `json:"average_cpc"`
}

// Campaign is a campaign row.
type Campaign struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Status              string   `json:"status"`
	ChannelType         string   `json:"channel_type"`
	BiddingStrategyType string   `json:"bidding_strategy_type"`
	BudgetMicros        int64    `json:"budget_micros"`
	StartDate           string   `json:"start_date,omitempty"`
	EndDate             string   `json:"end_date,omitempty"`
	Metrics             *Metrics `json:"metrics,omitempty"`
}

// AdGroup is an ad group row.
type AdGroup struct {
	ID           string   `json:"id"`
	CampaignID   string   `json:"campaign_id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Type         string   `json:"type"`
	CPCBidMicros int64    `json:"cpc_bid_micros"`
	Metrics      *Metrics `json:"metrics,omitempty"`
}

// Keyword is a keyword criterion row.
type Keyword struct {
	CriterionID  string   `json:"criterion_id"`
	AdGroupID    string   `json:"ad_group_id"`
	Text         string   `json:"text"`
	MatchType    string   `json:"match_type"`
	Status       string   `json:"status"`
	QualityScore int      `json:"quality_score,omitempty"`
	Metrics      *Metrics `json:"metrics,omitempty"`
}

// PerformanceRow is one row of a performance report.
type PerformanceRow struct {
	Date         string  `json:"date"`
	CampaignID   string  `json:"campaign_id,omitempty"`
	CampaignName string  `json:"campaign_name,omitempty"`
	AdGroupID    string  `json:"ad_group_id,omitempty"`
	AdGroupName  string  `json:"ad_group_name,omitempty"`
	Metrics      Metrics `json:"metrics"`
}

// CampaignFilter narrows GetCampaigns.
type CampaignFilter struct {
	Statuses       []string `json:"statuses,omitempty" validate:"dive,oneof=ENABLED PAUSED REMOVED"`
	ChannelTypes   []string `json:"channel_types,omitempty" validate:"dive,gaql_enum"`
	NameContains   string   `json:"name_contains,omitempty" validate:"omitempty,max=255"`
	IncludeMetrics bool     `json:"include_metrics,omitempty"`
	Limit          int      `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// AdGroupFilter narrows GetAdGroups.
type AdGroupFilter struct {
	CampaignID     string   `json:"campaign_id,omitempty" validate:"omitempty,gaql_id"`
	Statuses       []string `json:"statuses,omitempty" validate:"dive,oneof=ENABLED PAUSED REMOVED"`
	IncludeMetrics bool     `json:"include_metrics,omitempty"`
	Limit          int      `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// KeywordFilter narrows GetKeywords.
type KeywordFilter struct {
	CampaignID     string   `json:"campaign_id,omitempty" validate:"omitempty,gaql_id"`
	AdGroupID      string   `json:"ad_group_id,omitempty" validate:"omitempty,gaql_id"`
	Statuses       []string `json:"statuses,omitempty" validate:"dive,oneof=ENABLED PAUSED REMOVED"`
	MatchTypes     []string `json:"match_types,omitempty" validate:"dive,oneof=EXACT PHRASE BROAD"`
	IncludeMetrics bool     `json:"include_metrics,omitempty"`
	Limit          int      `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// Report levels.
const (
	LevelCustomer = "customer"
	LevelCampaign = "campaign"
	LevelAdGroup  = "ad_group"
)

// ReportRequest selects a performance report. Dates are inclusive and
// formatted YYYY-MM-DD.
type ReportRequest struct {
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Level       string   `json:"level,omitempty" validate:"omitempty,oneof=customer campaign ad_group"`
	CampaignIDs []string `json:"campaign_ids,omitempty" validate:"dive,gaql_id"`
}
