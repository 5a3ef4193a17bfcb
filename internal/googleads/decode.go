// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package googleads

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

// The REST API encodes int64 fields as JSON strings; the ,string options
// below accept that form.

type rawMetrics struct {
	Impressions int64   `json:"impressions,string"`
	Clicks      int64   `json:"clicks,string"`
	CostMicros  int64   `json:"costMicros,string"`
	Conversions float64 `json:"conversions"`
	CTR         float64 `json:"ctr"`
	AverageCPC  float64 `json:"averageCpc"`
}

func (m *rawMetrics) toMetrics() *Metrics {
	if m == nil {
		return nil
	}
	return &Metrics{
		Impressions: m.Impressions,
		Clicks:      m.Clicks,
		CostMicros:  m.CostMicros,
		Conversions: m.Conversions,
		CTR:         m.CTR,
		AverageCPC:  m.AverageCPC,
	}
}

type rawCustomer struct {
	ID              string `json:"id"`
	DescriptiveName string `json:"descriptiveName"`
	CurrencyCode    string `json:"currencyCode"`
	TimeZone        string `json:"timeZone"`
	Manager         bool   `json:"manager"`
	Status          string `json:"status"`
}

type rawCustomerClient struct {
	ClientCustomer  string `json:"clientCustomer"`
	ID              string `json:"id"`
	Level           int    `json:"level,string"`
	Manager         bool   `json:"manager"`
	DescriptiveName string `json:"descriptiveName"`
	CurrencyCode    string `json:"currencyCode"`
	TimeZone        string `json:"timeZone"`
	Status          string `json:"status"`
}

type rawCampaign struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Status                 string `json:"status"`
	AdvertisingChannelType string `json:"advertisingChannelType"`
	BiddingStrategyType    string `json:"biddingStrategyType"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
}

type rawAdGroup struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	CPCBidMicros int64  `json:"cpcBidMicros,string"`
}

type rawCriterion struct {
	CriterionID string `json:"criterionId"`
	Status      string `json:"status"`
	Keyword     struct {
		Text      string `json:"text"`
		MatchType string `json:"matchType"`
	} `json:"keyword"`
	QualityInfo struct {
		QualityScore int `json:"qualityScore"`
	} `json:"qualityInfo"`
}

// row is the union of every resource the builders in this package select.
type row struct {
	Customer       *rawCustomer       `json:"customer"`
	CustomerClient *rawCustomerClient `json:"customerClient"`
	Campaign       *rawCampaign       `json:"campaign"`
	CampaignBudget *struct {
		AmountMicros int64 `json:"amountMicros,string"`
	} `json:"campaignBudget"`
	AdGroup          *rawAdGroup   `json:"adGroup"`
	AdGroupCriterion *rawCriterion `json:"adGroupCriterion"`
	Metrics          *rawMetrics   `json:"metrics"`
	Segments         *struct {
		Date string `json:"date"`
	} `json:"segments"`
}

func decodeRows(op string, raw []json.RawMessage) ([]row, error) {
	rows := make([]row, 0, len(raw))
	for _, r := range raw {
		var decoded row
		if err := json.Unmarshal(r, &decoded); err != nil {
			return nil, adserrors.Wrap(adserrors.KindRemote, op, "malformed search row", err)
		}
		rows = append(rows, decoded)
	}
	return rows, nil
}

// CustomerIDFromResourceName turns "customers/123" into "123".
func CustomerIDFromResourceName(name string) string {
	return strings.TrimPrefix(name, "customers/")
}

// Permissions derives the access a user has through an account.
func Permissions(isManager bool) []string {
	if isManager {
		return []string{"read", "manage_clients"}
	}
	return []string{"read"}
}

// DecodeCustomer converts a CustomerDetailsQuery result.
func DecodeCustomer(customerID string, raw []json.RawMessage) (*CustomerInfo, error) {
	const op = "googleads.DecodeCustomer"
	rows, err := decodeRows(op, raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Customer == nil {
		return nil, adserrors.Remote(op, adserrors.CodeNotFound, "customer "+customerID+" not found")
	}
	c := rows[0].Customer
	id := c.ID
	if id == "" {
		id = customerID
	}
	return &CustomerInfo{
		CustomerID:      id,
		DescriptiveName: c.DescriptiveName,
		Currency:        c.CurrencyCode,
		TimeZone:        c.TimeZone,
		IsManager:       c.Manager,
		Status:          c.Status,
		Permissions:     Permissions(c.Manager),
	}, nil
}

// DecodeHierarchy converts a HierarchyQuery result run against managerID.
// Accounts at level n are attributed to the nearest preceding manager at
// level n-1, which matches the level ordering of the query.
func DecodeHierarchy(managerID string, raw []json.RawMessage) ([]AccountNode, error) {
	rows, err := decodeRows("googleads.DecodeHierarchy", raw)
	if err != nil {
		return nil, err
	}
	nodes := make([]AccountNode, 0, len(rows))
	lastManagerAt := map[int]string{}
	for _, r := range rows {
		cc := r.CustomerClient
		if cc == nil {
			continue
		}
		id := cc.ID
		if id == "" {
			id = CustomerIDFromResourceName(cc.ClientCustomer)
		}
		node := AccountNode{CustomerInfo: CustomerInfo{
			CustomerID:      id,
			DescriptiveName: cc.DescriptiveName,
			Currency:        cc.CurrencyCode,
			TimeZone:        cc.TimeZone,
			IsManager:       cc.Manager,
			Status:          cc.Status,
			HierarchyLevel:  cc.Level,
			Permissions:     Permissions(cc.Manager),
		}}
		if cc.Level > 0 {
			node.ParentID = lastManagerAt[cc.Level-1]
			if node.ParentID == "" {
				node.ParentID = managerID
			}
		}
		if cc.Manager {
			lastManagerAt[cc.Level] = id
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// DecodeCampaigns converts a CampaignsQuery result.
func DecodeCampaigns(raw []json.RawMessage) ([]Campaign, error) {
	rows, err := decodeRows("googleads.DecodeCampaigns", raw)
	if err != nil {
		return nil, err
	}
	out := make([]Campaign, 0, len(rows))
	for _, r := range rows {
		if r.Campaign == nil {
			continue
		}
		c := Campaign{
			ID:                  r.Campaign.ID,
			Name:                r.Campaign.Name,
			Status:              r.Campaign.Status,
			ChannelType:         r.Campaign.AdvertisingChannelType,
			BiddingStrategyType: r.Campaign.BiddingStrategyType,
			StartDate:           r.Campaign.StartDate,
			EndDate:             r.Campaign.EndDate,
			Metrics:             r.Metrics.toMetrics(),
		}
		if r.CampaignBudget != nil {
			c.BudgetMicros = r.CampaignBudget.AmountMicros
		}
		out = append(out, c)
	}
	return out, nil
}

// DecodeAdGroups converts an AdGroupsQuery result.
func DecodeAdGroups(raw []json.RawMessage) ([]AdGroup, error) {
	rows, err := decodeRows("googleads.DecodeAdGroups", raw)
	if err != nil {
		return nil, err
	}
	out := make([]AdGroup, 0, len(rows))
	for _, r := range rows {
		if r.AdGroup == nil {
			continue
		}
		g := AdGroup{
			ID:           r.AdGroup.ID,
			Name:         r.AdGroup.Name,
			Status:       r.AdGroup.Status,
			Type:         r.AdGroup.Type,
			CPCBidMicros: r.AdGroup.CPCBidMicros,
			Metrics:      r.Metrics.toMetrics(),
		}
		if r.Campaign != nil {
			g.CampaignID = r.Campaign.ID
		}
		out = append(out, g)
	}
	return out, nil
}

// DecodeKeywords converts a KeywordsQuery result.
func DecodeKeywords(raw []json.RawMessage) ([]Keyword, error) {
	rows, err := decodeRows("googleads.DecodeKeywords", raw)
	if err != nil {
		return nil, err
	}
	out := make([]Keyword, 0, len(rows))
	for _, r := range rows {
		if r.AdGroupCriterion == nil {
			continue
		}
		k := Keyword{
			CriterionID:  r.AdGroupCriterion.CriterionID,
			Text:         r.AdGroupCriterion.Keyword.Text,
			MatchType:    r.AdGroupCriterion.Keyword.MatchType,
			Status:       r.AdGroupCriterion.Status,
			QualityScore: r.AdGroupCriterion.QualityInfo.QualityScore,
			Metrics:      r.Metrics.toMetrics(),
		}
		if r.AdGroup != nil {
			k.AdGroupID = r.AdGroup.ID
		}
		out = append(out, k)
	}
	return out, nil
}

// DecodeReport converts a ReportQuery result.
func DecodeReport(raw []json.RawMessage) ([]PerformanceRow, error) {
	rows, err := decodeRows("googleads.DecodeReport", raw)
	if err != nil {
		return nil, err
	}
	out := make([]PerformanceRow, 0, len(rows))
	for _, r := range rows {
		var pr PerformanceRow
		if r.Segments != nil {
			pr.Date = r.Segments.Date
		}
		if r.Campaign != nil {
			pr.CampaignID = r.Campaign.ID
			pr.CampaignName = r.Campaign.Name
		}
		if r.AdGroup != nil {
			pr.AdGroupID = r.AdGroup.ID
			pr.AdGroupName = r.AdGroup.Name
		}
		if m := r.Metrics.toMetrics(); m != nil {
			pr.Metrics = *m
		}
		out = append(out, pr)
	}
	return out, nil
}
