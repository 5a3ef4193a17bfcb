// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package googleads

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/validation"
)

const metricFields = "metrics.impressions, metrics.clicks, metrics.cost_micros, " +
	"metrics.conversions, metrics.ctr, metrics.average_cpc"

// query assembles a GAQL statement clause by clause.
type query struct {
	fields []string
	from   string
	where  []string
	order  string
	limit  int
}

func (q *query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.from)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.order)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}
	return b.String()
}

// in renders "field IN (...)". Values must already be validated enums or IDs.
func in(field string, values []string, quote bool) string {
	if quote {
		values = lo.Map(values, func(v string, _ int) string { return "'" + v + "'" })
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(values, ", "))
}

// quoteLiteral escapes a free text value for a GAQL string literal.
func quoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `%`, `\%`, `_`, `\_`)
	return "'%" + r.Replace(s) + "%'"
}

// CustomerDetailsQuery reads the customer resource itself.
func CustomerDetailsQuery() string {
	q := query{
		fields: []string{
			"customer.id", "customer.descriptive_name", "customer.currency_code",
			"customer.time_zone", "customer.manager", "customer.status",
		},
		from:  "customer",
		limit: 1,
	}
	return q.String()
}

// HierarchyQuery lists every account reachable from a manager account.
func HierarchyQuery() string {
	q := query{
		fields: []string{
			"customer_client.client_customer", "customer_client.id", "customer_client.level",
			"customer_client.manager", "customer_client.descriptive_name",
			"customer_client.currency_code", "customer_client.time_zone", "customer_client.status",
		},
		from:  "customer_client",
		where: []string{"customer_client.level <= 10"},
		order: "customer_client.level",
	}
	return q.String()
}

// CampaignsQuery builds the GetCampaigns statement.
func CampaignsQuery(f CampaignFilter) (string, error) {
	if err := validation.Validate("googleads.CampaignsQuery", &f); err != nil {
		return "", err
	}
	q := query{
		fields: []string{
			"campaign.id", "campaign.name", "campaign.status",
			"campaign.advertising_channel_type", "campaign.bidding_strategy_type",
			"campaign.start_date", "campaign.end_date", "campaign_budget.amount_micros",
		},
		from:  "campaign",
		order: "campaign.id",
		limit: f.Limit,
	}
	if f.IncludeMetrics {
		q.fields = append(q.fields, metricFields)
		q.where = append(q.where, "segments.date DURING LAST_30_DAYS")
	}
	if len(f.Statuses) > 0 {
		q.where = append(q.where, in("campaign.status", lo.Uniq(f.Statuses), true))
	} else {
		q.where = append(q.where, "campaign.status != 'REMOVED'")
	}
	if len(f.ChannelTypes) > 0 {
		q.where = append(q.where, in("campaign.advertising_channel_type", lo.Uniq(f.ChannelTypes), true))
	}
	if f.NameContains != "" {
		q.where = append(q.where, "campaign.name LIKE "+quoteLiteral(f.NameContains))
	}
	return q.String(), nil
}

// AdGroupsQuery builds the GetAdGroups statement.
func AdGroupsQuery(f AdGroupFilter) (string, error) {
	if err := validation.Validate("googleads.AdGroupsQuery", &f); err != nil {
		return "", err
	}
	q := query{
		fields: []string{
			"ad_group.id", "ad_group.name", "ad_group.status", "ad_group.type",
			"ad_group.cpc_bid_micros", "campaign.id",
		},
		from:  "ad_group",
		order: "ad_group.id",
		limit: f.Limit,
	}
	if f.IncludeMetrics {
		q.fields = append(q.fields, metricFields)
		q.where = append(q.where, "segments.date DURING LAST_30_DAYS")
	}
	if f.CampaignID != "" {
		q.where = append(q.where, "campaign.id = "+f.CampaignID)
	}
	if len(f.Statuses) > 0 {
		q.where = append(q.where, in("ad_group.status", lo.Uniq(f.Statuses), true))
	} else {
		q.where = append(q.where, "ad_group.status != 'REMOVED'")
	}
	return q.String(), nil
}

// KeywordsQuery builds the GetKeywords statement.
func KeywordsQuery(f KeywordFilter) (string, error) {
	if err := validation.Validate("googleads.KeywordsQuery", &f); err != nil {
		return "", err
	}
	q := query{
		fields: []string{
			"ad_group_criterion.criterion_id", "ad_group_criterion.keyword.text",
			"ad_group_criterion.keyword.match_type", "ad_group_criterion.status",
			"ad_group_criterion.quality_info.quality_score", "ad_group.id",
		},
		from:  "keyword_view",
		where: []string{"ad_group_criterion.type = 'KEYWORD'"},
		order: "ad_group_criterion.criterion_id",
		limit: f.Limit,
	}
	if f.IncludeMetrics {
		q.fields = append(q.fields, metricFields)
		q.where = append(q.where, "segments.date DURING LAST_30_DAYS")
	}
	if f.CampaignID != "" {
		q.where = append(q.where, "campaign.id = "+f.CampaignID)
	}
	if f.AdGroupID != "" {
		q.where = append(q.where, "ad_group.id = "+f.AdGroupID)
	}
	if len(f.Statuses) > 0 {
		q.where = append(q.where, in("ad_group_criterion.status", lo.Uniq(f.Statuses), true))
	} else {
		q.where = append(q.where, "ad_group_criterion.status != 'REMOVED'")
	}
	if len(f.MatchTypes) > 0 {
		q.where = append(q.where, in("ad_group_criterion.keyword.match_type", lo.Uniq(f.MatchTypes), true))
	}
	return q.String(), nil
}

// ReportQuery builds the GetPerformanceReport statement.
func ReportQuery(r ReportRequest) (string, error) {
	const op = "googleads.ReportQuery"
	if err := validation.Validate(op, &r); err != nil {
		return "", err
	}
	if r.EndDate < r.StartDate {
		return "", adserrors.Newf(adserrors.KindDataValidation, op, "end date %s is before start date %s", r.EndDate, r.StartDate)
	}

	q := query{
		fields: []string{"segments.date"},
		where: []string{
			fmt.Sprintf("segments.date BETWEEN '%s' AND '%s'", r.StartDate, r.EndDate),
		},
		order: "segments.date",
	}
	switch r.Level {
	case LevelAdGroup:
		q.fields = append(q.fields, "campaign.id", "campaign.name", "ad_group.id", "ad_group.name")
		q.from = "ad_group"
	case LevelCustomer:
		q.from = "customer"
	default:
		q.fields = append(q.fields, "campaign.id", "campaign.name")
		q.from = "campaign"
	}
	q.fields = append(q.fields, metricFields)
	if len(r.CampaignIDs) > 0 {
		if r.Level == LevelCustomer {
			return "", adserrors.New(adserrors.KindDataValidation, op, "campaign IDs cannot narrow a customer level report")
		}
		q.where = append(q.where, in("campaign.id", lo.Uniq(r.CampaignIDs), false))
	}
	return q.String(), nil
}
