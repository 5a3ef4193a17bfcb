// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package manager

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/googleads"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/validation"
)

// Cache namespaces, one per operation family.
const (
	NamespaceCustomers       = "customers"
	NamespaceCustomerDetails = "customer_details"
	NamespaceHierarchy       = "hierarchy"
	NamespaceCampaigns       = "campaigns"
	NamespaceAdGroups        = "ad_groups"
	NamespaceKeywords        = "keywords"
	NamespaceReports         = "reports"
)

// Namespaces lists every namespace InvalidateCache accepts.
var Namespaces = []string{
	NamespaceCustomers,
	NamespaceCustomerDetails,
	NamespaceHierarchy,
	NamespaceCampaigns,
	NamespaceAdGroups,
	NamespaceKeywords,
	NamespaceReports,
}

const (
	opListAccessibleCustomers = "ListAccessibleCustomers"
	opGetCustomerDetails      = "GetCustomerDetails"
	opGetAccountHierarchy     = "GetAccountHierarchy"
	opGetCampaigns            = "GetCampaigns"
	opGetAdGroups             = "GetAdGroups"
	opGetKeywords             = "GetKeywords"
	opGetPerformanceReport    = "GetPerformanceReport"
)

// ListAccessibleCustomers returns the IDs of the customers userID can
// reach directly.
func (m *Manager) ListAccessibleCustomers(ctx context.Context, userID string) ([]string, error) {
	return execute(ctx, m, call[[]string]{
		op:        opListAccessibleCustomers,
		userID:    userID,
		namespace: NamespaceCustomers,
		ttl:       m.cfg.Cache.TTL.Customers,
		fetch: func(ctx context.Context, c googleads.Service) ([]string, error) {
			return c.ListAccessibleCustomers(ctx)
		},
	})
}

// GetCustomerDetails reads one customer account.
func (m *Manager) GetCustomerDetails(ctx context.Context, userID, customerID string) (*googleads.CustomerInfo, error) {
	id, err := checkCustomerID(opGetCustomerDetails, customerID)
	if err != nil {
		return nil, m.reject(ctx, opGetCustomerDetails, err)
	}
	return execute(ctx, m, call[*googleads.CustomerInfo]{
		op:         opGetCustomerDetails,
		userID:     userID,
		customerID: id,
		namespace:  NamespaceCustomerDetails,
		ttl:        m.cfg.Cache.TTL.CustomerDetails,
		params:     id,
		fetch: func(ctx context.Context, c googleads.Service) (*googleads.CustomerInfo, error) {
			rows, err := c.Search(ctx, id, googleads.CustomerDetailsQuery())
			if err != nil {
				return nil, err
			}
			return googleads.DecodeCustomer(id, rows)
		},
	})
}

// GetAccessibleCustomerDetails lists the accessible customers and reads
// each of them, at most cfg.Ads.FanOut at a time. Customers that cannot
// be read are skipped; the call fails only when none can be.
func (m *Manager) GetAccessibleCustomerDetails(ctx context.Context, userID string) ([]googleads.CustomerInfo, error) {
	ids, err := m.ListAccessibleCustomers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []googleads.CustomerInfo{}, nil
	}

	details := make([]*googleads.CustomerInfo, len(ids))
	var (
		mu       sync.Mutex
		firstErr error
		failed   int
	)
	var g errgroup.Group
	g.SetLimit(max(m.cfg.Ads.FanOut, 1))
	for i, id := range ids {
		g.Go(func() error {
			info, err := m.GetCustomerDetails(ctx, userID, id)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("customer_id", id).Msg("Skipping customer whose details could not be read")
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			details[i] = info
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(ids) {
		return nil, firstErr
	}
	return lo.FilterMap(details, func(d *googleads.CustomerInfo, _ int) (googleads.CustomerInfo, bool) {
		if d == nil {
			return googleads.CustomerInfo{}, false
		}
		return *d, true
	}), nil
}

// GetAccountHierarchy lists every account below the manager account
// managerID, each with its level and parent.
func (m *Manager) GetAccountHierarchy(ctx context.Context, userID, managerID string) ([]googleads.AccountNode, error) {
	id, err := checkCustomerID(opGetAccountHierarchy, managerID)
	if err != nil {
		return nil, m.reject(ctx, opGetAccountHierarchy, err)
	}
	return execute(ctx, m, call[[]googleads.AccountNode]{
		op:         opGetAccountHierarchy,
		userID:     userID,
		customerID: id,
		namespace:  NamespaceHierarchy,
		ttl:        m.cfg.Cache.TTL.Hierarchy,
		params:     id,
		fetch: func(ctx context.Context, c googleads.Service) ([]googleads.AccountNode, error) {
			rows, err := c.Search(ctx, id, googleads.HierarchyQuery())
			if err != nil {
				return nil, err
			}
			return googleads.DecodeHierarchy(id, rows)
		},
	})
}

// GetCampaigns lists the campaigns of customerID matching f.
func (m *Manager) GetCampaigns(ctx context.Context, userID, customerID string, f googleads.CampaignFilter) ([]googleads.Campaign, error) {
	id, err := checkCustomerID(opGetCampaigns, customerID)
	if err != nil {
		return nil, m.reject(ctx, opGetCampaigns, err)
	}
	q, err := googleads.CampaignsQuery(f)
	if err != nil {
		return nil, m.reject(ctx, opGetCampaigns, err)
	}
	return searchOp(ctx, m, opGetCampaigns, userID, id, NamespaceCampaigns, m.cfg.Cache.TTL.Campaigns, q, googleads.DecodeCampaigns)
}

// GetAdGroups lists the ad groups of customerID matching f.
func (m *Manager) GetAdGroups(ctx context.Context, userID, customerID string, f googleads.AdGroupFilter) ([]googleads.AdGroup, error) {
	id, err := checkCustomerID(opGetAdGroups, customerID)
	if err != nil {
		return nil, m.reject(ctx, opGetAdGroups, err)
	}
	q, err := googleads.AdGroupsQuery(f)
	if err != nil {
		return nil, m.reject(ctx, opGetAdGroups, err)
	}
	return searchOp(ctx, m, opGetAdGroups, userID, id, NamespaceAdGroups, m.cfg.Cache.TTL.AdGroups, q, googleads.DecodeAdGroups)
}

// GetKeywords lists the keywords of customerID matching f.
func (m *Manager) GetKeywords(ctx context.Context, userID, customerID string, f googleads.KeywordFilter) ([]googleads.Keyword, error) {
	id, err := checkCustomerID(opGetKeywords, customerID)
	if err != nil {
		return nil, m.reject(ctx, opGetKeywords, err)
	}
	q, err := googleads.KeywordsQuery(f)
	if err != nil {
		return nil, m.reject(ctx, opGetKeywords, err)
	}
	return searchOp(ctx, m, opGetKeywords, userID, id, NamespaceKeywords, m.cfg.Cache.TTL.Keywords, q, googleads.DecodeKeywords)
}

// GetPerformanceReport returns daily metrics for customerID over the
// requested date range.
func (m *Manager) GetPerformanceReport(ctx context.Context, userID, customerID string, r googleads.ReportRequest) ([]googleads.PerformanceRow, error) {
	id, err := checkCustomerID(opGetPerformanceReport, customerID)
	if err != nil {
		return nil, m.reject(ctx, opGetPerformanceReport, err)
	}
	q, err := googleads.ReportQuery(r)
	if err != nil {
		return nil, m.reject(ctx, opGetPerformanceReport, err)
	}
	return searchOp(ctx, m, opGetPerformanceReport, userID, id, NamespaceReports, m.cfg.Cache.TTL.Reports, q, googleads.DecodeReport)
}

// searchOp runs a GAQL query and decodes the rows. The query text is the
// cache identity of the request.
func searchOp[T any](ctx context.Context, m *Manager, op, userID, customerID, namespace string, ttl time.Duration,
	query string, decode func([]json.RawMessage) ([]T, error)) ([]T, error) {
	return execute(ctx, m, call[[]T]{
		op:         op,
		userID:     userID,
		customerID: customerID,
		namespace:  namespace,
		ttl:        ttl,
		params:     query,
		fetch: func(ctx context.Context, c googleads.Service) ([]T, error) {
			rows, err := c.Search(ctx, customerID, query)
			if err != nil {
				return nil, err
			}
			return decode(rows)
		},
	})
}

// InvalidateCache drops every cached response in namespace, or in all
// operation namespaces when namespace is empty. Stored tokens are never
// touched.
func (m *Manager) InvalidateCache(ctx context.Context, namespace string) error {
	if namespace == "" {
		for _, ns := range Namespaces {
			m.cache.Clear(ctx, ns)
		}
		logging.Info().Msg("Cleared every response cache namespace")
		return nil
	}
	if !lo.Contains(Namespaces, namespace) {
		return adserrors.Newf(adserrors.KindDataValidation, "manager.InvalidateCache", "unknown cache namespace %q", namespace)
	}
	m.cache.Clear(ctx, namespace)
	logging.Info().Str("namespace", namespace).Msg("Cleared response cache namespace")
	return nil
}

func checkCustomerID(op, customerID string) (string, error) {
	if err := validation.GetValidator().Var(customerID, "required,customer_id"); err != nil {
		return "", adserrors.Wrap(adserrors.KindDataValidation, op, "invalid customer ID "+strconv.Quote(customerID), err)
	}
	return validation.NormalizeCustomerID(customerID), nil
}
