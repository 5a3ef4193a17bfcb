// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

/*
client.go - Google Ads REST client

Client speaks the REST rendition of the two remote calls the manager
needs: customers:listAccessibleCustomers and googleAds:search. Every
request carries the developer token, the caller's OAuth access token and,
for manager (MCC) contexts, the login-customer-id header.

Failures are classified on the way out:
  - Google API error bodies become remote errors tagged with the most
    specific code available (GoogleAdsFailure errorCode, then status)
  - Transport failures become network errors tagged UNAVAILABLE, or
    DEADLINE_EXCEEDED when the request timed out
  - Undecodable success bodies become remote errors tagged INTERNAL

Retries live in the manager; the client makes exactly one attempt.
*/

package googleads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tomtom215/adsgate/internal/adserrors"
	"github.com/tomtom215/adsgate/internal/validation"
)

const (
	maxErrorBodySize = 64 * 1024
	maxPages         = 1000
)

// Service is the remote Ads API as seen by the pool and the manager.
type Service interface {
	// ListAccessibleCustomers returns the customer IDs the credentials
	// can reach directly.
	ListAccessibleCustomers(ctx context.Context) ([]string, error)
	// Search runs a GAQL query against customerID and returns every row.
	Search(ctx context.Context, customerID, query string) ([]json.RawMessage, error)
	// Ping is the cheap liveness probe used before reusing a pooled client.
	Ping(ctx context.Context) error
}

// ClientConfig holds the transport settings shared by every client.
type ClientConfig struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
}

// Client is the REST implementation of Service. It is bound to one set of
// credentials and is safe for concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewClient builds a client bound to creds.
func NewClient(cfg ClientConfig, creds Credentials) (*Client, error) {
	const op = "googleads.NewClient"
	if creds.DeveloperToken == "" {
		return nil, adserrors.New(adserrors.KindConfiguration, op, "developer token is required")
	}
	if creds.AccessToken == "" {
		return nil, adserrors.New(adserrors.KindAuthentication, op, "access token is required")
	}
	if cfg.BaseURL == "" || cfg.APIVersion == "" {
		return nil, adserrors.New(adserrors.KindConfiguration, op, "base URL and API version are required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	creds.LoginCustomerID = validation.NormalizeCustomerID(creds.LoginCustomerID)
	creds.CustomerID = validation.NormalizeCustomerID(creds.CustomerID)

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIVersion,
		creds:      creds,
		httpClient: hc,
	}, nil
}

// Credentials returns the credentials the client is bound to.
func (c *Client) Credentials() Credentials {
	return c.creds
}

type listAccessibleResponse struct {
	ResourceNames []string `json:"resourceNames"`
}

// ListAccessibleCustomers implements Service.
func (c *Client) ListAccessibleCustomers(ctx context.Context) ([]string, error) {
	const op = "googleads.ListAccessibleCustomers"
	var resp listAccessibleResponse
	if err := c.do(ctx, op, http.MethodGet, "/customers:listAccessibleCustomers", nil, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, len(resp.ResourceNames))
	for i, name := range resp.ResourceNames {
		ids[i] = CustomerIDFromResourceName(name)
	}
	return ids, nil
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []json.RawMessage `json:"results"`
	NextPageToken string            `json:"nextPageToken"`
}

// Search implements Service. All pages are fetched before returning.
func (c *Client) Search(ctx context.Context, customerID, query string) ([]json.RawMessage, error) {
	const op = "googleads.Search"
	customerID = validation.NormalizeCustomerID(customerID)
	if customerID == "" {
		customerID = c.creds.CustomerID
	}
	if customerID == "" {
		return nil, adserrors.New(adserrors.KindDataValidation, op, "customer ID is required")
	}

	path := "/customers/" + customerID + "/googleAds:search"
	req := searchRequest{Query: query}
	var rows []json.RawMessage
	for range maxPages {
		var page searchResponse
		if err := c.do(ctx, op, http.MethodPost, path, req, &page); err != nil {
			return nil, err
		}
		rows = append(rows, page.Results...)
		if page.NextPageToken == "" {
			return rows, nil
		}
		req.PageToken = page.NextPageToken
	}
	return nil, adserrors.Remote(op, adserrors.CodeInternal, fmt.Sprintf("pagination did not finish after %d pages", maxPages))
}

// Ping implements Service with the cheapest authenticated call available.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListAccessibleCustomers(ctx)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return adserrors.Wrap(adserrors.KindDataValidation, op, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return adserrors.Wrap(adserrors.KindConfiguration, op, "create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set("developer-token", c.creds.DeveloperToken)
	req.Header.Set("Accept", "application/json")
	if c.creds.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.creds.LoginCustomerID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(op, resp.StatusCode, readBodyForError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return transportError(op, err)
		}
		return &adserrors.Error{
			Kind:    adserrors.KindRemote,
			Op:      op,
			Code:    adserrors.CodeInternal,
			Message: "decode response",
			Cause:   err,
		}
	}
	return nil
}

func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return adserrors.Wrap(adserrors.KindNetwork, op, "request canceled", err)
	}
	code := adserrors.CodeUnavailable
	if isTimeout(err) {
		code = adserrors.CodeDeadlineExceeded
	}
	return &adserrors.Error{
		Kind:    adserrors.KindNetwork,
		Op:      op,
		Code:    code,
		Message: "transport failure",
		Cause:   err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
