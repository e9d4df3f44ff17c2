// Package epo implements the European Patent Office search provider.
package epo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/domain/search"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

const (
	sourceID       = "EPO"
	defaultBaseURL = "https://ops.epo.org/rest-services"
	defaultTimeout = 15 * time.Second
)

// jurisdictions is the office's coverage: EPC contracting and extension
// states plus the regional codes.
var jurisdictions = map[string]bool{
	"EP": true, "WO": true,
	"AL": true, "AT": true, "BE": true, "BG": true, "CH": true, "CY": true,
	"CZ": true, "DE": true, "DK": true, "EE": true, "ES": true, "FI": true,
	"FR": true, "GB": true, "GR": true, "HR": true, "HU": true, "IE": true,
	"IS": true, "IT": true, "LI": true, "LT": true, "LU": true, "LV": true,
	"MC": true, "ME": true, "MK": true, "MT": true, "NL": true, "NO": true,
	"PL": true, "PT": true, "RO": true, "RS": true, "SE": true, "SI": true,
	"SK": true, "SM": true, "TR": true,
	"BA": true, "MA": true, "MD": true, "TN": true, "KH": true, "GE": true,
}

// Client wraps the OPS published-data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithAPIKey sets the OPS access key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(logger logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("epo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ search.Provider = (*Client)(nil)

func (c *Client) SourceID() string { return sourceID }

func (c *Client) SupportsJurisdiction(code string) bool {
	if asset.IsGlobalJurisdiction(code) {
		return true
	}
	return jurisdictions[code]
}

func (c *Client) SearchByKeyword(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	q := url.Values{}
	q.Set("q", filter.Keyword)
	if !asset.IsGlobalJurisdiction(filter.Jurisdiction) {
		q.Set("jurisdiction", filter.Jurisdiction)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) SearchAdvanced(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	q := url.Values{}
	q.Set("q", filter.Keyword)
	if !asset.IsGlobalJurisdiction(filter.Jurisdiction) {
		q.Set("jurisdiction", filter.Jurisdiction)
	}
	if filter.Assignee != "" {
		q.Set("applicant", filter.Assignee)
	}
	if filter.Inventor != "" {
		q.Set("inventor", filter.Inventor)
	}
	if filter.DateFrom != nil {
		q.Set("from", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		q.Set("to", filter.DateTo.Format("2006-01-02"))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q url.Values) ([]asset.AssetDocument, error) {
	var resp searchResponse
	if err := c.get(ctx, "/published-data/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	docs := make([]asset.AssetDocument, 0, len(resp.Results))
	for _, r := range resp.Results {
		docs = append(docs, r.toDocument())
	}
	return docs, nil
}

func (c *Client) FetchDetail(ctx context.Context, id string) (*asset.AssetDocument, error) {
	var r record
	if err := c.get(ctx, "/published-data/publication/"+url.PathEscape(id), &r); err != nil {
		return nil, err
	}
	doc := r.toDocument()
	return &doc, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build epo request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceUnavailable, "epo request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "record not found at epo")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeSourceRateLimited, "epo rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeSourceAuthFailed, "epo rejected credentials")
	case resp.StatusCode != http.StatusOK:
		return errors.Newf(errors.ErrCodeSourceUnavailable, "epo returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceParseError, "decode epo response")
	}
	return nil
}

type searchResponse struct {
	Results []record `json:"results"`
}

type record struct {
	PublicationNumber string   `json:"publication_number"`
	CountryCode       string   `json:"country_code"`
	Title             string   `json:"title"`
	FilingDate        string   `json:"filing_date"`
	GrantDate         string   `json:"grant_date"`
	ExpirationDate    string   `json:"expiration_date"`
	Withdrawn         bool     `json:"withdrawn"`
	IPCClasses        []string `json:"ipc_classes"`
	Applicants        []string `json:"applicants"`
	Inventors         []string `json:"inventors"`
}

func (r record) toDocument() asset.AssetDocument {
	doc := asset.AssetDocument{
		ID:              r.PublicationNumber,
		Source:          sourceID,
		Kind:            asset.KindPatent,
		Jurisdiction:    r.CountryCode,
		Title:           r.Title,
		Withdrawn:       r.Withdrawn,
		Classifications: r.IPCClasses,
		FilingDate:      parseDate(r.FilingDate),
		GrantDate:       parseDate(r.GrantDate),
		ExpirationDate:  parseDate(r.ExpirationDate),
	}
	for _, a := range r.Applicants {
		doc.Parties = append(doc.Parties, asset.Party{Name: a, Role: "applicant"})
	}
	for _, i := range r.Inventors {
		doc.Parties = append(doc.Parties, asset.Party{Name: i, Role: "inventor"})
	}
	return doc
}

// parseDate tolerates the two date shapes OPS emits. A malformed date is
// dropped rather than failing the whole record.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
