// Package tmview implements the TMview trademark search provider covering
// the EUIPO and the EU national offices. Register status codes are passed
// through raw; deriving a lifecycle status from them is the calculators'
// job, not the provider's.
package tmview

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
	sourceID       = "TMVIEW"
	defaultBaseURL = "https://www.tmdn.org/tmview/api"
	defaultTimeout = 15 * time.Second
)

// jurisdictions covers the EUIPO office code plus the EU member offices.
var jurisdictions = map[string]bool{
	"EM": true,
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true, "DE": true,
	"DK": true, "EE": true, "ES": true, "FI": true, "FR": true, "GR": true,
	"HR": true, "HU": true, "IE": true, "IT": true, "LT": true, "LU": true,
	"LV": true, "MT": true, "NL": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true,
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

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
		logger:     logger.Named("tmview"),
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
	q.Set("basicSearch", filter.Keyword)
	if !asset.IsGlobalJurisdiction(filter.Jurisdiction) {
		q.Set("office", filter.Jurisdiction)
	}
	if filter.Limit > 0 {
		q.Set("pageSize", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) SearchAdvanced(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	q := url.Values{}
	q.Set("basicSearch", filter.Keyword)
	if !asset.IsGlobalJurisdiction(filter.Jurisdiction) {
		q.Set("office", filter.Jurisdiction)
	}
	if filter.Owner != "" {
		q.Set("applicantName", filter.Owner)
	}
	if filter.State != "" {
		q.Set("status", filter.State)
	}
	if filter.DateFrom != nil {
		q.Set("applicationDateFrom", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		q.Set("applicationDateTo", filter.DateTo.Format("2006-01-02"))
	}
	if filter.Limit > 0 {
		q.Set("pageSize", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q url.Values) ([]asset.AssetDocument, error) {
	var resp searchResponse
	if err := c.get(ctx, "/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	docs := make([]asset.AssetDocument, 0, len(resp.Trademarks))
	for _, tm := range resp.Trademarks {
		docs = append(docs, tm.toDocument())
	}
	return docs, nil
}

func (c *Client) FetchDetail(ctx context.Context, id string) (*asset.AssetDocument, error) {
	var tm record
	if err := c.get(ctx, "/trademark/"+url.PathEscape(id), &tm); err != nil {
		return nil, err
	}
	doc := tm.toDocument()
	return &doc, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build tmview request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceUnavailable, "tmview request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "record not found at tmview")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeSourceRateLimited, "tmview rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return errors.Newf(errors.ErrCodeSourceUnavailable, "tmview returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceParseError, "decode tmview response")
	}
	return nil
}

type searchResponse struct {
	Trademarks []record `json:"tradeMarks"`
}

type record struct {
	ApplicationNumber string   `json:"applicationNumber"`
	Office            string   `json:"office"`
	MarkName          string   `json:"markName"`
	ApplicationDate   string   `json:"applicationDate"`
	ExpiryDate        string   `json:"expiryDate"`
	StatusCode        string   `json:"statusCode"`
	NiceClasses       []string `json:"niceClasses"`
	ApplicantName     string   `json:"applicantName"`
}

func (r record) toDocument() asset.AssetDocument {
	doc := asset.AssetDocument{
		ID:              r.ApplicationNumber,
		Source:          sourceID,
		Kind:            asset.KindTrademark,
		Jurisdiction:    r.Office,
		Title:           r.MarkName,
		StatusCode:      r.StatusCode,
		Classifications: r.NiceClasses,
		FilingDate:      parseDate(r.ApplicationDate),
		ExpirationDate:  parseDate(r.ExpiryDate),
	}
	if r.ApplicantName != "" {
		doc.Parties = append(doc.Parties, asset.Party{Name: r.ApplicantName, Role: "owner"})
	}
	return doc
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}
