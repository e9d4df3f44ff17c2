// Package uspto implements the United States Patent and Trademark Office
// search provider. It serves the single US jurisdiction and opts into
// global queries.
package uspto

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
	sourceID       = "USPTO"
	defaultBaseURL = "https://developer.uspto.gov/ds-api"
	defaultTimeout = 15 * time.Second
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
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
		logger:     logger.Named("uspto"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ search.Provider = (*Client)(nil)

func (c *Client) SourceID() string { return sourceID }

func (c *Client) SupportsJurisdiction(code string) bool {
	return asset.IsGlobalJurisdiction(code) || code == "US"
}

func (c *Client) SearchByKeyword(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	q := url.Values{}
	q.Set("searchText", filter.Keyword)
	if filter.Limit > 0 {
		q.Set("rows", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) SearchAdvanced(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	q := url.Values{}
	q.Set("searchText", filter.Keyword)
	if filter.Assignee != "" {
		q.Set("assigneeName", filter.Assignee)
	}
	if filter.Inventor != "" {
		q.Set("inventorName", filter.Inventor)
	}
	if filter.Owner != "" {
		q.Set("ownerName", filter.Owner)
	}
	if filter.DateFrom != nil {
		q.Set("fromDate", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		q.Set("toDate", filter.DateTo.Format("2006-01-02"))
	}
	if filter.Limit > 0 {
		q.Set("rows", strconv.Itoa(filter.Limit))
	}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q url.Values) ([]asset.AssetDocument, error) {
	var resp searchResponse
	if err := c.get(ctx, "/patents/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	docs := make([]asset.AssetDocument, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		docs = append(docs, d.toDocument())
	}
	return docs, nil
}

func (c *Client) FetchDetail(ctx context.Context, id string) (*asset.AssetDocument, error) {
	var d record
	if err := c.get(ctx, "/patents/"+url.PathEscape(id), &d); err != nil {
		return nil, err
	}
	doc := d.toDocument()
	return &doc, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build uspto request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceUnavailable, "uspto request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "record not found at uspto")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeSourceRateLimited, "uspto rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeSourceAuthFailed, "uspto rejected credentials")
	case resp.StatusCode != http.StatusOK:
		return errors.Newf(errors.ErrCodeSourceUnavailable, "uspto returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceParseError, "decode uspto response")
	}
	return nil
}

type searchResponse struct {
	Docs []record `json:"docs"`
}

type record struct {
	PatentNumber   string   `json:"patentNumber"`
	Title          string   `json:"inventionTitle"`
	FilingDate     string   `json:"filingDate"`
	GrantDate      string   `json:"grantDate"`
	ExpirationDate string   `json:"expirationDate"`
	Abandoned      bool     `json:"abandoned"`
	CPCClasses     []string `json:"cpcClasses"`
	Assignees      []string `json:"assignees"`
	Inventors      []string `json:"inventors"`
}

func (r record) toDocument() asset.AssetDocument {
	doc := asset.AssetDocument{
		ID:              r.PatentNumber,
		Source:          sourceID,
		Kind:            asset.KindPatent,
		Jurisdiction:    "US",
		Title:           r.Title,
		Withdrawn:       r.Abandoned,
		Classifications: r.CPCClasses,
		FilingDate:      parseDate(r.FilingDate),
		GrantDate:       parseDate(r.GrantDate),
		ExpirationDate:  parseDate(r.ExpirationDate),
	}
	for _, a := range r.Assignees {
		doc.Parties = append(doc.Parties, asset.Party{Name: a, Role: "assignee"})
	}
	for _, i := range r.Inventors {
		doc.Parties = append(doc.Parties, asset.Party{Name: i, Role: "inventor"})
	}
	return doc
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "01-02-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
