// Package asset defines the canonical record shapes shared by every search
// provider and by the tracking engine.  An AssetDocument is produced once by
// a provider's mapping step and never mutated afterwards; a refresh always
// produces a whole new value.
package asset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind distinguishes the two record families the platform aggregates.
type Kind string

const (
	KindPatent    Kind = "patent"
	KindTrademark Kind = "trademark"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known asset kind.
func (k Kind) Valid() bool {
	return k == KindPatent || k == KindTrademark
}

// JurisdictionAll is the wildcard jurisdiction code.  Providers must treat it
// (and the empty string) as "route this query to me regardless of region".
const JurisdictionAll = "ALL"

// IsGlobalJurisdiction reports whether code addresses every jurisdiction.
func IsGlobalJurisdiction(code string) bool {
	return code == "" || strings.EqualFold(code, JurisdictionAll)
}

// Party is a named participant on a record (applicant, inventor, owner).
type Party struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// AssetDocument is the normalized record every provider result is mapped
// into.  Date fields are pointers because upstream sources routinely omit
// them; StatusCode carries the raw trademark register code and is empty for
// patents.
type AssetDocument struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	Kind            Kind       `json:"kind"`
	Jurisdiction    string     `json:"jurisdiction"`
	Title           string     `json:"title"`
	FilingDate      *time.Time `json:"filing_date,omitempty"`
	GrantDate       *time.Time `json:"grant_date,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
	StatusCode      string     `json:"status_code,omitempty"`
	Withdrawn       bool       `json:"withdrawn,omitempty"`
	Classifications []string   `json:"classifications,omitempty"`
	Parties         []Party    `json:"parties,omitempty"`
}

// SearchFilter is the read-only query value passed to providers.  Assignee
// and Inventor apply to patent searches, Owner and State to trademark
// searches; providers ignore fields that do not apply to them.
type SearchFilter struct {
	Keyword      string     `json:"keyword"`
	Jurisdiction string     `json:"jurisdiction"`
	Kind         Kind       `json:"kind"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Assignee     string     `json:"assignee,omitempty"`
	Inventor     string     `json:"inventor,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	State        string     `json:"state,omitempty"`
	Limit        int        `json:"limit,omitempty"`
}

// Normalize produces the canonical cache-key representation of the filter:
// lower-cased, trimmed, fields in a fixed order, absent fields omitted.  Two
// filters that differ only in casing or whitespace normalize identically.
func (f *SearchFilter) Normalize() string {
	parts := make([]string, 0, 9)
	add := func(name, val string) {
		val = strings.ToLower(strings.TrimSpace(val))
		if val != "" {
			parts = append(parts, name+"="+val)
		}
	}
	add("kw", f.Keyword)
	if !IsGlobalJurisdiction(f.Jurisdiction) {
		add("jur", f.Jurisdiction)
	}
	add("kind", string(f.Kind))
	if f.DateFrom != nil {
		add("from", f.DateFrom.UTC().Format("2006-01-02"))
	}
	if f.DateTo != nil {
		add("to", f.DateTo.UTC().Format("2006-01-02"))
	}
	add("assignee", f.Assignee)
	add("inventor", f.Inventor)
	add("owner", f.Owner)
	add("state", f.State)
	if f.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", f.Limit))
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}
