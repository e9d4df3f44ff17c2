package search

import (
	"regexp"
	"strings"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// Registry holds the providers enrolled at startup, in registration order.
// Registration order is load-bearing: the dispatcher concatenates results in
// this order. The registry is built once during wiring and read-only
// afterwards, so no locking is needed.
type Registry struct {
	providers []Provider
	byID      map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Provider)}
}

// Register enrolls a provider. Enrolling two providers under the same
// source ID is a wiring bug and returns a conflict error.
func (r *Registry) Register(p Provider) error {
	id := p.SourceID()
	if _, ok := r.byID[id]; ok {
		return errors.Newf(errors.ErrCodeConflict, "provider %q already registered", id)
	}
	r.providers = append(r.providers, p)
	r.byID[id] = p
	return nil
}

// MustRegister is Register for static wiring in main, where a duplicate
// source ID can only be a programming error.
func (r *Registry) MustRegister(p Provider) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// All returns the providers in registration order. Callers must not
// modify the returned slice.
func (r *Registry) All() []Provider {
	return r.providers
}

// ByID looks a provider up by its source ID.
func (r *Registry) ByID(id string) (Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ForJurisdiction returns, in registration order, the providers whose
// jurisdiction predicate accepts the given code.
func (r *Registry) ForJurisdiction(code string) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.SupportsJurisdiction(code) {
			out = append(out, p)
		}
	}
	return out
}

// Asset id shapes per upstream source. EPO publication numbers carry a
// two-letter country prefix, EUTM filings carry the "EM" office code, and
// USPTO patent numbers and trademark serials are purely numeric.
var (
	countryPrefixShape = regexp.MustCompile(`^[A-Z]{2}[0-9]`)
	usptoSerialShape   = regexp.MustCompile(`^[0-9]{7,8}$`)
	usPrefixedShape    = regexp.MustCompile(`^US[0-9]`)
	eutmShape          = regexp.MustCompile(`^EM[0-9]`)
)

// DetectSource resolves the provider that owns an asset id by the id's
// shape. US-prefixed ids and bare 7-8 digit serials map to USPTO, "EM"
// trademark filings map to TMVIEW, any other country-prefixed publication
// number maps to EPO; an id matching no known shape yields
// ErrCodeSourceUndetectable.
func (r *Registry) DetectSource(assetID string) (Provider, error) {
	id := strings.ToUpper(strings.TrimSpace(assetID))
	if id == "" {
		return nil, errors.New(errors.ErrCodeSourceUndetectable, "empty asset id")
	}

	var sourceID string
	switch {
	case usPrefixedShape.MatchString(id), usptoSerialShape.MatchString(id):
		sourceID = "USPTO"
	case eutmShape.MatchString(id):
		sourceID = "TMVIEW"
	case countryPrefixShape.MatchString(id):
		sourceID = "EPO"
	default:
		return nil, errors.Newf(errors.ErrCodeSourceUndetectable, "cannot detect source for asset id %q", assetID)
	}

	p, ok := r.byID[sourceID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSourceUndetectable, "no provider registered for source %s", sourceID)
	}
	return p, nil
}
