package cache

import (
	"time"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// Well-known cache names. The set of names is a contract: other components
// look caches up by name, and adding or removing a name is a breaking change
// for those callers.
const (
	PatentSearch    = "patent_search"
	TrademarkSearch = "trademark_search"
	PatentDetail    = "patent_detail"
	TrademarkDetail = "trademark_detail"
	PatentTrends    = "patent_trends"
	TrademarkTrends = "trademark_trends"
	AggregateStats  = "aggregate_stats"
)

// policy is one row of the static cache table.
type policy struct {
	name string
	cap  int
	ttl  time.Duration
}

// policies is the full named-cache table. It is reproduced verbatim from
// the cache design, not tuned per deployment.
var policies = []policy{
	{PatentSearch, 5000, 15 * time.Minute},
	{TrademarkSearch, 5000, 15 * time.Minute},
	{PatentDetail, 10000, 6 * time.Hour},
	{TrademarkDetail, 10000, 6 * time.Hour},
	{PatentTrends, 1000, time.Hour},
	{TrademarkTrends, 1000, time.Hour},
	{AggregateStats, 100, 2 * time.Hour},
}

// Registry holds the full set of named caches. Built once at startup and
// read-only afterwards.
type Registry struct {
	stores map[string]*Store
}

// NewRegistry constructs every cache from the static table.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{stores: make(map[string]*Store, len(policies))}
	for _, p := range policies {
		r.stores[p.name] = NewStore(p.name, p.cap, p.ttl, opts...)
	}
	return r
}

// Get returns the named cache. An unknown name is a wiring bug.
func (r *Registry) Get(name string) (*Store, error) {
	s, ok := r.stores[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeCacheError, "unknown cache %q", name)
	}
	return s, nil
}

// MustGet is Get for static wiring, where the name is a compile-time
// constant from this package.
func (r *Registry) MustGet(name string) *Store {
	s, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the registered cache names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.stores))
	for _, p := range policies {
		out = append(out, p.name)
	}
	return out
}
