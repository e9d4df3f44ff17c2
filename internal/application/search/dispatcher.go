// Package search implements the unified search dispatch: jurisdiction-routed
// fan-out over the registered providers with per-provider failure isolation,
// fronted by the named snapshot caches.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/domain/search"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/cache"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

const (
	defaultFanoutLimit = 8
	defaultCallTimeout = 10 * time.Second
)

// Metrics is the slice of the metrics collector the dispatcher feeds.
type Metrics interface {
	RecordSearch(kind, outcome string, d time.Duration)
	RecordProviderError(source string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSearch(string, string, time.Duration) {}
func (nopMetrics) RecordProviderError(string)                 {}

// Dispatcher fans a query out to every provider whose jurisdiction predicate
// matches and merges the results in provider-registration order. A single
// provider's failure contributes an empty result; only an all-providers-failed
// condition surfaces as an error.
type Dispatcher struct {
	registry *search.Registry
	caches   *cache.Registry
	logger   logging.Logger
	metrics  Metrics

	fanoutLimit int
	callTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFanoutLimit bounds how many provider calls run concurrently.
func WithFanoutLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.fanoutLimit = n
		}
	}
}

// WithCallTimeout bounds each individual provider call so a hung upstream
// cannot stall the aggregate.
func WithCallTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.callTimeout = t
		}
	}
}

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

func NewDispatcher(registry *search.Registry, caches *cache.Registry, logger logging.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Dispatcher{
		registry:    registry,
		caches:      caches,
		logger:      logger.Named("dispatcher"),
		metrics:     nopMetrics{},
		fanoutLimit: defaultFanoutLimit,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// searchCacheFor picks the search-result cache tier for the filter's kind.
func (d *Dispatcher) searchCacheFor(kind asset.Kind) *cache.Store {
	if kind == asset.KindTrademark {
		return d.caches.MustGet(cache.TrademarkSearch)
	}
	return d.caches.MustGet(cache.PatentSearch)
}

func (d *Dispatcher) detailCacheFor(kind asset.Kind) *cache.Store {
	if kind == asset.KindTrademark {
		return d.caches.MustGet(cache.TrademarkDetail)
	}
	return d.caches.MustGet(cache.PatentDetail)
}

// advanced reports whether the filter carries fielded criteria beyond the
// plain keyword, which routes the call to SearchAdvanced.
func advanced(f *asset.SearchFilter) bool {
	return f.Assignee != "" || f.Inventor != "" || f.Owner != "" || f.State != "" ||
		f.DateFrom != nil || f.DateTo != nil
}

// Dispatch runs the aggregate search. Results come back in
// provider-registration order with no cross-provider de-duplication: two
// sources may legitimately report the same real-world asset under different
// identifiers.
func (d *Dispatcher) Dispatch(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	start := time.Now()
	kind := filter.Kind.String()

	store := d.searchCacheFor(filter.Kind)
	key := filter.Normalize()
	if v, ok := store.Get(key); ok {
		d.metrics.RecordSearch(kind, "cache_hit", time.Since(start))
		return v.([]asset.AssetDocument), nil
	}

	providers := d.registry.ForJurisdiction(filter.Jurisdiction)
	if len(providers) == 0 {
		d.logger.Warn("no provider serves jurisdiction",
			logging.String("jurisdiction", filter.Jurisdiction))
		d.metrics.RecordSearch(kind, "empty", time.Since(start))
		return nil, nil
	}

	results := make([][]asset.AssetDocument, len(providers))
	errs := make([]error, len(providers))

	sem := make(chan struct{}, d.fanoutLimit)
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p search.Provider) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
			defer cancel()

			var (
				docs []asset.AssetDocument
				err  error
			)
			if advanced(filter) {
				docs, err = p.SearchAdvanced(callCtx, filter)
			} else {
				docs, err = p.SearchByKeyword(callCtx, filter)
			}
			if err != nil {
				d.logger.Warn("provider search failed",
					logging.String("source", p.SourceID()),
					logging.Err(err))
				d.metrics.RecordProviderError(p.SourceID())
				errs[i] = err
				return
			}
			results[i] = docs
		}(i, p)
	}
	wg.Wait()

	failed := 0
	var merged []asset.AssetDocument
	for i := range providers {
		if errs[i] != nil {
			failed++
			continue
		}
		merged = append(merged, results[i]...)
	}
	if failed == len(providers) {
		d.metrics.RecordSearch(kind, "unavailable", time.Since(start))
		return nil, errors.Newf(errors.ErrCodeSearchUnavailable,
			"all %d providers failed for jurisdiction %q", len(providers), filter.Jurisdiction)
	}

	store.Put(key, merged)
	d.metrics.RecordSearch(kind, "ok", time.Since(start))
	return merged, nil
}

// Detail returns the current normalized record for one asset, cache-aside
// against the detail-snapshot tier. On a miss the owning provider is
// resolved from the id's shape and queried directly.
func (d *Dispatcher) Detail(ctx context.Context, id string, kind asset.Kind) (*asset.AssetDocument, error) {
	store := d.detailCacheFor(kind)
	v, err := store.GetOrLoad(ctx, id, func(ctx context.Context) (any, error) {
		provider, err := d.registry.DetectSource(id)
		if err != nil {
			return nil, err
		}
		callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
		doc, err := provider.FetchDetail(callCtx, id)
		if err != nil {
			d.metrics.RecordProviderError(provider.SourceID())
			return nil, err
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*asset.AssetDocument), nil
}

// Invalidate drops the cached detail snapshot for an asset, forcing the next
// read through to the provider.
func (d *Dispatcher) Invalidate(id string, kind asset.Kind) {
	d.detailCacheFor(kind).Invalidate(id)
}
