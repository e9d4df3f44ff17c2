// Package cache provides the in-process named snapshot caches: TTL and
// size bounded, safe for concurrent request and scheduler access.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// Store is one named cache tier. Values are opaque and replaced wholesale;
// the store never mutates an entry in place. Eviction is LRU under the size
// cap, and entries silently expire after the TTL.
type Store struct {
	name    string
	entries *lru.LRU[string, any]
	group   singleflight.Group

	hit  func(name string)
	miss func(name string)
}

// Option configures a Store.
type Option func(*Store)

// WithCounters installs hit/miss callbacks, used to feed the metrics
// collector without the cache importing it.
func WithCounters(hit, miss func(name string)) Option {
	return func(s *Store) {
		s.hit = hit
		s.miss = miss
	}
}

// NewStore builds a named cache bounded to cap entries with the given TTL.
func NewStore(name string, cap int, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		name:    name,
		entries: lru.NewLRU[string, any](cap, nil, ttl),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the cache's registry name.
func (s *Store) Name() string { return s.name }

// Get returns the cached value for key, if present and unexpired.
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.entries.Get(key)
	if ok {
		if s.hit != nil {
			s.hit(s.name)
		}
		return v, true
	}
	if s.miss != nil {
		s.miss(s.name)
	}
	return nil, false
}

// Put stores value under key, replacing any previous entry.
func (s *Store) Put(key string, value any) {
	s.entries.Add(key, value)
}

// Invalidate drops the entry for key, if any.
func (s *Store) Invalidate(key string) {
	s.entries.Remove(key)
}

// Purge drops every entry.
func (s *Store) Purge() {
	s.entries.Purge()
}

// Len returns the current entry count.
func (s *Store) Len() int {
	return s.entries.Len()
}

// GetOrLoad returns the cached value for key, invoking load on a miss and
// storing its result. Concurrent misses for the same key are coalesced into
// a single load. A load error is returned to every waiter and nothing is
// cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.entries.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnknown, "load "+s.name)
	}
	return v, nil
}
