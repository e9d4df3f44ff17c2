// Package tracking implements the lifecycle-tracking engine: the track and
// untrack operations gated by subscription limits, and the scheduler that
// re-polls tracked assets and emits change events.
package tracking

import (
	"context"
	"time"

	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

// DetailFetcher is the slice of the search dispatcher the engine uses to
// refresh an asset's current state.
type DetailFetcher interface {
	Detail(ctx context.Context, id string, kind asset.Kind) (*asset.AssetDocument, error)
	Invalidate(id string, kind asset.Kind)
}

// PassLock serializes scheduler passes across replicas. Acquire returns
// false without error when another holder owns the lock.
type PassLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Deduper suppresses repeat notifications inside a window. First reports
// whether this is the first occurrence of key within the window.
type Deduper interface {
	First(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Metrics is the slice of the metrics collector the engine feeds.
type Metrics interface {
	RecordSchedulerPass()
	RecordAssetRefresh(outcome string, d time.Duration)
	RecordEvent(eventType, severity string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSchedulerPass()                        {}
func (nopMetrics) RecordAssetRefresh(string, time.Duration)    {}
func (nopMetrics) RecordEvent(string, string)                  {}
