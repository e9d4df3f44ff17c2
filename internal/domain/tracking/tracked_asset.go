// Package tracking holds the tracked-asset model the scheduler operates on:
// the per-user snapshot rows and the change events derived from them.
package tracking

import (
	"context"
	"time"

	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

// Snapshot is the last-known lifecycle state persisted for a tracked asset.
// It is replaced wholesale on every refresh, never field-patched.
type Snapshot struct {
	FilingDate     *time.Time `json:"filing_date,omitempty"`
	GrantDate      *time.Time `json:"grant_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Status         string     `json:"status"`
	RawStatusCode  string     `json:"raw_status_code,omitempty"`
}

// TrackedAsset is one (user, asset) pair under periodic monitoring.
// Rows are created on the first tracking request or first detail view and
// removed only by an explicit untrack.
type TrackedAsset struct {
	UserID  string
	AssetID string
	Kind    asset.Kind

	Snapshot       *Snapshot
	LastComputedAt time.Time

	// Per-asset notification preferences.
	TrackStatusChanges   bool
	TrackLifecycleEvents bool
	TrackRenewalsExpiry  bool

	PollInterval time.Duration
	CreatedAt    time.Time
}

// Due reports whether the asset is eligible for refresh at the given
// instant, per its tier-derived poll interval.
func (t *TrackedAsset) Due(now time.Time) bool {
	if t.LastComputedAt.IsZero() {
		return true
	}
	return now.Sub(t.LastComputedAt) >= t.PollInterval
}

// Repository is the persistence port for tracked assets, keyed by
// (UserID, AssetID).
type Repository interface {
	// Get returns (nil, nil) when no row exists for the key.
	Get(ctx context.Context, userID, assetID string) (*TrackedAsset, error)
	Put(ctx context.Context, ta *TrackedAsset) error
	Delete(ctx context.Context, userID, assetID string) error

	// ListDue returns assets whose poll interval has elapsed at the given
	// instant, up to limit rows.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*TrackedAsset, error)

	CountByUser(ctx context.Context, userID string) (int, error)
}
