package tracking

import (
	"context"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/domain/subscription"
	"github.com/ipsentinel/ipsentinel/internal/domain/tracking"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

// Preferences are the per-asset notification switches.
type Preferences struct {
	TrackStatusChanges   bool
	TrackLifecycleEvents bool
	TrackRenewalsExpiry  bool
}

// DefaultPreferences enables every notification class.
func DefaultPreferences() Preferences {
	return Preferences{TrackStatusChanges: true, TrackLifecycleEvents: true, TrackRenewalsExpiry: true}
}

// Service implements the track and untrack operations.
type Service struct {
	repo    tracking.Repository
	subs    *subscription.Service
	fetcher DetailFetcher
	logger  logging.Logger
	now     func() time.Time
}

func NewService(repo tracking.Repository, subs *subscription.Service, fetcher DetailFetcher, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		repo:    repo,
		subs:    subs,
		fetcher: fetcher,
		logger:  logger.Named("tracking"),
		now:     time.Now,
	}
}

func monitoringTypeFor(kind asset.Kind) subscription.MonitoringType {
	if kind == asset.KindTrademark {
		return subscription.MonitorTrademarks
	}
	return subscription.MonitorPatents
}

// Track starts monitoring an asset for a user. The user's subscription is
// checked for headroom first; the initial snapshot is seeded from a live
// detail fetch so the first scheduler pass has a baseline to diff against.
// Tracking an already-tracked asset only updates its preferences.
func (s *Service) Track(ctx context.Context, userID, assetID string, kind asset.Kind, prefs Preferences) (*tracking.TrackedAsset, error) {
	if userID == "" || assetID == "" {
		return nil, errors.InvalidParam("user id and asset id are required")
	}
	if !kind.Valid() {
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown asset kind %q", kind)
	}

	if existing, err := s.repo.Get(ctx, userID, assetID); err == nil && existing != nil {
		existing.TrackStatusChanges = prefs.TrackStatusChanges
		existing.TrackLifecycleEvents = prefs.TrackLifecycleEvents
		existing.TrackRenewalsExpiry = prefs.TrackRenewalsExpiry
		if err := s.repo.Put(ctx, existing); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "update tracked asset")
		}
		return existing, nil
	}

	limits, err := s.subs.AuthorizeTracking(ctx, userID, monitoringTypeFor(kind))
	if err != nil {
		return nil, err
	}

	doc, err := s.fetcher.Detail(ctx, assetID, kind)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeAssetNotFound, "asset not found upstream")
		}
		return nil, err
	}

	now := s.now().UTC()
	ta := &tracking.TrackedAsset{
		UserID:               userID,
		AssetID:              assetID,
		Kind:                 kind,
		Snapshot:             snapshotFrom(doc, now),
		LastComputedAt:       now,
		TrackStatusChanges:   prefs.TrackStatusChanges,
		TrackLifecycleEvents: prefs.TrackLifecycleEvents,
		TrackRenewalsExpiry:  prefs.TrackRenewalsExpiry,
		PollInterval:         limits.PollInterval,
		CreatedAt:            now,
	}
	if err := s.repo.Put(ctx, ta); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSnapshotPersistFailed, "persist tracked asset")
	}
	s.logger.Info("asset tracked",
		logging.String("user_id", userID),
		logging.String("asset_id", assetID),
		logging.String("kind", kind.String()))
	return ta, nil
}

// Untrack stops monitoring an asset. Untracking is the only way a tracked
// asset is ever removed.
func (s *Service) Untrack(ctx context.Context, userID, assetID string) error {
	ta, err := s.repo.Get(ctx, userID, assetID)
	if err != nil {
		return err
	}
	if ta == nil {
		return errors.Newf(errors.ErrCodeNotTracked, "asset %s is not tracked by user %s", assetID, userID)
	}
	if err := s.repo.Delete(ctx, userID, assetID); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "delete tracked asset")
	}
	s.logger.Info("asset untracked",
		logging.String("user_id", userID),
		logging.String("asset_id", assetID))
	return nil
}
