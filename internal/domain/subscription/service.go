package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// Repository is the persistence port for subscriptions.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*Subscription, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// TrackedCounter reports how many assets a user currently tracks. Implemented
// by the tracking repository; declared here so the gate does not import it.
type TrackedCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

// CreateRequest carries the configuration for a new subscription.
type CreateRequest struct {
	UserID           string
	MonitoringType   MonitoringType
	Tier             Tier
	AlertFrequency   AlertFrequency
	EmailEnabled     bool
	DashboardEnabled bool
}

// Service enforces the tier-gating rules on top of the repository.
type Service struct {
	repo    Repository
	tracked TrackedCounter
	logger  logging.Logger
}

func NewService(repo Repository, tracked TrackedCounter, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{repo: repo, tracked: tracked, logger: logger.Named("subscription")}
}

// LimitsFor resolves a tier into its static limits.
func (s *Service) LimitsFor(tier Tier) (TierLimits, error) {
	return LimitsFor(tier)
}

// RequireActive returns the user's ACTIVE subscription for the given
// monitoring type, or ErrCodeSubscriptionRequired when none exists.
func (s *Service) RequireActive(ctx context.Context, userID string, typ MonitoringType) (*Subscription, error) {
	subs, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list active subscriptions")
	}
	for _, sub := range subs {
		if sub.MonitoringType == typ && sub.IsActive() {
			return sub, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeSubscriptionRequired,
		"no active %s subscription for user %s", typ, userID)
}

// Create adds a subscription after rejecting a duplicate ACTIVE row for the
// exact configuration tuple. The check runs here, at creation time; the
// partial unique index in the schema is only a backstop.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Subscription, error) {
	if req.UserID == "" {
		return nil, errors.InvalidParam("user id is required")
	}
	if _, err := LimitsFor(req.Tier); err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		MonitoringType:   req.MonitoringType,
		Tier:             req.Tier,
		AlertFrequency:   req.AlertFrequency,
		EmailEnabled:     req.EmailEnabled,
		DashboardEnabled: req.DashboardEnabled,
		Status:           StatusActive,
		CreatedAt:        time.Now().UTC(),
	}

	existing, err := s.repo.ListActiveByUser(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list active subscriptions")
	}
	tuple := sub.ConfigTuple()
	for _, other := range existing {
		if other.IsActive() && other.ConfigTuple() == tuple {
			return nil, errors.Newf(errors.ErrCodeDuplicateSubscription,
				"an active subscription with this configuration already exists for user %s", req.UserID)
		}
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create subscription")
	}
	s.logger.Info("subscription created",
		logging.String("subscription_id", sub.ID),
		logging.String("user_id", sub.UserID),
		logging.String("tier", sub.Tier.String()))
	return sub, nil
}

// AuthorizeTracking checks that tracking one more asset stays within the
// user's tier limit. It returns the subscription's limits so the caller can
// reuse the poll interval without a second lookup.
func (s *Service) AuthorizeTracking(ctx context.Context, userID string, typ MonitoringType) (TierLimits, error) {
	sub, err := s.RequireActive(ctx, userID, typ)
	if err != nil {
		return TierLimits{}, err
	}
	limits, err := LimitsFor(sub.Tier)
	if err != nil {
		return TierLimits{}, err
	}
	count, err := s.tracked.CountByUser(ctx, userID)
	if err != nil {
		return TierLimits{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "count tracked assets")
	}
	if count >= limits.MaxTrackedAssets {
		return TierLimits{}, errors.Newf(errors.ErrCodeTrackingLimitExceeded,
			"tier %s allows at most %d tracked assets", sub.Tier, limits.MaxTrackedAssets)
	}
	return limits, nil
}
