package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

type memRepo struct {
	subs []*Subscription
}

func (m *memRepo) Create(ctx context.Context, sub *Subscription) error {
	m.subs = append(m.subs, sub)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*Subscription, error) {
	for _, s := range m.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.NotFound("subscription not found")
}

func (m *memRepo) ListActiveByUser(ctx context.Context, userID string) ([]*Subscription, error) {
	var out []*Subscription
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == StatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	for _, s := range m.subs {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return errors.NotFound("subscription not found")
}

type fixedCounter struct{ n int }

func (f fixedCounter) CountByUser(ctx context.Context, userID string) (int, error) {
	return f.n, nil
}

func basicRequest() CreateRequest {
	return CreateRequest{
		UserID:         "u1",
		MonitoringType: MonitorPatents,
		Tier:           TierBasic,
		AlertFrequency: AlertDaily,
		EmailEnabled:   true,
	}
}

func TestLimitsFor(t *testing.T) {
	basic, err := LimitsFor(TierBasic)
	require.NoError(t, err)
	assert.Equal(t, TierLimits{MaxTrackedAssets: 5, PollInterval: 24 * time.Hour}, basic)

	pro, err := LimitsFor(TierProfessional)
	require.NoError(t, err)
	assert.Equal(t, TierLimits{MaxTrackedAssets: 50, PollInterval: 6 * time.Hour}, pro)

	ent, err := LimitsFor(TierEnterprise)
	require.NoError(t, err)
	assert.Equal(t, TierLimits{MaxTrackedAssets: 500, PollInterval: time.Hour, RealTimeAlerts: true}, ent)

	_, err = LimitsFor(Tier("GOLD"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTier))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" basic ")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, tier)

	_, err = ParseTier("platinum")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTier))
}

func TestService_CreateRejectsDuplicateActiveTuple(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, fixedCounter{}, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, basicRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, first.Status)

	_, err = svc.Create(ctx, basicRequest())
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateSubscription))

	// A different tuple for the same user is allowed.
	req := basicRequest()
	req.AlertFrequency = AlertWeekly
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err)

	// Cancelling the original frees its tuple.
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, StatusCancelled))
	_, err = svc.Create(ctx, basicRequest())
	assert.NoError(t, err)
}

func TestService_RequireActive(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, fixedCounter{}, nil)
	ctx := context.Background()

	_, err := svc.RequireActive(ctx, "u1", MonitorPatents)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionRequired))

	_, err = svc.Create(ctx, basicRequest())
	require.NoError(t, err)

	sub, err := svc.RequireActive(ctx, "u1", MonitorPatents)
	require.NoError(t, err)
	assert.Equal(t, TierBasic, sub.Tier)

	// Patent subscription does not satisfy a trademark requirement.
	_, err = svc.RequireActive(ctx, "u1", MonitorTrademarks)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionRequired))
}

func TestService_AuthorizeTracking(t *testing.T) {
	repo := &memRepo{}
	ctx := context.Background()

	svc := NewService(repo, fixedCounter{n: 4}, nil)
	_, err := svc.Create(ctx, basicRequest())
	require.NoError(t, err)

	limits, err := svc.AuthorizeTracking(ctx, "u1", MonitorPatents)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, limits.PollInterval)

	// At the cap the next request is rejected.
	atCap := NewService(repo, fixedCounter{n: 5}, nil)
	_, err = atCap.AuthorizeTracking(ctx, "u1", MonitorPatents)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTrackingLimitExceeded))
}
