package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/internal/domain/subscription"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

type subRepo struct {
	subs []*subscription.Subscription
}

func (m *subRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.subs = append(m.subs, sub)
	return nil
}

func (m *subRepo) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	return nil, errors.NotFound("subscription not found")
}

func (m *subRepo) ListActiveByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == subscription.StatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *subRepo) UpdateStatus(ctx context.Context, id string, status subscription.Status) error {
	return nil
}

func newTrackService(t *testing.T, repo *memRepo, fetcher *stubFetcher, tier subscription.Tier) *Service {
	t.Helper()
	sr := &subRepo{}
	subs := subscription.NewService(sr, repo, nil)
	_, err := subs.Create(context.Background(), subscription.CreateRequest{
		UserID:         "u1",
		MonitoringType: subscription.MonitorPatents,
		Tier:           tier,
		AlertFrequency: subscription.AlertDaily,
	})
	require.NoError(t, err)
	return NewService(repo, subs, fetcher, nil)
}

func TestService_TrackSeedsSnapshotAndTierInterval(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	fetcher.set(pendingDoc())
	svc := newTrackService(t, repo, fetcher, subscription.TierProfessional)

	ta, err := svc.Track(context.Background(), "u1", "EP3121232A1", asset.KindPatent, DefaultPreferences())
	require.NoError(t, err)

	assert.Equal(t, "PENDING", ta.Snapshot.Status)
	assert.Equal(t, 6*time.Hour, ta.PollInterval)
	assert.NotNil(t, ta.Snapshot.ExpirationDate)
	assert.Equal(t, "2040-01-10", ta.Snapshot.ExpirationDate.Format("2006-01-02"))
}

func TestService_TrackWithoutSubscription(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	fetcher.set(pendingDoc())
	subs := subscription.NewService(&subRepo{}, repo, nil)
	svc := NewService(repo, subs, fetcher, nil)

	_, err := svc.Track(context.Background(), "u1", "EP3121232A1", asset.KindPatent, DefaultPreferences())
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionRequired))
}

func TestService_TrackEnforcesTierLimit(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	svc := newTrackService(t, repo, fetcher, subscription.TierBasic)
	ctx := context.Background()

	ids := []string{"EP0000001A1", "EP0000002A1", "EP0000003A1", "EP0000004A1", "EP0000005A1"}
	for _, id := range ids {
		doc := pendingDoc()
		doc.ID = id
		fetcher.set(doc)
		_, err := svc.Track(ctx, "u1", id, asset.KindPatent, DefaultPreferences())
		require.NoError(t, err, id)
	}

	doc := pendingDoc()
	doc.ID = "EP0000006A1"
	fetcher.set(doc)
	_, err := svc.Track(ctx, "u1", "EP0000006A1", asset.KindPatent, DefaultPreferences())
	assert.True(t, errors.IsCode(err, errors.ErrCodeTrackingLimitExceeded))
}

func TestService_TrackUnknownAsset(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	svc := newTrackService(t, repo, fetcher, subscription.TierBasic)

	_, err := svc.Track(context.Background(), "u1", "EP404", asset.KindPatent, DefaultPreferences())
	assert.True(t, errors.IsCode(err, errors.ErrCodeAssetNotFound))
}

func TestService_TrackTwiceOnlyUpdatesPreferences(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	fetcher.set(pendingDoc())
	svc := newTrackService(t, repo, fetcher, subscription.TierBasic)
	ctx := context.Background()

	_, err := svc.Track(ctx, "u1", "EP3121232A1", asset.KindPatent, DefaultPreferences())
	require.NoError(t, err)

	ta, err := svc.Track(ctx, "u1", "EP3121232A1", asset.KindPatent, Preferences{TrackStatusChanges: true})
	require.NoError(t, err)
	assert.True(t, ta.TrackStatusChanges)
	assert.False(t, ta.TrackRenewalsExpiry)

	n, err := repo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_Untrack(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	fetcher.set(pendingDoc())
	svc := newTrackService(t, repo, fetcher, subscription.TierBasic)
	ctx := context.Background()

	_, err := svc.Track(ctx, "u1", "EP3121232A1", asset.KindPatent, DefaultPreferences())
	require.NoError(t, err)

	require.NoError(t, svc.Untrack(ctx, "u1", "EP3121232A1"))

	n, err := repo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	err = svc.Untrack(ctx, "u1", "EP3121232A1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotTracked))
}
