package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/internal/domain/tracking"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*tracking.TrackedAsset
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*tracking.TrackedAsset)}
}

func key(userID, assetID string) string { return userID + "|" + assetID }

func (m *memRepo) Get(ctx context.Context, userID, assetID string) (*tracking.TrackedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ta, ok := m.rows[key(userID, assetID)]
	if !ok {
		return nil, nil
	}
	cp := *ta
	return &cp, nil
}

func (m *memRepo) Put(ctx context.Context, ta *tracking.TrackedAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ta
	m.rows[key(ta.UserID, ta.AssetID)] = &cp
	return nil
}

func (m *memRepo) Delete(ctx context.Context, userID, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key(userID, assetID))
	return nil
}

func (m *memRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*tracking.TrackedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tracking.TrackedAsset
	for _, ta := range m.rows {
		if ta.Due(now) && len(out) < limit {
			cp := *ta
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ta := range m.rows {
		if ta.UserID == userID {
			n++
		}
	}
	return n, nil
}

type stubFetcher struct {
	mu   sync.Mutex
	docs map[string]*asset.AssetDocument
	errs map[string]error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{docs: make(map[string]*asset.AssetDocument), errs: make(map[string]error)}
}

func (f *stubFetcher) set(doc *asset.AssetDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
}

func (f *stubFetcher) Detail(ctx context.Context, id string, kind asset.Kind) (*asset.AssetDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.NotFound("no such asset")
	}
	cp := *doc
	return &cp, nil
}

func (f *stubFetcher) Invalidate(id string, kind asset.Kind) {}

type capturePublisher struct {
	mu     sync.Mutex
	events []tracking.TrackingEvent
}

func (c *capturePublisher) PublishAsync(ev tracking.TrackingEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturePublisher) all() []tracking.TrackingEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tracking.TrackingEvent(nil), c.events...)
}

var schedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func trackedPatent(prefs Preferences) *tracking.TrackedAsset {
	filing := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
	return &tracking.TrackedAsset{
		UserID:  "u1",
		AssetID: "EP3121232A1",
		Kind:    asset.KindPatent,
		Snapshot: &tracking.Snapshot{
			FilingDate:     &filing,
			Status:         "PENDING",
			ExpirationDate: ptrDate(2040, 1, 10),
		},
		LastComputedAt:       schedNow.Add(-48 * time.Hour),
		TrackStatusChanges:   prefs.TrackStatusChanges,
		TrackLifecycleEvents: prefs.TrackLifecycleEvents,
		TrackRenewalsExpiry:  prefs.TrackRenewalsExpiry,
		PollInterval:         24 * time.Hour,
	}
}

func ptrDate(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func pendingDoc() *asset.AssetDocument {
	return &asset.AssetDocument{
		ID:         "EP3121232A1",
		Source:     "EPO",
		Kind:       asset.KindPatent,
		FilingDate: ptrDate(2020, 1, 10),
	}
}

func newTestScheduler(repo tracking.Repository, fetcher DetailFetcher, pub tracking.Publisher, opts ...SchedulerOption) *Scheduler {
	opts = append([]SchedulerOption{WithClock(func() time.Time { return schedNow })}, opts...)
	return NewScheduler(repo, fetcher, pub, nil, opts...)
}

func TestScheduler_StatusChangeEmitsExactlyOneEvent(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackStatusChanges: true})
	require.NoError(t, repo.Put(ctx, ta))

	granted := pendingDoc()
	granted.GrantDate = ptrDate(2025, 5, 1)
	fetcher.set(granted)

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, tracking.EventStatusChange, events[0].Type)
	assert.Equal(t, "PENDING", events[0].Previous)
	assert.Equal(t, "GRANTED", events[0].Current)

	stored, err := repo.Get(ctx, "u1", "EP3121232A1")
	require.NoError(t, err)
	assert.Equal(t, "GRANTED", stored.Snapshot.Status)
	assert.Equal(t, schedNow, stored.LastComputedAt)
}

func TestScheduler_IdempotentCyclesEmitNothingButTouchLastComputedAt(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackStatusChanges: true, TrackLifecycleEvents: true})
	ta.PollInterval = 0
	require.NoError(t, repo.Put(ctx, ta))
	fetcher.set(pendingDoc())

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)
	first, err := repo.Get(ctx, "u1", "EP3121232A1")
	require.NoError(t, err)

	s.RunPass(ctx)
	second, err := repo.Get(ctx, "u1", "EP3121232A1")
	require.NoError(t, err)

	assert.Empty(t, pub.all())
	assert.Equal(t, first.Snapshot.Status, second.Snapshot.Status)
	assert.Equal(t, schedNow, second.LastComputedAt)
}

func TestScheduler_StatusChangeSuppressedWithoutPreference(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, trackedPatent(Preferences{})))
	granted := pendingDoc()
	granted.GrantDate = ptrDate(2025, 5, 1)
	fetcher.set(granted)

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)

	assert.Empty(t, pub.all(), "no preference flag, no event")

	stored, err := repo.Get(ctx, "u1", "EP3121232A1")
	require.NoError(t, err)
	assert.Equal(t, "GRANTED", stored.Snapshot.Status, "snapshot persisted regardless")
}

func TestScheduler_PerAssetFailureDoesNotAbortThePass(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	broken := trackedPatent(Preferences{TrackStatusChanges: true})
	broken.AssetID = "EP9999999A1"
	require.NoError(t, repo.Put(ctx, broken))
	fetcher.errs["EP9999999A1"] = errors.New(errors.ErrCodeSourceUnavailable, "upstream down")

	ok := trackedPatent(Preferences{TrackStatusChanges: true})
	require.NoError(t, repo.Put(ctx, ok))
	granted := pendingDoc()
	granted.GrantDate = ptrDate(2025, 5, 1)
	fetcher.set(granted)

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, "EP3121232A1", events[0].AssetID)

	// The failed asset keeps its old snapshot and remains due.
	stale, err := repo.Get(ctx, "u1", "EP9999999A1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stale.Snapshot.Status)
	assert.NotEqual(t, schedNow, stale.LastComputedAt)
}

func TestScheduler_ExpiryWarningWithinThirtyDays(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackRenewalsExpiry: true})
	require.NoError(t, repo.Put(ctx, ta))

	doc := pendingDoc()
	doc.GrantDate = ptrDate(2021, 1, 1)
	doc.ExpirationDate = ptrDate(2025, 7, 1) // 16 days out
	fetcher.set(doc)

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)

	var warnings []tracking.TrackingEvent
	for _, ev := range pub.all() {
		if ev.Type == tracking.EventExpiryWarning {
			warnings = append(warnings, ev)
		}
	}
	require.Len(t, warnings, 1)
	assert.Equal(t, "2025-07-01", warnings[0].Current)
}

func TestScheduler_RenewalReminderWithinNinetyDays(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackRenewalsExpiry: true})
	require.NoError(t, repo.Put(ctx, ta))

	doc := pendingDoc()
	doc.GrantDate = ptrDate(2021, 1, 1)
	doc.ExpirationDate = ptrDate(2025, 8, 20) // 66 days out
	fetcher.set(doc)

	s := newTestScheduler(repo, fetcher, pub)
	s.RunPass(ctx)

	var reminders []tracking.TrackingEvent
	for _, ev := range pub.all() {
		if ev.Type == tracking.EventRenewalReminder {
			reminders = append(reminders, ev)
		}
	}
	require.Len(t, reminders, 1)
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeDeduper) First(ctx context.Context, key string, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func TestScheduler_ReminderDedupedPerAssetPerDay(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackRenewalsExpiry: true})
	ta.PollInterval = 0
	require.NoError(t, repo.Put(ctx, ta))

	doc := pendingDoc()
	doc.ExpirationDate = ptrDate(2025, 7, 1)
	fetcher.set(doc)

	s := newTestScheduler(repo, fetcher, pub, WithDeduper(&fakeDeduper{}))
	s.RunPass(ctx)
	s.RunPass(ctx)

	require.Len(t, pub.all(), 1, "second pass in the same day is deduped")
}

type fakeLock struct {
	held     bool
	acquires int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.held = false
	return nil
}

func TestScheduler_PassSkippedWhenLockHeldElsewhere(t *testing.T) {
	repo := newMemRepo()
	fetcher := newStubFetcher()
	pub := &capturePublisher{}
	ctx := context.Background()

	ta := trackedPatent(Preferences{TrackStatusChanges: true})
	require.NoError(t, repo.Put(ctx, ta))
	granted := pendingDoc()
	granted.GrantDate = ptrDate(2025, 5, 1)
	fetcher.set(granted)

	lock := &fakeLock{held: true}
	s := newTestScheduler(repo, fetcher, pub, WithPassLock(lock))
	s.RunPass(ctx)

	assert.Empty(t, pub.all())
	stored, err := repo.Get(ctx, "u1", "EP3121232A1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stored.Snapshot.Status)

	lock.held = false
	s.RunPass(ctx)
	assert.Len(t, pub.all(), 1)
	assert.False(t, lock.held, "lock released after the pass")
}
