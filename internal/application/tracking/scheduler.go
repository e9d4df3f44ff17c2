package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/domain/lifecycle"
	"github.com/ipsentinel/ipsentinel/internal/domain/tracking"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

const (
	defaultTick        = 5 * time.Minute
	defaultBatchLimit  = 500
	defaultParallelism = 8

	renewalReminderWindow = 90 * 24 * time.Hour
	expiryWarningWindow   = 30 * 24 * time.Hour
	dedupeWindow          = 24 * time.Hour
)

// Scheduler periodically refreshes every due tracked asset: fetch the
// current record, derive its lifecycle, diff against the persisted snapshot,
// emit gated change events, and persist the fresh snapshot whether or not it
// changed. The scheduler's own tick is fixed; how often an individual asset
// is eligible is governed by its tier-derived poll interval via ListDue.
type Scheduler struct {
	repo      tracking.Repository
	fetcher   DetailFetcher
	publisher tracking.Publisher
	lock      PassLock
	dedupe    Deduper
	logger    logging.Logger
	metrics   Metrics

	tick        time.Duration
	batchLimit  int
	parallelism int
	now         func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTick sets the scheduler's own pass interval.
func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithBatchLimit caps how many due assets one pass picks up.
func WithBatchLimit(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// WithParallelism bounds concurrent per-asset refreshes within a pass.
func WithParallelism(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithPassLock installs a cross-replica pass lock.
func WithPassLock(l PassLock) SchedulerOption {
	return func(s *Scheduler) { s.lock = l }
}

// WithDeduper installs a notification dedupe window.
func WithDeduper(d Deduper) SchedulerOption {
	return func(s *Scheduler) { s.dedupe = d }
}

// WithSchedulerMetrics installs a metrics sink.
func WithSchedulerMetrics(m Metrics) SchedulerOption {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the scheduler's clock.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScheduler(repo tracking.Repository, fetcher DetailFetcher, publisher tracking.Publisher, logger logging.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Scheduler{
		repo:        repo,
		fetcher:     fetcher,
		publisher:   publisher,
		logger:      logger.Named("scheduler"),
		metrics:     nopMetrics{},
		tick:        defaultTick,
		batchLimit:  defaultBatchLimit,
		parallelism: defaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives passes off a ticker until ctx is cancelled. A pass already in
// flight runs to completion; cancellation only stops new passes.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", logging.Duration("tick", s.tick))
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunPass(context.WithoutCancel(ctx))
		}
	}
}

// RunPass executes one scheduler pass. When a pass lock is configured and
// another replica holds it, the pass is skipped silently.
func (s *Scheduler) RunPass(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.logger.Warn("pass lock unavailable", logging.Err(err))
			return
		}
		if !acquired {
			s.logger.Debug("pass skipped, lock held elsewhere")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logger.Warn("pass lock release failed", logging.Err(err))
			}
		}()
	}

	s.metrics.RecordSchedulerPass()
	now := s.now().UTC()

	assets, err := s.repo.ListDue(ctx, now, s.batchLimit)
	if err != nil {
		s.logger.Error("list due assets failed", logging.Err(err))
		return
	}
	if len(assets) == 0 {
		return
	}
	s.logger.Info("pass started", logging.Int("due", len(assets)))

	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup
	for _, ta := range assets {
		wg.Add(1)
		go func(ta *tracking.TrackedAsset) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			if err := s.refreshOne(ctx, ta, now); err != nil {
				s.logger.Warn("asset refresh failed",
					logging.String("user_id", ta.UserID),
					logging.String("asset_id", ta.AssetID),
					logging.Err(err))
				s.metrics.RecordAssetRefresh("error", time.Since(start))
				return
			}
			s.metrics.RecordAssetRefresh("ok", time.Since(start))
		}(ta)
	}
	wg.Wait()
}

// refreshOne runs the fetch → derive → diff → emit → persist sequence for a
// single tracked asset.
func (s *Scheduler) refreshOne(ctx context.Context, ta *tracking.TrackedAsset, now time.Time) error {
	// Drop the cached detail first so the fetch reflects the upstream truth
	// and readers see the refreshed value afterwards.
	s.fetcher.Invalidate(ta.AssetID, ta.Kind)
	doc, err := s.fetcher.Detail(ctx, ta.AssetID, ta.Kind)
	if err != nil {
		return err
	}

	fresh := snapshotFrom(doc, now)
	s.emitChanges(ctx, ta, fresh, now)

	// The persisted snapshot must always reflect the latest known truth,
	// changed or not.
	ta.Snapshot = fresh
	ta.LastComputedAt = now
	if err := s.repo.Put(ctx, ta); err != nil {
		return errors.Wrap(err, errors.ErrCodeSnapshotPersistFailed, "persist snapshot")
	}
	return nil
}

// snapshotFrom derives the lifecycle snapshot for a freshly fetched record.
func snapshotFrom(doc *asset.AssetDocument, now time.Time) *tracking.Snapshot {
	if doc.Kind == asset.KindTrademark {
		return &tracking.Snapshot{
			FilingDate:     doc.FilingDate,
			ExpirationDate: doc.ExpirationDate,
			Status:         lifecycle.ComputeTrademark(doc.StatusCode).String(),
			RawStatusCode:  doc.StatusCode,
		}
	}
	res := lifecycle.ComputePatent(lifecycle.PatentInput{
		ID:             doc.ID,
		FilingDate:     doc.FilingDate,
		GrantDate:      doc.GrantDate,
		ExpirationDate: doc.ExpirationDate,
		Withdrawn:      doc.Withdrawn,
		Now:            now,
	})
	return &tracking.Snapshot{
		FilingDate:     doc.FilingDate,
		GrantDate:      doc.GrantDate,
		ExpirationDate: res.ExpirationDate,
		Status:         res.Status.String(),
	}
}

// emitChanges diffs the fresh snapshot against the persisted one and emits
// the events the user's preferences allow. Emission is fire-and-forget and
// never blocks the pass.
func (s *Scheduler) emitChanges(ctx context.Context, ta *tracking.TrackedAsset, fresh *tracking.Snapshot, now time.Time) {
	prev := ta.Snapshot
	if prev != nil {
		if ta.TrackStatusChanges && prev.Status != fresh.Status {
			s.publish(tracking.NewEvent(ta.UserID, ta.AssetID, tracking.EventStatusChange,
				prev.Status, fresh.Status, lifecycle.TransitionSeverity(prev.Status, fresh.Status)))
		}
		if ta.TrackLifecycleEvents && prev.Status == fresh.Status && lifecycleFieldsChanged(prev, fresh) {
			s.publish(tracking.NewEvent(ta.UserID, ta.AssetID, tracking.EventLifecycleUpdate,
				formatSnapshot(prev), formatSnapshot(fresh), lifecycle.SeverityInfo))
		}
	}

	if ta.TrackRenewalsExpiry && fresh.ExpirationDate != nil {
		until := fresh.ExpirationDate.Sub(now)
		switch {
		case until <= expiryWarningWindow:
			if s.firstToday(ctx, ta, tracking.EventExpiryWarning, now) {
				s.publish(tracking.NewEvent(ta.UserID, ta.AssetID, tracking.EventExpiryWarning,
					fresh.Status, fresh.ExpirationDate.Format("2006-01-02"), lifecycle.SeverityWarning))
			}
		case until <= renewalReminderWindow:
			if s.firstToday(ctx, ta, tracking.EventRenewalReminder, now) {
				s.publish(tracking.NewEvent(ta.UserID, ta.AssetID, tracking.EventRenewalReminder,
					fresh.Status, fresh.ExpirationDate.Format("2006-01-02"), lifecycle.SeverityInfo))
			}
		}
	}
}

// firstToday consults the dedupe window so an asset produces at most one
// reminder of a given type per day. Without a deduper every occurrence is
// emitted.
func (s *Scheduler) firstToday(ctx context.Context, ta *tracking.TrackedAsset, typ tracking.EventType, now time.Time) bool {
	if s.dedupe == nil {
		return true
	}
	key := fmt.Sprintf("notify:%s:%s:%s:%s", ta.UserID, ta.AssetID, typ, now.Format("2006-01-02"))
	first, err := s.dedupe.First(ctx, key, dedupeWindow)
	if err != nil {
		s.logger.Warn("dedupe check failed", logging.Err(err))
		return true
	}
	return first
}

func (s *Scheduler) publish(ev tracking.TrackingEvent) {
	s.publisher.PublishAsync(ev)
	s.metrics.RecordEvent(string(ev.Type), ev.Severity.String())
}

func lifecycleFieldsChanged(a, b *tracking.Snapshot) bool {
	return !equalDate(a.GrantDate, b.GrantDate) ||
		!equalDate(a.ExpirationDate, b.ExpirationDate) ||
		a.RawStatusCode != b.RawStatusCode
}

func equalDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatSnapshot(s *tracking.Snapshot) string {
	exp := ""
	if s.ExpirationDate != nil {
		exp = s.ExpirationDate.Format("2006-01-02")
	}
	return fmt.Sprintf("status=%s exp=%s", s.Status, exp)
}
