package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/domain/tracking"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

// TrackedAssetRepository persists tracked assets keyed by (user_id,
// asset_id). The lifecycle snapshot is stored as a jsonb document since it
// is always read and replaced wholesale.
type TrackedAssetRepository struct {
	conn *Connection
}

func NewTrackedAssetRepository(conn *Connection) *TrackedAssetRepository {
	return &TrackedAssetRepository{conn: conn}
}

var _ tracking.Repository = (*TrackedAssetRepository)(nil)

const trackedAssetColumns = `user_id, asset_id, kind, snapshot, last_computed_at,
	track_status_changes, track_lifecycle_events, track_renewals_expiry,
	poll_interval_seconds, created_at`

func (r *TrackedAssetRepository) Get(ctx context.Context, userID, assetID string) (*tracking.TrackedAsset, error) {
	row := r.conn.db.QueryRowContext(ctx,
		`SELECT `+trackedAssetColumns+` FROM tracked_assets WHERE user_id = $1 AND asset_id = $2`,
		userID, assetID)
	ta, err := scanTrackedAsset(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "get tracked asset")
	}
	return ta, nil
}

func (r *TrackedAssetRepository) Put(ctx context.Context, ta *tracking.TrackedAsset) error {
	snapshot, err := json.Marshal(ta.Snapshot)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal snapshot")
	}
	var lastComputed *time.Time
	if !ta.LastComputedAt.IsZero() {
		lastComputed = &ta.LastComputedAt
	}
	createdAt := ta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.conn.db.ExecContext(ctx, `
		INSERT INTO tracked_assets (`+trackedAssetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, asset_id) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			last_computed_at = EXCLUDED.last_computed_at,
			track_status_changes = EXCLUDED.track_status_changes,
			track_lifecycle_events = EXCLUDED.track_lifecycle_events,
			track_renewals_expiry = EXCLUDED.track_renewals_expiry,
			poll_interval_seconds = EXCLUDED.poll_interval_seconds`,
		ta.UserID, ta.AssetID, ta.Kind.String(), snapshot, lastComputed,
		ta.TrackStatusChanges, ta.TrackLifecycleEvents, ta.TrackRenewalsExpiry,
		int64(ta.PollInterval/time.Second), createdAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "put tracked asset")
	}
	return nil
}

func (r *TrackedAssetRepository) Delete(ctx context.Context, userID, assetID string) error {
	res, err := r.conn.db.ExecContext(ctx,
		`DELETE FROM tracked_assets WHERE user_id = $1 AND asset_id = $2`,
		userID, assetID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "delete tracked asset")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeNotTracked, "asset %s is not tracked by user %s", assetID, userID)
	}
	return nil
}

// ListDue returns the assets whose poll interval has elapsed, oldest
// refresh first so a bounded batch drains the most overdue work.
func (r *TrackedAssetRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*tracking.TrackedAsset, error) {
	rows, err := r.conn.db.QueryContext(ctx, `
		SELECT `+trackedAssetColumns+` FROM tracked_assets
		WHERE last_computed_at IS NULL
		   OR last_computed_at + poll_interval_seconds * interval '1 second' <= $1
		ORDER BY last_computed_at ASC NULLS FIRST
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list due assets")
	}
	defer rows.Close()

	var out []*tracking.TrackedAsset
	for rows.Next() {
		ta, err := scanTrackedAsset(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan tracked asset")
		}
		out = append(out, ta)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list due assets")
	}
	return out, nil
}

// ListByUser returns every asset the user tracks, newest first. Not part of
// the tracking.Repository port; the CLI listing is the only caller.
func (r *TrackedAssetRepository) ListByUser(ctx context.Context, userID string) ([]*tracking.TrackedAsset, error) {
	rows, err := r.conn.db.QueryContext(ctx, `
		SELECT `+trackedAssetColumns+` FROM tracked_assets
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list tracked assets")
	}
	defer rows.Close()

	var out []*tracking.TrackedAsset
	for rows.Next() {
		ta, err := scanTrackedAsset(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan tracked asset")
		}
		out = append(out, ta)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list tracked assets")
	}
	return out, nil
}

func (r *TrackedAssetRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.conn.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracked_assets WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "count tracked assets")
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrackedAsset(row rowScanner) (*tracking.TrackedAsset, error) {
	var (
		ta           tracking.TrackedAsset
		kind         string
		snapshot     []byte
		lastComputed sql.NullTime
		pollSeconds  int64
	)
	err := row.Scan(&ta.UserID, &ta.AssetID, &kind, &snapshot, &lastComputed,
		&ta.TrackStatusChanges, &ta.TrackLifecycleEvents, &ta.TrackRenewalsExpiry,
		&pollSeconds, &ta.CreatedAt)
	if err != nil {
		return nil, err
	}
	ta.Kind = asset.Kind(kind)
	if lastComputed.Valid {
		ta.LastComputedAt = lastComputed.Time
	}
	ta.PollInterval = time.Duration(pollSeconds) * time.Second
	if len(snapshot) > 0 && string(snapshot) != "null" {
		var s tracking.Snapshot
		if err := json.Unmarshal(snapshot, &s); err != nil {
			return nil, err
		}
		ta.Snapshot = &s
	}
	return &ta, nil
}
