package postgres

import (
	"context"

	"github.com/ipsentinel/ipsentinel/internal/domain/subscription"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// SubscriptionRepository persists subscriptions. The duplicate-active-tuple
// rule is enforced by the subscription service at creation time; the partial
// unique index in the schema only backstops a race between two creates.
type SubscriptionRepository struct {
	conn *Connection
}

func NewSubscriptionRepository(conn *Connection) *SubscriptionRepository {
	return &SubscriptionRepository{conn: conn}
}

var _ subscription.Repository = (*SubscriptionRepository)(nil)

const subscriptionColumns = `id, user_id, monitoring_type, tier, alert_frequency,
	email_enabled, dashboard_enabled, status, created_at`

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	_, err := r.conn.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sub.ID, sub.UserID, string(sub.MonitoringType), sub.Tier.String(),
		string(sub.AlertFrequency), sub.EmailEnabled, sub.DashboardEnabled,
		string(sub.Status), sub.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "create subscription")
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	row := r.conn.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeSubscriptionNotFound, "subscription %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "get subscription")
	}
	return sub, nil
}

func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	rows, err := r.conn.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list active subscriptions")
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan subscription")
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list active subscriptions")
	}
	return out, nil
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status subscription.Status) error {
	res, err := r.conn.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "update subscription status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeSubscriptionNotFound, "subscription %s not found", id)
	}
	return nil
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var (
		sub                          subscription.Subscription
		monitoringType, tier         string
		alertFrequency, status       string
	)
	err := row.Scan(&sub.ID, &sub.UserID, &monitoringType, &tier, &alertFrequency,
		&sub.EmailEnabled, &sub.DashboardEnabled, &status, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	sub.MonitoringType = subscription.MonitoringType(monitoringType)
	sub.Tier = subscription.Tier(tier)
	sub.AlertFrequency = subscription.AlertFrequency(alertFrequency)
	sub.Status = subscription.Status(status)
	return &sub, nil
}
