package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/distill"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ distill.SubscriptionService = (*SubscriptionService)(nil)

// SubscriptionService implements distill.SubscriptionService using SQLite.
// Each user has at most one subscription row.
type SubscriptionService struct {
	db *DB
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(db *DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// FindSubscriptionByUserID retrieves the user's subscription.
func (s *SubscriptionService) FindSubscriptionByUserID(ctx context.Context, userID string) (*distill.Subscription, error) {
	var sub distill.Subscription
	var periodEnd, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plan, status, current_period_end, updated_at
		FROM subscriptions
		WHERE user_id = ?
	`, userID).Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &periodEnd, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, distill.Errorf(distill.ENOTFOUND, "subscription not found")
	}
	if err != nil {
		return nil, err
	}

	if sub.CurrentPeriodEnd, err = parseRFC3339(periodEnd, "current_period_end"); err != nil {
		return nil, err
	}
	if sub.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription creates the user's subscription or replaces its plan,
// status and period end. The row ID is stable across updates.
func (s *SubscriptionService) UpsertSubscription(ctx context.Context, sub *distill.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (id, user_id, plan, status, current_period_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			current_period_end = excluded.current_period_end,
			updated_at = excluded.updated_at
		RETURNING id
	`, uuid.New().String(), sub.UserID, sub.Plan, sub.Status, formatTime(sub.CurrentPeriodEnd),
		formatTime(now), formatTime(now)).Scan(&sub.ID)
	if err != nil {
		return err
	}

	sub.UpdatedAt = now
	return nil
}
