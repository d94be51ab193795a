package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/distill"
)

// Compile-time interface verification.
var _ distill.QuotaService = (*QuotaService)(nil)

// QuotaService implements distill.QuotaService using SQLite.
//
// Rows are created lazily by the first reservation in a period. The limit is
// enforced inside a single conditional upsert, so concurrent reservations
// can never push usage past it.
type QuotaService struct {
	db *DB
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(db *DB) *QuotaService {
	return &QuotaService{db: db}
}

// FindQuota returns usage for the period starting at periodStart.
func (s *QuotaService) FindQuota(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error) {
	q := &distill.Quota{
		UserID:      userID,
		Feature:     feature,
		PeriodStart: periodStart.UTC(),
		Limit:       limit,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT used
		FROM premium_quotas
		WHERE user_id = ? AND feature = ? AND period_start = ?
	`, userID, feature, formatTime(periodStart)).Scan(&q.Used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return q, nil
}

// Reserve consumes one unit of the period's quota.
func (s *QuotaService) Reserve(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error) {
	if limit <= 0 {
		q, err := s.FindQuota(ctx, userID, feature, periodStart, limit)
		if err != nil {
			return nil, err
		}
		return q, distill.Errorf(distill.EQUOTA, "monthly limit reached")
	}

	var used int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO premium_quotas (user_id, feature, period_start, used, quota_limit, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, feature, period_start) DO UPDATE SET
			used = used + 1,
			quota_limit = excluded.quota_limit,
			updated_at = excluded.updated_at
		WHERE premium_quotas.used < excluded.quota_limit
		RETURNING used
	`, userID, feature, formatTime(periodStart), limit, formatTime(time.Now())).Scan(&used)

	if errors.Is(err, sql.ErrNoRows) {
		q, err := s.FindQuota(ctx, userID, feature, periodStart, limit)
		if err != nil {
			return nil, err
		}
		return q, distill.Errorf(distill.EQUOTA, "monthly limit reached")
	}
	if err != nil {
		return nil, err
	}

	return &distill.Quota{
		UserID:      userID,
		Feature:     feature,
		PeriodStart: periodStart.UTC(),
		Used:        used,
		Limit:       limit,
	}, nil
}

// Release returns one unit to the period's quota. Releasing an unused
// period is a no-op.
func (s *QuotaService) Release(ctx context.Context, userID, feature string, periodStart time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE premium_quotas
		SET used = used - 1, updated_at = ?
		WHERE user_id = ? AND feature = ? AND period_start = ? AND used > 0
	`, formatTime(time.Now()), userID, feature, formatTime(periodStart))
	return err
}

// PruneQuotas deletes records of periods that started before cutoff.
func (s *QuotaService) PruneQuotas(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM premium_quotas WHERE period_start < ?
	`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
