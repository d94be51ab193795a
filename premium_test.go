package distill_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/distill"
	"github.com/stretchr/testify/assert"
)

func TestPeriodStart(t *testing.T) {
	t.Parallel()

	t.Run("returns first instant of the UTC month", func(t *testing.T) {
		t.Parallel()

		got := distill.PeriodStart(time.Date(2026, 10, 16, 13, 45, 0, 0, time.UTC))

		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("converts to UTC first", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("UTC+3", 3*60*60)
		got := distill.PeriodStart(time.Date(2026, 11, 1, 1, 0, 0, 0, loc))

		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("next period rolls over the year", func(t *testing.T) {
		t.Parallel()

		got := distill.NextPeriodStart(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))

		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestSubscription_IsActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	t.Run("active without end date", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{UserID: "u1", Status: distill.SubscriptionActive}

		assert.True(t, s.IsActive(now))
	})

	t.Run("trialing counts as active", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{UserID: "u1", Status: distill.SubscriptionTrialing, CurrentPeriodEnd: now.Add(time.Hour)}

		assert.True(t, s.IsActive(now))
	})

	t.Run("expired period is inactive", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{UserID: "u1", Status: distill.SubscriptionActive, CurrentPeriodEnd: now.Add(-time.Hour)}

		assert.False(t, s.IsActive(now))
	})

	t.Run("canceled is inactive", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{UserID: "u1", Status: distill.SubscriptionCanceled}

		assert.False(t, s.IsActive(now))
	})

	t.Run("nil is inactive", func(t *testing.T) {
		t.Parallel()

		var s *distill.Subscription

		assert.False(t, s.IsActive(now))
	})
}

func TestSubscription_Validate(t *testing.T) {
	t.Parallel()

	t.Run("requires user ID", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{Status: distill.SubscriptionActive}

		assert.Equal(t, distill.EINVALID, distill.ErrorCode(s.Validate()))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		s := &distill.Subscription{UserID: "u1", Status: "gold"}

		assert.Equal(t, distill.EINVALID, distill.ErrorCode(s.Validate()))
	})
}

func TestQuota_Usage(t *testing.T) {
	t.Parallel()

	q := &distill.Quota{
		UserID:      "u1",
		Feature:     distill.FeaturePremiumExtraction,
		PeriodStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Used:        3,
		Limit:       50,
	}

	u := q.Usage()

	assert.Equal(t, 3, u.Used)
	assert.Equal(t, 50, u.Limit)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), u.ResetsAt)
}

func TestErrorUsage(t *testing.T) {
	t.Parallel()

	t.Run("returns usage from a quota error", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("reserve: %w", &distill.QuotaError{
			Err:   distill.Errorf(distill.EQUOTA, "monthly premium quota exhausted"),
			Usage: &distill.Usage{Used: 50, Limit: 50},
		})

		assert.Equal(t, distill.EQUOTA, distill.ErrorCode(err))
		assert.Equal(t, "monthly premium quota exhausted", distill.ErrorMessage(err))
		assert.Equal(t, 50, distill.ErrorUsage(err).Used)
	})

	t.Run("returns nil for other errors", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, distill.ErrorUsage(distill.Errorf(distill.EQUOTA, "x")))
		assert.Nil(t, distill.ErrorUsage(nil))
	})
}
