package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_UpsertSubscription(t *testing.T) {
	t.Parallel()

	t.Run("creates subscription with generated ID", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSubscriptionService(setupTestDB(t))
		ctx := context.Background()
		end := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

		sub := &distill.Subscription{UserID: "user-1", Plan: "pro", Status: distill.SubscriptionActive, CurrentPeriodEnd: end}
		require.NoError(t, svc.UpsertSubscription(ctx, sub))

		assert.NotEmpty(t, sub.ID)
		assert.False(t, sub.UpdatedAt.IsZero())

		got, err := svc.FindSubscriptionByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
		assert.Equal(t, "pro", got.Plan)
		assert.Equal(t, distill.SubscriptionActive, got.Status)
		assert.True(t, end.Equal(got.CurrentPeriodEnd))
	})

	t.Run("updates in place and keeps the ID", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSubscriptionService(setupTestDB(t))
		ctx := context.Background()

		first := &distill.Subscription{UserID: "user-1", Plan: "pro", Status: distill.SubscriptionActive}
		require.NoError(t, svc.UpsertSubscription(ctx, first))

		second := &distill.Subscription{UserID: "user-1", Plan: "pro", Status: distill.SubscriptionCanceled}
		require.NoError(t, svc.UpsertSubscription(ctx, second))

		assert.Equal(t, first.ID, second.ID)
		got, err := svc.FindSubscriptionByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, distill.SubscriptionCanceled, got.Status)
		assert.True(t, got.CurrentPeriodEnd.IsZero())
	})

	t.Run("rejects invalid subscription", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSubscriptionService(setupTestDB(t))

		err := svc.UpsertSubscription(context.Background(), &distill.Subscription{UserID: "u", Status: "lifetime"})

		assert.Equal(t, distill.EINVALID, distill.ErrorCode(err))
	})
}

func TestSubscriptionService_FindSubscriptionByUserID(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewSubscriptionService(setupTestDB(t))

	_, err := svc.FindSubscriptionByUserID(context.Background(), "nobody")

	assert.Equal(t, distill.ENOTFOUND, distill.ErrorCode(err))
}
