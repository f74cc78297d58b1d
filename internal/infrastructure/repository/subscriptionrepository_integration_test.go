package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

func createTestSubscription(t *testing.T, repo subscription.Repository, customerID uint, mutate func(*subscription.Subscription)) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(customerID, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	if mutate != nil {
		mutate(sub)
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func TestSubscriptionRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("create assigns an ID and round-trips", func(t *testing.T) {
		sub := createTestSubscription(t, repo, 1, nil)
		require.NotZero(t, sub.ID())

		found, err := repo.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		assert.Equal(t, sub.SID(), found.SID())
		assert.Equal(t, uint(1), found.CustomerID())
		assert.Equal(t, vo.StatusDraft, found.Status())
		assert.Equal(t, vo.BillingCycleMonthly, found.BillingCycle())
	})

	t.Run("get by SID", func(t *testing.T) {
		sub := createTestSubscription(t, repo, 2, nil)

		found, err := repo.GetBySID(ctx, sub.SID())
		require.NoError(t, err)
		assert.Equal(t, sub.ID(), found.ID())
	})

	t.Run("missing subscription returns sentinel error", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

		_, err = repo.GetBySID(ctx, "sub_missing")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("duplicate SID is rejected", func(t *testing.T) {
		sub := createTestSubscription(t, repo, 3, nil)

		dup, err := subscription.ReconstructSubscription(subscription.SubscriptionReconstructParams{
			ID:            sub.ID() + 1000,
			SID:           sub.SID(),
			CustomerID:    3,
			Status:        vo.StatusDraft,
			BillingCycle:  vo.BillingCycleMonthly,
			PaymentStatus: vo.PaymentPending,
			Version:       1,
		})
		require.NoError(t, err)

		assert.Error(t, repo.Create(ctx, dup))
	})
}

func TestSubscriptionRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()

	sub := createTestSubscription(t, repo, 1, nil)
	require.NoError(t, sub.LinkInstance(7))
	require.NoError(t, sub.Activate(time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, sub))

	found, err := repo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, found.Status())
	require.NotNil(t, found.InstanceID())
	assert.Equal(t, uint(7), *found.InstanceID())
	require.NotNil(t, found.NextBillingDate())
}

func TestSubscriptionRepository_GetByCustomerID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()

	createTestSubscription(t, repo, 5, nil)
	createTestSubscription(t, repo, 5, nil)
	createTestSubscription(t, repo, 6, nil)

	subs, err := repo.GetByCustomerID(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSubscriptionRepository_FindActiveHolderForInstance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("no holder returns nil without error", func(t *testing.T) {
		holder, err := repo.FindActiveHolderForInstance(ctx, 123)
		require.NoError(t, err)
		assert.Nil(t, holder)
	})

	t.Run("active subscription holds its instance", func(t *testing.T) {
		sub := createTestSubscription(t, repo, 1, func(s *subscription.Subscription) {
			require.NoError(t, s.LinkInstance(50))
			require.NoError(t, s.Activate(time.Now().UTC()))
		})

		holder, err := repo.FindActiveHolderForInstance(ctx, 50)
		require.NoError(t, err)
		require.NotNil(t, holder)
		assert.Equal(t, sub.ID(), holder.ID())
	})

	t.Run("cancelled subscription does not hold", func(t *testing.T) {
		createTestSubscription(t, repo, 2, func(s *subscription.Subscription) {
			require.NoError(t, s.LinkInstance(51))
			require.NoError(t, s.Activate(time.Now().UTC()))
			require.NoError(t, s.Cancel(time.Now().UTC(), 7))
		})

		holder, err := repo.FindActiveHolderForInstance(ctx, 51)
		require.NoError(t, err)
		assert.Nil(t, holder)
	})
}

func TestSubscriptionRepository_FindBlockingForInstance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()

	// Past-due blocks deletion even though it no longer "holds" the instance.
	sub := createTestSubscription(t, repo, 1, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(60))
		require.NoError(t, s.Activate(time.Now().UTC()))
		require.NoError(t, s.MarkOverdue())
	})

	blocking, err := repo.FindBlockingForInstance(ctx, 60)
	require.NoError(t, err)
	require.Len(t, blocking, 1)
	assert.Equal(t, sub.SID(), blocking[0].SID())

	blocking, err = repo.FindBlockingForInstance(ctx, 61)
	require.NoError(t, err)
	assert.Empty(t, blocking)
}

func TestSubscriptionRepository_FindBillingDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()
	today := time.Now().UTC()

	// Activated 40 days ago: the 30-day period has lapsed.
	due := createTestSubscription(t, repo, 1, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(70))
		require.NoError(t, s.Activate(today.AddDate(0, 0, -40)))
	})
	// Activated yesterday: not due for another 29 days.
	createTestSubscription(t, repo, 2, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(71))
		require.NoError(t, s.Activate(today.AddDate(0, 0, -1)))
	})
	// Lapsed but already overdue: excluded from reconciliation.
	createTestSubscription(t, repo, 3, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(72))
		require.NoError(t, s.Activate(today.AddDate(0, 0, -40)))
		require.NoError(t, s.MarkOverdue())
	})

	found, err := repo.FindBillingDue(ctx, today)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.SID(), found[0].SID())
}

func TestSubscriptionRepository_FindCleanupDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()
	today := time.Now().UTC()

	// Cancelled 10 days ago with a 7 day grace period: due.
	due := createTestSubscription(t, repo, 1, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(80))
		require.NoError(t, s.Activate(today.AddDate(0, 0, -60)))
		require.NoError(t, s.Cancel(today.AddDate(0, 0, -10), 7))
	})
	// Cancelled yesterday: still inside the grace window.
	createTestSubscription(t, repo, 2, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(81))
		require.NoError(t, s.Activate(today.AddDate(0, 0, -60)))
		require.NoError(t, s.Cancel(today.AddDate(0, 0, -1), 7))
	})
	// Past grace but never linked to an instance: nothing to clean up.
	createTestSubscription(t, repo, 3, func(s *subscription.Subscription) {
		require.NoError(t, s.Cancel(today.AddDate(0, 0, -10), 7))
	})

	found, err := repo.FindCleanupDue(ctx, today)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.SID(), found[0].SID())
}

func TestSubscriptionRepository_FindExpiredTrials(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, logger.NewLogger())
	ctx := context.Background()
	today := time.Now().UTC()

	expired := createTestSubscription(t, repo, 1, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(90))
		require.NoError(t, s.StartTrial(today.AddDate(0, 0, -30), 14))
	})
	createTestSubscription(t, repo, 2, func(s *subscription.Subscription) {
		require.NoError(t, s.LinkInstance(91))
		require.NoError(t, s.StartTrial(today.AddDate(0, 0, -2), 14))
	})

	found, err := repo.FindExpiredTrials(ctx, today)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, expired.SID(), found[0].SID())
}
