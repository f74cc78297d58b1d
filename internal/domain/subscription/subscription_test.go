package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
)

// --- helpers ---

func newDraftSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewSubscription(1, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func newActiveSubscription(t *testing.T, now time.Time) *Subscription {
	t.Helper()
	sub := newDraftSubscription(t)
	require.NoError(t, sub.LinkInstance(42))
	require.NoError(t, sub.Activate(now))
	return sub
}

// reconstructSubscription builds a Subscription from SubscriptionReconstructParams
// with sensible defaults. Callers override fields through the mutate func.
func reconstructSubscription(t *testing.T, mutate func(*SubscriptionReconstructParams)) *Subscription {
	t.Helper()
	now := time.Now().UTC()
	params := SubscriptionReconstructParams{
		ID:            1,
		SID:           "sub_test123",
		CustomerID:    10,
		PlanCode:      "starter",
		Status:        vo.StatusDraft,
		BillingCycle:  vo.BillingCycleMonthly,
		PaymentStatus: vo.PaymentPending,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mutate != nil {
		mutate(&params)
	}
	sub, err := ReconstructSubscription(params)
	require.NoError(t, err)
	return sub
}

// =====================================================================
// TestNewSubscription_*
// =====================================================================

func TestNewSubscription_ValidInput(t *testing.T) {
	sub, err := NewSubscription(7, "standard", vo.BillingCycleYearly)

	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.NotEmpty(t, sub.SID(), "SID should be generated")
	assert.Equal(t, uint(7), sub.CustomerID())
	assert.Equal(t, "standard", sub.PlanCode())
	assert.Equal(t, vo.StatusDraft, sub.Status(), "initial status should be draft")
	assert.Equal(t, vo.BillingCycleYearly, sub.BillingCycle())
	assert.Equal(t, vo.PaymentPending, sub.PaymentStatus())
	assert.False(t, sub.IsTrial())
	assert.Nil(t, sub.InstanceID())
	assert.Nil(t, sub.StartDate())
	assert.Nil(t, sub.NextBillingDate())
	assert.Nil(t, sub.CancellationCleanupDate())
	assert.Equal(t, 1, sub.Version())
}

func TestNewSubscription_ZeroCustomerID(t *testing.T) {
	sub, err := NewSubscription(0, "starter", vo.BillingCycleMonthly)

	assert.Error(t, err)
	assert.Nil(t, sub)
	assert.Contains(t, err.Error(), "customer ID is required")
}

func TestNewSubscription_EmptyPlanCode(t *testing.T) {
	sub, err := NewSubscription(1, "", vo.BillingCycleMonthly)

	assert.Error(t, err)
	assert.Nil(t, sub)
	assert.Contains(t, err.Error(), "plan code is required")
}

func TestNewSubscription_InvalidBillingCycle(t *testing.T) {
	sub, err := NewSubscription(1, "starter", vo.BillingCycle("weekly"))

	assert.Error(t, err)
	assert.Nil(t, sub)
	assert.Contains(t, err.Error(), "invalid billing cycle")
}

// =====================================================================
// TestReconstructSubscription_*
// =====================================================================

func TestReconstructSubscription_ZeroID(t *testing.T) {
	_, err := ReconstructSubscription(SubscriptionReconstructParams{
		CustomerID:   1,
		Status:       vo.StatusDraft,
		BillingCycle: vo.BillingCycleMonthly,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ID cannot be zero")
}

func TestReconstructSubscription_InvalidStatus(t *testing.T) {
	_, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:           1,
		CustomerID:   1,
		Status:       vo.SubscriptionStatus("bogus"),
		BillingCycle: vo.BillingCycleMonthly,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid subscription status")
}

// =====================================================================
// TestSubscription_LinkInstance_*
// =====================================================================

func TestSubscription_LinkInstance(t *testing.T) {
	sub := newDraftSubscription(t)

	require.NoError(t, sub.LinkInstance(5))
	require.NotNil(t, sub.InstanceID())
	assert.Equal(t, uint(5), *sub.InstanceID())
}

func TestSubscription_LinkInstance_SameInstanceIsIdempotent(t *testing.T) {
	sub := newDraftSubscription(t)
	require.NoError(t, sub.LinkInstance(5))
	versionBefore := sub.Version()

	require.NoError(t, sub.LinkInstance(5))
	assert.Equal(t, versionBefore, sub.Version(), "relinking the same instance should not bump the version")
}

func TestSubscription_LinkInstance_DifferentInstanceRejected(t *testing.T) {
	sub := newDraftSubscription(t)
	require.NoError(t, sub.LinkInstance(5))

	err := sub.LinkInstance(6)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already linked")
	assert.Equal(t, uint(5), *sub.InstanceID())
}

func TestSubscription_LinkInstance_ZeroID(t *testing.T) {
	sub := newDraftSubscription(t)

	assert.Error(t, sub.LinkInstance(0))
}

// =====================================================================
// TestSubscription_StartTrial_*
// =====================================================================

func TestSubscription_StartTrial(t *testing.T) {
	sub := newDraftSubscription(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sub.StartTrial(now, 14))

	assert.Equal(t, vo.StatusTrial, sub.Status())
	assert.True(t, sub.IsTrial())
	require.NotNil(t, sub.TrialStartDate())
	require.NotNil(t, sub.TrialEndDate())
	assert.Equal(t, now, *sub.TrialStartDate())
	assert.Equal(t, now.AddDate(0, 0, 14), *sub.TrialEndDate())
}

func TestSubscription_StartTrial_NotFromDraft(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())

	err := sub.StartTrial(time.Now().UTC(), 14)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}

func TestSubscription_StartTrial_NonPositiveDays(t *testing.T) {
	sub := newDraftSubscription(t)

	assert.Error(t, sub.StartTrial(time.Now().UTC(), 0))
	assert.Error(t, sub.StartTrial(time.Now().UTC(), -1))
}

// =====================================================================
// TestSubscription_Activate_*
// =====================================================================

func TestSubscription_Activate_FromDraft(t *testing.T) {
	sub := newDraftSubscription(t)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sub.Activate(now))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, vo.PaymentPending, sub.PaymentStatus())
	assert.False(t, sub.IsTrial())
	require.NotNil(t, sub.StartDate())
	require.NotNil(t, sub.NextBillingDate())
	assert.Equal(t, now, *sub.StartDate())
	assert.Equal(t, now.AddDate(0, 0, 30), *sub.NextBillingDate(), "monthly period is exactly 30 days")
}

func TestSubscription_Activate_FromTrial(t *testing.T) {
	sub := newDraftSubscription(t)
	require.NoError(t, sub.StartTrial(time.Now().UTC(), 14))

	require.NoError(t, sub.Activate(time.Now().UTC()))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.False(t, sub.IsTrial(), "activation ends the trial")
}

func TestSubscription_Activate_YearlyCycle(t *testing.T) {
	sub, err := NewSubscription(1, "starter", vo.BillingCycleYearly)
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sub.Activate(now))

	assert.Equal(t, now.AddDate(0, 0, 365), *sub.NextBillingDate(), "yearly period is exactly 365 days")
}

func TestSubscription_Activate_FromCancelled(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.Cancel(time.Now().UTC(), 7))

	err := sub.Activate(time.Now().UTC())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}

// =====================================================================
// TestSubscription_Cancel_*
// =====================================================================

func TestSubscription_Cancel_SchedulesCleanupAfterGracePeriod(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	require.NoError(t, sub.Cancel(now, 7))

	assert.Equal(t, vo.StatusCancelled, sub.Status())
	require.NotNil(t, sub.CancellationDate())
	require.NotNil(t, sub.CancellationCleanupDate())
	assert.Equal(t, now, *sub.CancellationDate())
	assert.Equal(t, now.AddDate(0, 0, 7), *sub.CancellationCleanupDate())
}

func TestSubscription_Cancel_ZeroGracePeriod(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	now := time.Now().UTC()

	require.NoError(t, sub.Cancel(now, 0))

	assert.Equal(t, now, *sub.CancellationCleanupDate(), "zero grace period means immediate cleanup eligibility")
}

func TestSubscription_Cancel_NegativeGracePeriod(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())

	assert.Error(t, sub.Cancel(time.Now().UTC(), -1))
}

func TestSubscription_Cancel_FromTrial(t *testing.T) {
	sub := newDraftSubscription(t)
	require.NoError(t, sub.StartTrial(time.Now().UTC(), 14))

	require.NoError(t, sub.Cancel(time.Now().UTC(), 7))

	assert.Equal(t, vo.StatusCancelled, sub.Status())
}

func TestSubscription_Cancel_AlreadyCancelled(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.Cancel(time.Now().UTC(), 7))

	err := sub.Cancel(time.Now().UTC(), 7)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}

func TestSubscription_Cancel_FromExpired(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.MarkExpired())

	assert.Error(t, sub.Cancel(time.Now().UTC(), 7))
}

// =====================================================================
// TestSubscription_MarkPaid_*
// =====================================================================

func TestSubscription_MarkPaid_RollsBillingPeriod(t *testing.T) {
	sub := newActiveSubscription(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	paidAt := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)

	require.NoError(t, sub.MarkPaid(paidAt))

	assert.Equal(t, vo.PaymentPaid, sub.PaymentStatus())
	require.NotNil(t, sub.LastBillingDate())
	assert.Equal(t, paidAt, *sub.LastBillingDate())
	assert.Equal(t, paidAt.AddDate(0, 0, 30), *sub.NextBillingDate(), "next billing rolls 30 days from payment")
}

func TestSubscription_MarkPaid_RecoversPastDue(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.MarkOverdue())
	require.Equal(t, vo.StatusPastDue, sub.Status())

	require.NoError(t, sub.MarkPaid(time.Now().UTC()))

	assert.Equal(t, vo.StatusActive, sub.Status(), "payment recovers a past-due subscription")
	assert.Equal(t, vo.PaymentPaid, sub.PaymentStatus())
}

func TestSubscription_MarkPaid_TerminalStatusRejected(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.Cancel(time.Now().UTC(), 7))

	err := sub.MarkPaid(time.Now().UTC())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot record payment")
}

// =====================================================================
// TestSubscription_MarkOverdue_*
// =====================================================================

func TestSubscription_MarkOverdue(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())

	require.NoError(t, sub.MarkOverdue())

	assert.Equal(t, vo.StatusPastDue, sub.Status())
	assert.Equal(t, vo.PaymentOverdue, sub.PaymentStatus())
}

func TestSubscription_MarkOverdue_AlreadyPastDue(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.MarkOverdue())

	assert.NoError(t, sub.MarkOverdue(), "repeated overdue reports are accepted")
	assert.Equal(t, vo.StatusPastDue, sub.Status())
}

func TestSubscription_MarkOverdue_FromDraft(t *testing.T) {
	sub := newDraftSubscription(t)

	err := sub.MarkOverdue()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}

// =====================================================================
// TestSubscription_MarkExpired_*
// =====================================================================

func TestSubscription_MarkExpired_FromTrial(t *testing.T) {
	sub := newDraftSubscription(t)
	require.NoError(t, sub.StartTrial(time.Now().UTC(), 14))

	require.NoError(t, sub.MarkExpired())

	assert.Equal(t, vo.StatusExpired, sub.Status())
}

func TestSubscription_MarkExpired_Idempotent(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.MarkExpired())
	versionBefore := sub.Version()

	require.NoError(t, sub.MarkExpired())
	assert.Equal(t, versionBefore, sub.Version())
}

func TestSubscription_MarkExpired_FromDraft(t *testing.T) {
	sub := newDraftSubscription(t)

	assert.Error(t, sub.MarkExpired(), "draft cannot expire")
}

func TestSubscription_MarkExpired_FromCancelled(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.Cancel(time.Now().UTC(), 7))

	assert.Error(t, sub.MarkExpired())
}

// =====================================================================
// TestSubscription_MarkBillingPending_*
// =====================================================================

func TestSubscription_MarkBillingPending(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	require.NoError(t, sub.MarkPaid(time.Now().UTC()))

	require.NoError(t, sub.MarkBillingPending())

	assert.Equal(t, vo.PaymentPending, sub.PaymentStatus())
}

func TestSubscription_MarkBillingPending_NotActive(t *testing.T) {
	sub := newDraftSubscription(t)

	assert.Error(t, sub.MarkBillingPending())
}

// =====================================================================
// TestSubscription_Due_*
// =====================================================================

func TestSubscription_IsTrialExpired(t *testing.T) {
	sub := newDraftSubscription(t)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sub.StartTrial(start, 14))

	assert.False(t, sub.IsTrialExpired(start.AddDate(0, 0, 14)), "the trial end day itself is still inside the trial")
	assert.True(t, sub.IsTrialExpired(start.AddDate(0, 0, 15)))
}

func TestSubscription_IsTrialExpired_NotOnTrial(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())

	assert.False(t, sub.IsTrialExpired(time.Now().UTC().AddDate(1, 0, 0)))
}

func TestSubscription_IsBillingDue(t *testing.T) {
	activatedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := newActiveSubscription(t, activatedAt)

	assert.False(t, sub.IsBillingDue(activatedAt.AddDate(0, 0, 29)))
	assert.True(t, sub.IsBillingDue(activatedAt.AddDate(0, 0, 30)), "due on the billing date itself")
	assert.True(t, sub.IsBillingDue(activatedAt.AddDate(0, 0, 31)))
}

func TestSubscription_IsBillingDue_OverdueExcluded(t *testing.T) {
	activatedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := newActiveSubscription(t, activatedAt)
	require.NoError(t, sub.MarkOverdue())

	assert.False(t, sub.IsBillingDue(activatedAt.AddDate(0, 0, 60)), "overdue subscriptions are not re-invoiced")
}

func TestSubscription_IsCleanupDue(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	cancelledAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sub.Cancel(cancelledAt, 7))

	assert.False(t, sub.IsCleanupDue(cancelledAt.AddDate(0, 0, 6)))
	assert.True(t, sub.IsCleanupDue(cancelledAt.AddDate(0, 0, 7)))
	assert.True(t, sub.IsCleanupDue(cancelledAt.AddDate(0, 0, 8)))
}

func TestSubscription_IsCleanupDue_NotCancelled(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())

	assert.False(t, sub.IsCleanupDue(time.Now().UTC().AddDate(1, 0, 0)))
}

func TestSubscription_CurrentBillingPeriod(t *testing.T) {
	sub := newActiveSubscription(t, time.Now().UTC())
	today := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	start, end := sub.CurrentBillingPeriod(today)

	assert.Equal(t, today, start)
	assert.Equal(t, today.AddDate(0, 0, 30), end)
}

// =====================================================================
// TestSubscription_Validate_*
// =====================================================================

func TestSubscription_Validate_CancelledWithoutCleanupDate(t *testing.T) {
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusCancelled
	})

	err := sub.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup date")
}

func TestSubscription_Validate_CleanupDateOnNonCancelled(t *testing.T) {
	cleanup := time.Now().UTC()
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusActive
		instanceID := uint(3)
		p.InstanceID = &instanceID
		p.CancellationCleanupDate = &cleanup
	})

	err := sub.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only valid on cancelled")
}

func TestSubscription_Validate_Cancelled(t *testing.T) {
	cancelled := time.Now().UTC()
	cleanup := cancelled.AddDate(0, 0, 7)
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusCancelled
		p.CancellationDate = &cancelled
		p.CancellationCleanupDate = &cleanup
	})

	assert.NoError(t, sub.Validate())
}

func TestSubscription_AppendNote(t *testing.T) {
	sub := newDraftSubscription(t)

	sub.AppendNote("cancelled by customer: moving providers")
	sub.AppendNote("")

	require.Len(t, sub.Notes(), 1, "empty notes are dropped")
	assert.Equal(t, "cancelled by customer: moving providers", sub.Notes()[0])
}

func TestSubscription_SetID(t *testing.T) {
	sub := newDraftSubscription(t)

	require.NoError(t, sub.SetID(99))
	assert.Equal(t, uint(99), sub.ID())
	assert.Error(t, sub.SetID(100), "ID is write-once")
}
