package subscription

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
)

// fakeRepository backs the guard with canned holder/blocking answers.
type fakeRepository struct {
	Repository
	holder   *Subscription
	blocking []*Subscription
}

func (f *fakeRepository) FindActiveHolderForInstance(ctx context.Context, instanceID uint) (*Subscription, error) {
	return f.holder, nil
}

func (f *fakeRepository) FindBlockingForInstance(ctx context.Context, instanceID uint) ([]*Subscription, error) {
	return f.blocking, nil
}

func activeSubWithInstance(t *testing.T, id, instanceID uint) *Subscription {
	t.Helper()
	return reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.ID = id
		p.SID = fmt.Sprintf("sub_guard%d", id)
		p.Status = vo.StatusActive
		p.InstanceID = &instanceID
		start := time.Now().UTC()
		p.StartDate = &start
	})
}

// =====================================================================
// TestConsistencyGuard_ValidateWrite_*
// =====================================================================

func TestConsistencyGuard_ValidateWrite_ActiveWithoutInstance(t *testing.T) {
	guard := NewConsistencyGuard(&fakeRepository{})
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusActive
	})

	err := guard.ValidateWrite(context.Background(), sub)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, err.Error(), "must have a linked instance")
}

func TestConsistencyGuard_ValidateWrite_TrialWithoutInstance(t *testing.T) {
	guard := NewConsistencyGuard(&fakeRepository{})
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusTrial
	})

	assert.Error(t, guard.ValidateWrite(context.Background(), sub))
}

func TestConsistencyGuard_ValidateWrite_DraftWithoutInstance(t *testing.T) {
	guard := NewConsistencyGuard(&fakeRepository{})
	sub := reconstructSubscription(t, nil)

	assert.NoError(t, guard.ValidateWrite(context.Background(), sub))
}

func TestConsistencyGuard_ValidateWrite_InstanceHeldByOther(t *testing.T) {
	holder := activeSubWithInstance(t, 1, 50)
	guard := NewConsistencyGuard(&fakeRepository{holder: holder})
	sub := activeSubWithInstance(t, 2, 50)

	err := guard.ValidateWrite(context.Background(), sub)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Contains(t, appErr.Details, holder.SID(), "the existing holder wins")
}

func TestConsistencyGuard_ValidateWrite_SelfHoldingIsFine(t *testing.T) {
	sub := activeSubWithInstance(t, 1, 50)
	guard := NewConsistencyGuard(&fakeRepository{holder: sub})

	assert.NoError(t, guard.ValidateWrite(context.Background(), sub))
}

func TestConsistencyGuard_ValidateWrite_InvalidAggregateRejected(t *testing.T) {
	guard := NewConsistencyGuard(&fakeRepository{})
	sub := reconstructSubscription(t, func(p *SubscriptionReconstructParams) {
		p.Status = vo.StatusCancelled
		// Missing cleanup date breaks the cancelled invariant.
	})

	err := guard.ValidateWrite(context.Background(), sub)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup date")
}

// =====================================================================
// TestConsistencyGuard_CheckInstanceDeletable_*
// =====================================================================

func TestConsistencyGuard_CheckInstanceDeletable_NoReferences(t *testing.T) {
	guard := NewConsistencyGuard(&fakeRepository{})

	assert.NoError(t, guard.CheckInstanceDeletable(context.Background(), 50))
}

func TestConsistencyGuard_CheckInstanceDeletable_Blocked(t *testing.T) {
	blocker := activeSubWithInstance(t, 1, 50)
	guard := NewConsistencyGuard(&fakeRepository{blocking: []*Subscription{blocker}})

	err := guard.CheckInstanceDeletable(context.Background(), 50)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Contains(t, appErr.Details, blocker.SID(), "the error names the blocking subscription")
}
