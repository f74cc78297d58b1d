package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// --- helpers ---

func newActivateUC(t *testing.T, env *testEnv) *ActivateSubscriptionUseCase {
	t.Helper()
	return NewActivateSubscriptionUseCase(
		env.subscriptionRepo,
		env.instanceRepo,
		env.queueRepo,
		env.guard,
		newStubCatalog(t),
		env.txManager,
		noopSignal{},
		5,
		logger.NewLogger(),
	)
}

// =====================================================================
// TestActivateSubscriptionUseCase_*
// =====================================================================

func TestActivateSubscriptionUseCase_Execute_ProvisionsLinkedDraftInstance(t *testing.T) {
	env := setupEnv(t)
	uc := newActivateUC(t, env)
	ctx := context.Background()

	inst := seedDraftInstance(t, env, "activatable")
	sub, err := subscription.NewSubscription(20, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(inst.ID()))
	require.NoError(t, env.subscriptionRepo.Create(ctx, sub))

	require.NoError(t, uc.Execute(ctx, ActivateSubscriptionCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, reloaded.Status())
	require.NotNil(t, reloaded.NextBillingDate())

	provisioned, err := env.instanceRepo.GetByID(ctx, inst.ID())
	require.NoError(t, err)
	assert.Equal(t, instancevo.StatePending, provisioned.State())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, provisioningvo.OperationProvision, entries[0].Operation())
}

func TestActivateSubscriptionUseCase_Execute_CreatesInstanceWhenMissing(t *testing.T) {
	env := setupEnv(t)
	uc := newActivateUC(t, env)
	ctx := context.Background()

	sub := seedDraftSubscription(t, env, 21, "starter")

	require.NoError(t, uc.Execute(ctx, ActivateSubscriptionCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, reloaded.Status())
	require.NotNil(t, reloaded.InstanceID(), "activation must hold an instance")

	inst, err := env.instanceRepo.GetByID(ctx, *reloaded.InstanceID())
	require.NoError(t, err)
	assert.Equal(t, instancevo.StatePending, inst.State())
	assert.Equal(t, "cust21", inst.Subdomain())
	assert.False(t, inst.IsTrial())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestActivateSubscriptionUseCase_Execute_RunningInstanceUntouched(t *testing.T) {
	env := setupEnv(t)
	uc := newActivateUC(t, env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "alreadyup")
	sub, err := subscription.NewSubscription(22, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(inst.ID()))
	require.NoError(t, env.subscriptionRepo.Create(ctx, sub))

	require.NoError(t, uc.Execute(ctx, ActivateSubscriptionCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.instanceRepo.GetByID(ctx, inst.ID())
	require.NoError(t, err)
	assert.Equal(t, instancevo.StateRunning, reloaded.State())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "a provisioned instance needs no queue work")
}

func TestActivateSubscriptionUseCase_Execute_FromCancelledRejected(t *testing.T) {
	env := setupEnv(t)
	uc := newActivateUC(t, env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "gone")
	sub, err := subscription.NewSubscription(23, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(inst.ID()))
	require.NoError(t, sub.Activate(sub.CreatedAt()))
	require.NoError(t, sub.Cancel(sub.CreatedAt(), 7))
	require.NoError(t, env.subscriptionRepo.Create(ctx, sub))

	err = uc.Execute(ctx, ActivateSubscriptionCommand{SubscriptionID: sub.ID()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}
