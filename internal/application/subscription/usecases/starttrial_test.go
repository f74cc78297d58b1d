package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// --- helpers ---

func newStartTrialUC(t *testing.T, env *testEnv) *StartTrialUseCase {
	t.Helper()
	return NewStartTrialUseCase(
		env.subscriptionRepo,
		env.instanceRepo,
		env.queueRepo,
		env.guard,
		newStubCatalog(t),
		env.txManager,
		noopSignal{},
		14,
		5,
		logger.NewLogger(),
	)
}

func seedDraftSubscription(t *testing.T, env *testEnv, customerID uint, planCode string) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(customerID, planCode, vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, env.subscriptionRepo.Create(context.Background(), sub))
	return sub
}

func seedDraftInstance(t *testing.T, env *testEnv, subdomain string) *instance.Instance {
	t.Helper()
	resources, err := instancevo.NewResourceSpec(1, 1024, 10)
	require.NoError(t, err)
	inst, err := instance.NewInstance("draft "+subdomain, subdomain, resources, true)
	require.NoError(t, err)
	require.NoError(t, env.instanceRepo.Create(context.Background(), inst))
	return inst
}

// =====================================================================
// TestStartTrialUseCase_*
// =====================================================================

func TestStartTrialUseCase_Execute_CreatesAndProvisionsInstance(t *testing.T) {
	env := setupEnv(t)
	uc := newStartTrialUC(t, env)
	ctx := context.Background()

	sub := seedDraftSubscription(t, env, 10, "starter")

	require.NoError(t, uc.Execute(ctx, StartTrialCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusTrial, reloaded.Status())
	require.NotNil(t, reloaded.TrialEndDate())
	require.NotNil(t, reloaded.InstanceID(), "a trial must hold an instance")

	inst, err := env.instanceRepo.GetByID(ctx, *reloaded.InstanceID())
	require.NoError(t, err)
	assert.Equal(t, instancevo.StatePending, inst.State())
	assert.Equal(t, "cust10", inst.Subdomain())
	assert.True(t, inst.IsTrial())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, provisioningvo.OperationProvision, entries[0].Operation())
	assert.Equal(t, provisioningvo.EntryPending, entries[0].Status())
}

func TestStartTrialUseCase_Execute_ProvisionsLinkedDraftInstance(t *testing.T) {
	env := setupEnv(t)
	uc := newStartTrialUC(t, env)
	ctx := context.Background()

	inst := seedDraftInstance(t, env, "linked")
	sub, err := subscription.NewSubscription(11, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(inst.ID()))
	require.NoError(t, env.subscriptionRepo.Create(ctx, sub))

	require.NoError(t, uc.Execute(ctx, StartTrialCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.instanceRepo.GetByID(ctx, inst.ID())
	require.NoError(t, err)
	assert.Equal(t, instancevo.StatePending, reloaded.State())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, provisioningvo.OperationProvision, entries[0].Operation())

	subs, err := env.subscriptionRepo.GetByCustomerID(ctx, 11)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, inst.ID(), *subs[0].InstanceID(), "the existing instance is kept, not replaced")
}

func TestStartTrialUseCase_Execute_SubdomainUniquified(t *testing.T) {
	env := setupEnv(t)
	uc := newStartTrialUC(t, env)
	ctx := context.Background()

	seedDraftInstance(t, env, "cust12")
	sub := seedDraftSubscription(t, env, 12, "starter")

	require.NoError(t, uc.Execute(ctx, StartTrialCommand{SubscriptionID: sub.ID()}))

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded.InstanceID())

	inst, err := env.instanceRepo.GetByID(ctx, *reloaded.InstanceID())
	require.NoError(t, err)
	assert.Equal(t, "cust12-2", inst.Subdomain())
}

func TestStartTrialUseCase_Execute_TrialNotAllowed(t *testing.T) {
	env := setupEnv(t)
	uc := newStartTrialUC(t, env)
	ctx := context.Background()

	sub := seedDraftSubscription(t, env, 13, "business")

	err := uc.Execute(ctx, StartTrialCommand{SubscriptionID: sub.ID()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not allow trials")

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusDraft, reloaded.Status())
	assert.Nil(t, reloaded.InstanceID())
}

func TestStartTrialUseCase_Execute_NotFromActive(t *testing.T) {
	env := setupEnv(t)
	uc := newStartTrialUC(t, env)
	ctx := context.Background()

	inst := seedDraftInstance(t, env, "already")
	sub, err := subscription.NewSubscription(14, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(inst.ID()))
	require.NoError(t, sub.Activate(sub.CreatedAt()))
	require.NoError(t, env.subscriptionRepo.Create(ctx, sub))

	err = uc.Execute(ctx, StartTrialCommand{SubscriptionID: sub.ID()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}
