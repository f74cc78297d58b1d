package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

func seedRunningInstance(t *testing.T, env *testEnv, subdomain string) *instance.Instance {
	t.Helper()
	spec, err := instancevo.NewResourceSpec(1, 1024, 10)
	require.NoError(t, err)
	inst, err := instance.NewInstance(subdomain+"-prod", subdomain, spec, false)
	require.NoError(t, err)
	require.NoError(t, inst.MarkPending())
	require.NoError(t, inst.MarkProvisioning())
	inst.SetWorkloadRef("wl-" + subdomain)
	require.NoError(t, inst.MarkRunning())
	require.NoError(t, env.instanceRepo.Create(context.Background(), inst))
	return inst
}

func seedCancelledSubscription(t *testing.T, env *testEnv, instanceID uint, cancelledDaysAgo, graceDays int) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub, err := subscription.NewSubscription(1, "starter", vo.BillingCycleMonthly)
	require.NoError(t, err)
	require.NoError(t, sub.LinkInstance(instanceID))
	require.NoError(t, sub.Activate(now.AddDate(0, 0, -60)))
	require.NoError(t, sub.Cancel(now.AddDate(0, 0, -cancelledDaysAgo), graceDays))
	require.NoError(t, env.subscriptionRepo.Create(context.Background(), sub))
	return sub
}

func newCleanupUC(env *testEnv) *CleanupCancelledUseCase {
	return NewCleanupCancelledUseCase(
		env.subscriptionRepo,
		env.instanceRepo,
		env.queueRepo,
		env.txManager,
		noopSignal{},
		5,
		logger.NewLogger(),
	)
}

func TestCleanupCancelledUseCase_Execute_SchedulesTermination(t *testing.T) {
	env := setupEnv(t)
	uc := newCleanupUC(env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "acme")
	sub := seedCancelledSubscription(t, env, inst.ID(), 10, 7)

	count, err := uc.Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, provisioningvo.OperationTerminate, entries[0].Operation())

	reloaded, err := env.subscriptionRepo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	require.NotEmpty(t, reloaded.Notes())
	assert.Contains(t, reloaded.Notes()[len(reloaded.Notes())-1], "cleanup scheduled")
}

func TestCleanupCancelledUseCase_Execute_RerunIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	uc := newCleanupUC(env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "acme")
	seedCancelledSubscription(t, env, inst.ID(), 10, 7)

	count, err := uc.Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// The terminate entry is still queued, so a second run schedules nothing.
	count, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanupCancelledUseCase_Execute_GracePeriodNotElapsed(t *testing.T) {
	env := setupEnv(t)
	uc := newCleanupUC(env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "acme")
	seedCancelledSubscription(t, env, inst.ID(), 2, 7)

	count, err := uc.Execute(ctx)

	require.NoError(t, err)
	assert.Zero(t, count)

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is destroyed inside the grace window")
}

func TestCleanupCancelledUseCase_Execute_TerminatedInstanceSkipped(t *testing.T) {
	env := setupEnv(t)
	uc := newCleanupUC(env)
	ctx := context.Background()

	inst := seedRunningInstance(t, env, "acme")
	require.NoError(t, inst.MarkTerminated())
	require.NoError(t, env.instanceRepo.Update(ctx, inst))
	seedCancelledSubscription(t, env, inst.ID(), 10, 7)

	count, err := uc.Execute(ctx)

	require.NoError(t, err)
	assert.Zero(t, count)
}
