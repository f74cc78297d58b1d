package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/infrastructure/repository"
	"github.com/lumenhost/lumen/internal/shared/db"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// --- fixtures ---

type noopSignal struct{}

func (noopSignal) Wake(ctx context.Context) {}

type stubCatalog struct {
	plans map[string]plan.Plan
}

func newStubCatalog(t *testing.T) stubCatalog {
	t.Helper()
	resources, err := instancevo.NewResourceSpec(1, 1024, 10)
	require.NoError(t, err)
	return stubCatalog{plans: map[string]plan.Plan{
		"starter": {
			Code: "starter", Name: "Starter",
			MonthlyPrice: 9, YearlyPrice: 90, Currency: "USD",
			Resources: resources, TrialAllowed: true,
		},
		"business": {
			Code: "business", Name: "Business",
			MonthlyPrice: 99, YearlyPrice: 990, Currency: "USD",
			Resources: resources, TrialAllowed: false,
		},
	}}
}

func (c stubCatalog) Get(code string) (plan.Plan, error) {
	p, ok := c.plans[code]
	if !ok {
		return plan.Plan{}, plan.ErrPlanNotFound
	}
	return p, nil
}

func (c stubCatalog) All() []plan.Plan {
	all := make([]plan.Plan, 0, len(c.plans))
	for _, p := range c.plans {
		all = append(all, p)
	}
	return all
}

type testEnv struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	txManager        *db.TransactionManager
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.SubscriptionModel{},
		&models.InstanceModel{},
		&models.QueueEntryModel{},
		&models.BillingTransactionModel{},
	))

	log := logger.NewLogger()
	subscriptionRepo := repository.NewSubscriptionRepository(database, log)
	return &testEnv{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     repository.NewInstanceRepository(database, log),
		queueRepo:        repository.NewQueueEntryRepository(database, log),
		guard:            subscription.NewConsistencyGuard(subscriptionRepo),
		txManager:        db.NewTransactionManager(database),
	}
}

func newCreateFromOrderUC(t *testing.T, env *testEnv) *CreateFromOrderUseCase {
	t.Helper()
	return NewCreateFromOrderUseCase(
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

func validOrder() CreateFromOrderCommand {
	return CreateFromOrderCommand{
		CustomerID:   1,
		PlanCode:     "starter",
		BillingCycle: "monthly",
		InstanceName: "acme-prod",
		Subdomain:    "acme",
	}
}

// =====================================================================
// TestCreateFromOrderUseCase_*
// =====================================================================

func TestCreateFromOrderUseCase_Execute_Success(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)
	ctx := context.Background()

	result, err := uc.Execute(ctx, validOrder())

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.SubscriptionSID, "sub_"))
	assert.True(t, strings.HasPrefix(result.InstanceIID, "inst_"))

	sub, err := env.subscriptionRepo.GetBySID(ctx, result.SubscriptionSID)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
	require.NotNil(t, sub.InstanceID())
	require.NotNil(t, sub.NextBillingDate())

	inst, err := env.instanceRepo.GetByIID(ctx, result.InstanceIID)
	require.NoError(t, err)
	assert.Equal(t, instancevo.StatePending, inst.State())
	assert.Equal(t, inst.ID(), *sub.InstanceID())

	entries, err := env.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, provisioningvo.OperationProvision, entries[0].Operation())
	assert.Equal(t, provisioningvo.EntryPending, entries[0].Status())
}

func TestCreateFromOrderUseCase_Execute_WithTrial(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)
	ctx := context.Background()

	cmd := validOrder()
	cmd.WithTrial = true
	result, err := uc.Execute(ctx, cmd)

	require.NoError(t, err)
	sub, err := env.subscriptionRepo.GetBySID(ctx, result.SubscriptionSID)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusTrial, sub.Status())
	assert.True(t, sub.IsTrial())
	require.NotNil(t, sub.TrialEndDate())
	assert.Nil(t, sub.NextBillingDate(), "trials are not billed")

	inst, err := env.instanceRepo.GetByIID(ctx, result.InstanceIID)
	require.NoError(t, err)
	assert.True(t, inst.IsTrial())
}

func TestCreateFromOrderUseCase_Execute_TrialNotAllowed(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)

	cmd := validOrder()
	cmd.PlanCode = "business"
	cmd.WithTrial = true
	result, err := uc.Execute(context.Background(), cmd)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "does not allow trials")
}

func TestCreateFromOrderUseCase_Execute_UnknownPlan(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)

	cmd := validOrder()
	cmd.PlanCode = "enterprise"
	_, err := uc.Execute(context.Background(), cmd)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown plan")
}

func TestCreateFromOrderUseCase_Execute_InvalidBillingCycle(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)

	cmd := validOrder()
	cmd.BillingCycle = "weekly"
	_, err := uc.Execute(context.Background(), cmd)

	assert.Error(t, err)
}

func TestCreateFromOrderUseCase_Execute_SubdomainTaken(t *testing.T) {
	env := setupEnv(t)
	uc := newCreateFromOrderUC(t, env)
	ctx := context.Background()

	_, err := uc.Execute(ctx, validOrder())
	require.NoError(t, err)

	cmd := validOrder()
	cmd.CustomerID = 2
	result, err := uc.Execute(ctx, cmd)

	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)

	// The failed order must leave nothing behind for customer 2.
	subs, err := env.subscriptionRepo.GetByCustomerID(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
