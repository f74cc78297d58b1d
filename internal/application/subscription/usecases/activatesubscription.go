package usecases

import (
	"context"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type ActivateSubscriptionCommand struct {
	SubscriptionID uint
}

// ActivateSubscriptionUseCase activates a draft or trial subscription.
// A missing instance is created and linked; a linked instance still in draft
// or error is marked pending and queued for provisioning, so activation never
// leaves an active subscription without a workload on the way.
type ActivateSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	catalog          plan.Catalog
	txManager        *db.TransactionManager
	signal           QueueSignal
	maxAttempts      int
	logger           logger.Interface
}

func NewActivateSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	catalog plan.Catalog,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *ActivateSubscriptionUseCase {
	return &ActivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		guard:            guard,
		catalog:          catalog,
		txManager:        txManager,
		signal:           signal,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, cmd ActivateSubscriptionCommand) error {
	provisioned := false
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		if err := sub.Activate(biztime.NowUTC()); err != nil {
			return err
		}

		if sub.InstanceID() == nil {
			p, err := uc.catalog.Get(sub.PlanCode())
			if err != nil {
				return fmt.Errorf("failed to resolve plan %s: %w", sub.PlanCode(), err)
			}
			inst, err := createInstanceForSubscription(txCtx, uc.instanceRepo, sub, p)
			if err != nil {
				return err
			}
			if err := sub.LinkInstance(inst.ID()); err != nil {
				return fmt.Errorf("failed to link instance: %w", err)
			}
		}

		enqueued, err := provisionLinkedInstance(
			txCtx, uc.instanceRepo, uc.queueRepo, *sub.InstanceID(), uc.maxAttempts)
		if err != nil {
			return err
		}
		provisioned = enqueued

		if err := uc.guard.ValidateWrite(txCtx, sub); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to activate subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return err
	}

	if provisioned {
		uc.signal.Wake(ctx)
	}
	uc.logger.Infow("subscription activated", "subscription_id", cmd.SubscriptionID)
	return nil
}
