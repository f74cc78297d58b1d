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
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type StartTrialCommand struct {
	SubscriptionID uint
}

// StartTrialUseCase moves a draft subscription into its trial. A subscription
// without an instance gets one created and linked; a linked instance that was
// never provisioned is marked pending and queued, so the trial always leaves
// with provisioning underway.
type StartTrialUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	catalog          plan.Catalog
	txManager        *db.TransactionManager
	signal           QueueSignal
	trialDays        int
	maxAttempts      int
	logger           logger.Interface
}

func NewStartTrialUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	catalog plan.Catalog,
	txManager *db.TransactionManager,
	signal QueueSignal,
	trialDays int,
	maxAttempts int,
	logger logger.Interface,
) *StartTrialUseCase {
	return &StartTrialUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		guard:            guard,
		catalog:          catalog,
		txManager:        txManager,
		signal:           signal,
		trialDays:        trialDays,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

func (uc *StartTrialUseCase) Execute(ctx context.Context, cmd StartTrialCommand) error {
	provisioned := false
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		p, err := uc.catalog.Get(sub.PlanCode())
		if err != nil {
			return apperrors.NewValidationError("unknown plan", sub.PlanCode())
		}
		if !p.TrialAllowed {
			return apperrors.NewValidationError(
				fmt.Sprintf("plan %s does not allow trials", p.Code),
			)
		}

		if err := sub.StartTrial(biztime.NowUTC(), uc.trialDays); err != nil {
			return err
		}

		if sub.InstanceID() == nil {
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
		uc.logger.Errorw("failed to start trial", "error", err, "subscription_id", cmd.SubscriptionID)
		return err
	}

	if provisioned {
		uc.signal.Wake(ctx)
	}
	uc.logger.Infow("trial started", "subscription_id", cmd.SubscriptionID, "trial_days", uc.trialDays)
	return nil
}
