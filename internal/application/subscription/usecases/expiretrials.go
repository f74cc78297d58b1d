package usecases

import (
	"context"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ExpireTrialsUseCase is the periodic job that expires trial subscriptions
// past their trial end and suspends their instances.
type ExpireTrialsUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	txManager        *db.TransactionManager
	signal           QueueSignal
	maxAttempts      int
	logger           logger.Interface
}

func NewExpireTrialsUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *ExpireTrialsUseCase {
	return &ExpireTrialsUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		guard:            guard,
		txManager:        txManager,
		signal:           signal,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions expired in this run.
func (uc *ExpireTrialsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	expired, err := uc.subscriptionRepo.FindExpiredTrials(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired trials: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found expired trials to process", "count", len(expired))

	count := 0
	for _, candidate := range expired {
		if err := uc.expireOne(ctx, candidate.ID()); err != nil {
			uc.logger.Errorw("failed to expire trial",
				"error", err,
				"subscription_id", candidate.ID(),
				"subscription_sid", candidate.SID(),
			)
			continue
		}
		count++
	}

	if count > 0 {
		uc.signal.Wake(ctx)
	}
	return count, nil
}

func (uc *ExpireTrialsUseCase) expireOne(ctx context.Context, subscriptionID uint) error {
	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		// Re-check under lock: the trial may have converted or been
		// cancelled since the scan.
		if !sub.IsTrialExpired(biztime.NowUTC()) {
			return nil
		}

		if err := sub.MarkExpired(); err != nil {
			return err
		}
		sub.AppendNote("trial expired")
		if err := uc.guard.ValidateWrite(txCtx, sub); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		if sub.InstanceID() != nil {
			if err := suspendLinkedInstance(txCtx, uc.instanceRepo, uc.queueRepo, *sub.InstanceID(), uc.maxAttempts); err != nil {
				return err
			}
		}

		uc.logger.Debugw("trial subscription expired", "subscription_sid", sub.SID())
		return nil
	})
}
