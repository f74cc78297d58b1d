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

type CancelSubscriptionCommand struct {
	SubscriptionID uint
	Reason         string
}

// CancelSubscriptionUseCase cancels a subscription and suspends its instance
// for the grace period. Nothing is destroyed here; the cleanup job terminates
// the instance once the grace period has elapsed.
type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	txManager        *db.TransactionManager
	signal           QueueSignal
	notifier         Notifier
	gracePeriodDays  int
	maxAttempts      int
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	signal QueueSignal,
	notifier Notifier,
	gracePeriodDays int,
	maxAttempts int,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		guard:            guard,
		txManager:        txManager,
		signal:           signal,
		notifier:         notifier,
		gracePeriodDays:  gracePeriodDays,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) error {
	var cancelled *subscription.Subscription
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		if err := sub.Cancel(biztime.NowUTC(), uc.gracePeriodDays); err != nil {
			return err
		}
		if cmd.Reason != "" {
			sub.AppendNote(fmt.Sprintf("cancelled: %s", cmd.Reason))
		}
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

		cancelled = sub
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to cancel subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return err
	}

	uc.signal.Wake(ctx)

	if uc.notifier != nil {
		if err := uc.notifier.NotifySubscriptionCancelled(ctx, cancelled); err != nil {
			uc.logger.Warnw("failed to send cancellation notification",
				"error", err,
				"subscription_sid", cancelled.SID(),
			)
		}
	}

	uc.logger.Infow("subscription cancelled",
		"subscription_id", cmd.SubscriptionID,
		"subscription_sid", cancelled.SID(),
		"reason", cmd.Reason,
		"cleanup_date", cancelled.CancellationCleanupDate(),
	)
	return nil
}
