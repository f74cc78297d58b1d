package usecases

import (
	"context"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type MarkOverdueCommand struct {
	SubscriptionID uint
	Reason         string
}

// MarkOverdueUseCase flags an unpaid subscription as past due and suspends
// its instance. Data is retained; MarkPaid reverses both.
type MarkOverdueUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	txManager        *db.TransactionManager
	signal           QueueSignal
	maxAttempts      int
	logger           logger.Interface
}

func NewMarkOverdueUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *MarkOverdueUseCase {
	return &MarkOverdueUseCase{
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

func (uc *MarkOverdueUseCase) Execute(ctx context.Context, cmd MarkOverdueCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		if err := sub.MarkOverdue(); err != nil {
			return err
		}
		if cmd.Reason != "" {
			sub.AppendNote(fmt.Sprintf("marked overdue: %s", cmd.Reason))
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
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to mark subscription overdue", "error", err, "subscription_id", cmd.SubscriptionID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("subscription marked overdue", "subscription_id", cmd.SubscriptionID, "reason", cmd.Reason)
	return nil
}
