package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type MarkPaidCommand struct {
	SubscriptionID uint
	Reference      string
}

// MarkPaidUseCase records a successful payment, rolls the billing period
// forward and brings a past-due subscription back to active. A suspended
// instance is resumed.
type MarkPaidUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	txManager        *db.TransactionManager
	signal           QueueSignal
	maxAttempts      int
	logger           logger.Interface
}

func NewMarkPaidUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *MarkPaidUseCase {
	return &MarkPaidUseCase{
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

func (uc *MarkPaidUseCase) Execute(ctx context.Context, cmd MarkPaidCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		if err := sub.MarkPaid(biztime.NowUTC()); err != nil {
			return err
		}
		if cmd.Reference != "" {
			sub.AppendNote(fmt.Sprintf("payment recorded: %s", cmd.Reference))
		}
		if err := uc.guard.ValidateWrite(txCtx, sub); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		if sub.InstanceID() != nil {
			if err := uc.resumeSuspendedInstance(txCtx, *sub.InstanceID()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to mark subscription paid", "error", err, "subscription_id", cmd.SubscriptionID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("payment recorded", "subscription_id", cmd.SubscriptionID, "reference", cmd.Reference)
	return nil
}

func (uc *MarkPaidUseCase) resumeSuspendedInstance(ctx context.Context, instanceID uint) error {
	inst, err := uc.instanceRepo.GetByIDForUpdate(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to get instance: %w", err)
	}
	if inst.State() != instancevo.StateSuspended {
		return nil
	}

	if err := inst.Resume(); err != nil {
		return fmt.Errorf("failed to resume instance: %w", err)
	}
	if err := uc.instanceRepo.Update(ctx, inst); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	entry, err := provisioning.NewQueueEntry(instanceID, provisioningvo.OperationResume, uc.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to build queue entry: %w", err)
	}
	if err := uc.queueRepo.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, provisioning.ErrDuplicateEntry) {
			return nil
		}
		return fmt.Errorf("failed to enqueue resume: %w", err)
	}
	return nil
}
