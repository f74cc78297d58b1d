package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// CleanupCancelledUseCase is the periodic job that terminates instances of
// cancelled subscriptions once their grace period has elapsed. Each
// subscription is handled in its own transaction and re-checked under lock,
// so overlapping runs and concurrent reactivation attempts are safe.
type CleanupCancelledUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	txManager        *db.TransactionManager
	signal           QueueSignal
	maxAttempts      int
	logger           logger.Interface
}

func NewCleanupCancelledUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *CleanupCancelledUseCase {
	return &CleanupCancelledUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		txManager:        txManager,
		signal:           signal,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

// Execute scans for cleanup-due subscriptions and schedules instance
// termination. Returns the number of subscriptions whose cleanup was
// scheduled in this run.
func (uc *CleanupCancelledUseCase) Execute(ctx context.Context) (int, error) {
	today := biztime.Today()
	due, err := uc.subscriptionRepo.FindCleanupDue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to find cleanup-due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found subscriptions due for cleanup", "count", len(due))

	cleaned := 0
	for _, candidate := range due {
		scheduled, err := uc.cleanupOne(ctx, candidate.ID(), today)
		if err != nil {
			uc.logger.Errorw("failed to clean up subscription",
				"error", err,
				"subscription_id", candidate.ID(),
				"subscription_sid", candidate.SID(),
			)
			continue
		}
		if scheduled {
			cleaned++
		}
	}

	if cleaned > 0 {
		uc.signal.Wake(ctx)
	}
	return cleaned, nil
}

func (uc *CleanupCancelledUseCase) cleanupOne(ctx context.Context, subscriptionID uint, today time.Time) (bool, error) {
	scheduled := false
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		// Re-check under lock: the subscription may have changed between
		// the scan and this transaction.
		if !sub.IsCleanupDue(today) || sub.InstanceID() == nil {
			return nil
		}

		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, *sub.InstanceID())
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}
		if inst.State().IsTerminal() {
			return nil
		}

		entry, err := provisioning.NewQueueEntry(inst.ID(), provisioningvo.OperationTerminate, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to build queue entry: %w", err)
		}
		if err := uc.queueRepo.Enqueue(txCtx, entry); err != nil {
			if errors.Is(err, provisioning.ErrDuplicateEntry) {
				return nil
			}
			return fmt.Errorf("failed to enqueue terminate: %w", err)
		}

		sub.AppendNote(fmt.Sprintf("instance cleanup scheduled on %s", today.Format("2006-01-02")))
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		scheduled = true
		uc.logger.Debugw("instance termination scheduled",
			"subscription_sid", sub.SID(),
			"instance_iid", inst.IID(),
			"queue_qid", entry.QID(),
		)
		return nil
	})
	return scheduled, err
}
