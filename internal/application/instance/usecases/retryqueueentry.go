package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/shared/db"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type RetryQueueEntryCommand struct {
	QID string
}

// RetryQueueEntryUseCase is the manual recovery path for a permanently
// failed queue entry. The entry returns to pending with counters cleared,
// and an errored instance returns to pending with it.
type RetryQueueEntryUseCase struct {
	queueRepo    provisioning.Repository
	instanceRepo instance.Repository
	txManager    *db.TransactionManager
	signal       QueueSignal
	logger       logger.Interface
}

func NewRetryQueueEntryUseCase(
	queueRepo provisioning.Repository,
	instanceRepo instance.Repository,
	txManager *db.TransactionManager,
	signal QueueSignal,
	logger logger.Interface,
) *RetryQueueEntryUseCase {
	return &RetryQueueEntryUseCase{
		queueRepo:    queueRepo,
		instanceRepo: instanceRepo,
		txManager:    txManager,
		signal:       signal,
		logger:       logger,
	}
}

func (uc *RetryQueueEntryUseCase) Execute(ctx context.Context, cmd RetryQueueEntryCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		entry, err := uc.queueRepo.GetByQID(txCtx, cmd.QID)
		if err != nil {
			if errors.Is(err, provisioning.ErrEntryNotFound) {
				return apperrors.NewNotFoundError("queue entry not found", cmd.QID)
			}
			return fmt.Errorf("failed to get queue entry: %w", err)
		}

		if err := entry.ResetForRetry(); err != nil {
			return apperrors.NewInvalidStateError("queue entry cannot be retried", err.Error())
		}
		if err := uc.queueRepo.Update(txCtx, entry); err != nil {
			return fmt.Errorf("failed to update queue entry: %w", err)
		}

		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, entry.InstanceID())
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}
		if inst.State() == instancevo.StateError {
			if err := inst.MarkPending(); err != nil {
				return fmt.Errorf("failed to mark instance pending: %w", err)
			}
			if err := uc.instanceRepo.Update(txCtx, inst); err != nil {
				return fmt.Errorf("failed to update instance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to retry queue entry", "error", err, "queue_qid", cmd.QID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("queue entry reset for retry", "queue_qid", cmd.QID)
	return nil
}
