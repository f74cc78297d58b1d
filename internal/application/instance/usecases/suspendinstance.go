package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type SuspendInstanceCommand struct {
	InstanceID uint
}

// SuspendInstanceUseCase withdraws service access while retaining data. The
// record transitions immediately; stopping the workload happens through the
// queue.
type SuspendInstanceUseCase struct {
	instanceRepo instance.Repository
	queueRepo    provisioning.Repository
	txManager    *db.TransactionManager
	signal       QueueSignal
	maxAttempts  int
	logger       logger.Interface
}

func NewSuspendInstanceUseCase(
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *SuspendInstanceUseCase {
	return &SuspendInstanceUseCase{
		instanceRepo: instanceRepo,
		queueRepo:    queueRepo,
		txManager:    txManager,
		signal:       signal,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

func (uc *SuspendInstanceUseCase) Execute(ctx context.Context, cmd SuspendInstanceCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}

		if err := inst.Suspend(); err != nil {
			return err
		}
		if err := uc.instanceRepo.Update(txCtx, inst); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}

		entry, err := provisioning.NewQueueEntry(inst.ID(), provisioningvo.OperationSuspend, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to build queue entry: %w", err)
		}
		if err := uc.queueRepo.Enqueue(txCtx, entry); err != nil {
			if errors.Is(err, provisioning.ErrDuplicateEntry) {
				return nil
			}
			return fmt.Errorf("failed to enqueue suspend: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to suspend instance", "error", err, "instance_id", cmd.InstanceID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("instance suspended", "instance_id", cmd.InstanceID)
	return nil
}
