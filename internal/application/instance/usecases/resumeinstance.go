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

type ResumeInstanceCommand struct {
	InstanceID uint
}

type ResumeInstanceUseCase struct {
	instanceRepo instance.Repository
	queueRepo    provisioning.Repository
	txManager    *db.TransactionManager
	signal       QueueSignal
	maxAttempts  int
	logger       logger.Interface
}

func NewResumeInstanceUseCase(
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *ResumeInstanceUseCase {
	return &ResumeInstanceUseCase{
		instanceRepo: instanceRepo,
		queueRepo:    queueRepo,
		txManager:    txManager,
		signal:       signal,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

func (uc *ResumeInstanceUseCase) Execute(ctx context.Context, cmd ResumeInstanceCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}

		if err := inst.Resume(); err != nil {
			return err
		}
		if err := uc.instanceRepo.Update(txCtx, inst); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}

		entry, err := provisioning.NewQueueEntry(inst.ID(), provisioningvo.OperationResume, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to build queue entry: %w", err)
		}
		if err := uc.queueRepo.Enqueue(txCtx, entry); err != nil {
			if errors.Is(err, provisioning.ErrDuplicateEntry) {
				return nil
			}
			return fmt.Errorf("failed to enqueue resume: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to resume instance", "error", err, "instance_id", cmd.InstanceID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("instance resumed", "instance_id", cmd.InstanceID)
	return nil
}
