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

type RequestProvisioningCommand struct {
	InstanceID uint
}

// RequestProvisioningUseCase moves an instance to pending and enqueues the
// provision work. Valid from draft, and from error as the manual recovery
// path after a provisioning failure.
type RequestProvisioningUseCase struct {
	instanceRepo instance.Repository
	queueRepo    provisioning.Repository
	txManager    *db.TransactionManager
	signal       QueueSignal
	maxAttempts  int
	logger       logger.Interface
}

func NewRequestProvisioningUseCase(
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *RequestProvisioningUseCase {
	return &RequestProvisioningUseCase{
		instanceRepo: instanceRepo,
		queueRepo:    queueRepo,
		txManager:    txManager,
		signal:       signal,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

func (uc *RequestProvisioningUseCase) Execute(ctx context.Context, cmd RequestProvisioningCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}

		if err := inst.MarkPending(); err != nil {
			return err
		}
		if err := uc.instanceRepo.Update(txCtx, inst); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}

		entry, err := provisioning.NewQueueEntry(inst.ID(), provisioningvo.OperationProvision, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to build queue entry: %w", err)
		}
		if err := uc.queueRepo.Enqueue(txCtx, entry); err != nil {
			if errors.Is(err, provisioning.ErrDuplicateEntry) {
				return nil
			}
			return fmt.Errorf("failed to enqueue provision: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to request provisioning", "error", err, "instance_id", cmd.InstanceID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("provisioning requested", "instance_id", cmd.InstanceID)
	return nil
}
