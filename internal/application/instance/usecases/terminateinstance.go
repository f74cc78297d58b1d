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
	"github.com/lumenhost/lumen/internal/shared/db"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type TerminateInstanceCommand struct {
	InstanceID uint
}

// TerminateInstanceUseCase schedules destruction of an instance's workload.
// Rejected while an active, trial or past-due subscription still holds the
// instance. The record transitions to terminated when the worker finishes.
type TerminateInstanceUseCase struct {
	instanceRepo instance.Repository
	queueRepo    provisioning.Repository
	guard        *subscription.ConsistencyGuard
	txManager    *db.TransactionManager
	signal       QueueSignal
	maxAttempts  int
	logger       logger.Interface
}

func NewTerminateInstanceUseCase(
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	signal QueueSignal,
	maxAttempts int,
	logger logger.Interface,
) *TerminateInstanceUseCase {
	return &TerminateInstanceUseCase{
		instanceRepo: instanceRepo,
		queueRepo:    queueRepo,
		guard:        guard,
		txManager:    txManager,
		signal:       signal,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

func (uc *TerminateInstanceUseCase) Execute(ctx context.Context, cmd TerminateInstanceCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}
		if inst.State().IsTerminal() {
			return nil
		}
		if inst.State() == instancevo.StateDraft {
			return apperrors.NewInvalidStateError(
				"draft instance has nothing to terminate, delete it instead")
		}

		if err := uc.guard.CheckInstanceDeletable(txCtx, cmd.InstanceID); err != nil {
			return err
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
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to terminate instance", "error", err, "instance_id", cmd.InstanceID)
		return err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("instance termination scheduled", "instance_id", cmd.InstanceID)
	return nil
}
