package usecases

import (
	"context"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/db"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type DeleteInstanceCommand struct {
	InstanceID uint
}

// DeleteInstanceUseCase hard-deletes a draft instance record. Anything past
// draft is retained for audit and must go through termination instead.
type DeleteInstanceUseCase struct {
	instanceRepo instance.Repository
	guard        *subscription.ConsistencyGuard
	txManager    *db.TransactionManager
	logger       logger.Interface
}

func NewDeleteInstanceUseCase(
	instanceRepo instance.Repository,
	guard *subscription.ConsistencyGuard,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *DeleteInstanceUseCase {
	return &DeleteInstanceUseCase{
		instanceRepo: instanceRepo,
		guard:        guard,
		txManager:    txManager,
		logger:       logger,
	}
}

func (uc *DeleteInstanceUseCase) Execute(ctx context.Context, cmd DeleteInstanceCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		inst, err := uc.instanceRepo.GetByIDForUpdate(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}

		if err := uc.guard.CheckInstanceDeletable(txCtx, cmd.InstanceID); err != nil {
			return err
		}
		if !inst.IsDeletable() {
			return apperrors.NewInvalidStateError(
				fmt.Sprintf("instance in state %s cannot be deleted", inst.State()),
				"only draft instances may be deleted",
			)
		}

		if err := uc.instanceRepo.Delete(txCtx, cmd.InstanceID); err != nil {
			return fmt.Errorf("failed to delete instance: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to delete instance", "error", err, "instance_id", cmd.InstanceID)
		return err
	}

	uc.logger.Infow("instance deleted", "instance_id", cmd.InstanceID)
	return nil
}
