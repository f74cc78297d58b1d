package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ListQueueEntriesUseCase returns the active queue entries for an instance,
// oldest first.
type ListQueueEntriesUseCase struct {
	instanceRepo instance.Repository
	queueRepo    provisioning.Repository
	logger       logger.Interface
}

func NewListQueueEntriesUseCase(
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	logger logger.Interface,
) *ListQueueEntriesUseCase {
	return &ListQueueEntriesUseCase{
		instanceRepo: instanceRepo,
		queueRepo:    queueRepo,
		logger:       logger,
	}
}

func (uc *ListQueueEntriesUseCase) Execute(ctx context.Context, iid string) ([]*provisioning.QueueEntry, error) {
	inst, err := uc.instanceRepo.GetByIID(ctx, iid)
	if err != nil {
		if errors.Is(err, instance.ErrInstanceNotFound) {
			return nil, apperrors.NewNotFoundError("instance not found", iid)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	entries, err := uc.queueRepo.FindActiveByInstance(ctx, inst.ID(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}
