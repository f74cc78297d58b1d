package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type GetInstanceUseCase struct {
	instanceRepo instance.Repository
	logger       logger.Interface
}

func NewGetInstanceUseCase(
	instanceRepo instance.Repository,
	logger logger.Interface,
) *GetInstanceUseCase {
	return &GetInstanceUseCase{
		instanceRepo: instanceRepo,
		logger:       logger,
	}
}

func (uc *GetInstanceUseCase) Execute(ctx context.Context, iid string) (*instance.Instance, error) {
	inst, err := uc.instanceRepo.GetByIID(ctx, iid)
	if err != nil {
		if errors.Is(err, instance.ErrInstanceNotFound) {
			return nil, apperrors.NewNotFoundError("instance not found", iid)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}
