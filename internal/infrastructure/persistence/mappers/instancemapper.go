package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/lumenhost/lumen/internal/domain/instance"
	vo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
)

type InstanceMapper interface {
	ToEntity(model *models.InstanceModel) (*instance.Instance, error)
	ToModel(entity *instance.Instance) (*models.InstanceModel, error)
}

type InstanceMapperImpl struct{}

func NewInstanceMapper() InstanceMapper {
	return &InstanceMapperImpl{}
}

func (m *InstanceMapperImpl) ToEntity(model *models.InstanceModel) (*instance.Instance, error) {
	if model == nil {
		return nil, nil
	}

	var resources vo.ResourceSpec
	if len(model.Resources) > 0 {
		if err := json.Unmarshal(model.Resources, &resources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resources: %w", err)
		}
	}

	entity, err := instance.ReconstructInstance(instance.InstanceReconstructParams{
		ID:            model.ID,
		IID:           model.IID,
		Name:          model.Name,
		Subdomain:     model.Subdomain,
		State:         vo.InstanceState(model.State),
		StatusMessage: model.StatusMessage,
		Resources:     resources,
		IsTrial:       model.IsTrial,
		WorkloadRef:   model.WorkloadRef,
		Version:       model.Version,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct instance entity: %w", err)
	}

	return entity, nil
}

func (m *InstanceMapperImpl) ToModel(entity *instance.Instance) (*models.InstanceModel, error) {
	if entity == nil {
		return nil, nil
	}

	resourcesJSON, err := json.Marshal(entity.Resources())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resources: %w", err)
	}

	return &models.InstanceModel{
		ID:            entity.ID(),
		IID:           entity.IID(),
		Name:          entity.Name(),
		Subdomain:     entity.Subdomain(),
		State:         entity.State().String(),
		StatusMessage: entity.StatusMessage(),
		Resources:     datatypes.JSON(resourcesJSON),
		IsTrial:       entity.IsTrial(),
		WorkloadRef:   entity.WorkloadRef(),
		Version:       entity.Version(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}
