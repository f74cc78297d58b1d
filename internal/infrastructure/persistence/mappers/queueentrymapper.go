package mappers

import (
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/provisioning"
	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/mapper"
)

type QueueEntryMapper interface {
	ToEntity(model *models.QueueEntryModel) (*provisioning.QueueEntry, error)
	ToModel(entity *provisioning.QueueEntry) (*models.QueueEntryModel, error)
	ToEntities(models []*models.QueueEntryModel) ([]*provisioning.QueueEntry, error)
}

type QueueEntryMapperImpl struct{}

func NewQueueEntryMapper() QueueEntryMapper {
	return &QueueEntryMapperImpl{}
}

func (m *QueueEntryMapperImpl) ToEntity(model *models.QueueEntryModel) (*provisioning.QueueEntry, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := provisioning.ReconstructQueueEntry(provisioning.QueueEntryReconstructParams{
		ID:           model.ID,
		QID:          model.QID,
		InstanceID:   model.InstanceID,
		Operation:    vo.Operation(model.Operation),
		Status:       vo.EntryStatus(model.Status),
		AttemptCount: model.AttemptCount,
		MaxAttempts:  model.MaxAttempts,
		LastError:    model.LastError,
		WorkerID:     model.WorkerID,
		EnqueuedAt:   model.EnqueuedAt,
		NextRetryAt:  model.NextRetryAt,
		StartedAt:    model.StartedAt,
		CompletedAt:  model.CompletedAt,
		Version:      model.Version,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct queue entry entity: %w", err)
	}

	return entity, nil
}

func (m *QueueEntryMapperImpl) ToModel(entity *provisioning.QueueEntry) (*models.QueueEntryModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.QueueEntryModel{
		ID:           entity.ID(),
		QID:          entity.QID(),
		InstanceID:   entity.InstanceID(),
		Operation:    entity.Operation().String(),
		Status:       entity.Status().String(),
		AttemptCount: entity.AttemptCount(),
		MaxAttempts:  entity.MaxAttempts(),
		LastError:    entity.LastError(),
		WorkerID:     entity.WorkerID(),
		EnqueuedAt:   entity.EnqueuedAt(),
		NextRetryAt:  entity.NextRetryAt(),
		StartedAt:    entity.StartedAt(),
		CompletedAt:  entity.CompletedAt(),
		Version:      entity.Version(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}, nil
}

func (m *QueueEntryMapperImpl) ToEntities(modelList []*models.QueueEntryModel) ([]*provisioning.QueueEntry, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.QueueEntryModel) uint { return model.ID })
}
