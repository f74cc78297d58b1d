package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	var notes []string
	if len(model.Notes) > 0 {
		if err := json.Unmarshal(model.Notes, &notes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
		}
	}

	entity, err := subscription.ReconstructSubscription(subscription.SubscriptionReconstructParams{
		ID:                      model.ID,
		SID:                     model.SID,
		CustomerID:              model.CustomerID,
		PlanCode:                model.PlanCode,
		Status:                  vo.SubscriptionStatus(model.Status),
		BillingCycle:            vo.BillingCycle(model.BillingCycle),
		PaymentStatus:           vo.PaymentStatus(model.PaymentStatus),
		IsTrial:                 model.IsTrial,
		TrialStartDate:          model.TrialStartDate,
		TrialEndDate:            model.TrialEndDate,
		StartDate:               model.StartDate,
		NextBillingDate:         model.NextBillingDate,
		LastBillingDate:         model.LastBillingDate,
		CancellationDate:        model.CancellationDate,
		CancellationCleanupDate: model.CancellationCleanupDate,
		InstanceID:              model.InstanceID,
		Notes:                   notes,
		Version:                 model.Version,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var notesJSON datatypes.JSON
	if notes := entity.Notes(); len(notes) > 0 {
		data, err := json.Marshal(notes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notes: %w", err)
		}
		notesJSON = data
	}

	return &models.SubscriptionModel{
		ID:                      entity.ID(),
		SID:                     entity.SID(),
		CustomerID:              entity.CustomerID(),
		PlanCode:                entity.PlanCode(),
		Status:                  entity.Status().String(),
		BillingCycle:            entity.BillingCycle().String(),
		PaymentStatus:           entity.PaymentStatus().String(),
		IsTrial:                 entity.IsTrial(),
		TrialStartDate:          entity.TrialStartDate(),
		TrialEndDate:            entity.TrialEndDate(),
		StartDate:               entity.StartDate(),
		NextBillingDate:         entity.NextBillingDate(),
		LastBillingDate:         entity.LastBillingDate(),
		CancellationDate:        entity.CancellationDate(),
		CancellationCleanupDate: entity.CancellationCleanupDate(),
		InstanceID:              entity.InstanceID(),
		Notes:                   notesJSON,
		Version:                 entity.Version(),
		CreatedAt:               entity.CreatedAt(),
		UpdatedAt:               entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionModel) uint { return model.ID })
}
