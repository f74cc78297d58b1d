package mappers

import (
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/mapper"
)

type BillingTransactionMapper interface {
	ToEntity(model *models.BillingTransactionModel) (*billing.Transaction, error)
	ToModel(entity *billing.Transaction) (*models.BillingTransactionModel, error)
	ToEntities(models []*models.BillingTransactionModel) ([]*billing.Transaction, error)
}

type BillingTransactionMapperImpl struct{}

func NewBillingTransactionMapper() BillingTransactionMapper {
	return &BillingTransactionMapperImpl{}
}

func (m *BillingTransactionMapperImpl) ToEntity(model *models.BillingTransactionModel) (*billing.Transaction, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := billing.ReconstructTransaction(billing.TransactionReconstructParams{
		ID:             model.ID,
		BID:            model.BID,
		SubscriptionID: model.SubscriptionID,
		PeriodStart:    model.PeriodStart,
		PeriodEnd:      model.PeriodEnd,
		Amount:         model.Amount,
		Currency:       model.Currency,
		InvoiceRef:     model.InvoiceRef,
		CreatedAt:      model.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct billing transaction entity: %w", err)
	}

	return entity, nil
}

func (m *BillingTransactionMapperImpl) ToModel(entity *billing.Transaction) (*models.BillingTransactionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.BillingTransactionModel{
		ID:             entity.ID(),
		BID:            entity.BID(),
		SubscriptionID: entity.SubscriptionID(),
		PeriodStart:    entity.PeriodStart(),
		PeriodEnd:      entity.PeriodEnd(),
		Amount:         entity.Amount(),
		Currency:       entity.Currency(),
		InvoiceRef:     entity.InvoiceRef(),
		CreatedAt:      entity.CreatedAt(),
	}, nil
}

func (m *BillingTransactionMapperImpl) ToEntities(modelList []*models.BillingTransactionModel) ([]*billing.Transaction, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.BillingTransactionModel) uint { return model.ID })
}
