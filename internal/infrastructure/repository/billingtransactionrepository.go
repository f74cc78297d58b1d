package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/mappers"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type BillingTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.BillingTransactionMapper
	logger logger.Interface
}

func NewBillingTransactionRepository(
	db *gorm.DB,
	logger logger.Interface,
) billing.Repository {
	return &BillingTransactionRepositoryImpl{
		db:     db,
		mapper: mappers.NewBillingTransactionMapper(),
		logger: logger,
	}
}

func (r *BillingTransactionRepositoryImpl) Create(ctx context.Context, record *billing.Transaction) error {
	model, err := r.mapper.ToModel(record)
	if err != nil {
		r.logger.Errorw("failed to map billing transaction to model", "error", err)
		return fmt.Errorf("failed to map billing transaction: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create billing transaction", "error", err)
		return fmt.Errorf("failed to create billing transaction: %w", err)
	}

	if err := record.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set billing transaction ID: %w", err)
	}

	r.logger.Infow("billing transaction created",
		"id", model.ID,
		"bid", model.BID,
		"subscription_id", model.SubscriptionID,
		"amount", model.Amount,
	)
	return nil
}

func (r *BillingTransactionRepositoryImpl) GetByID(ctx context.Context, id uint) (*billing.Transaction, error) {
	var model models.BillingTransactionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrTransactionNotFound
		}
		r.logger.Errorw("failed to get billing transaction", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get billing transaction: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map billing transaction: %w", err)
	}
	return entity, nil
}

func (r *BillingTransactionRepositoryImpl) ExistsForPeriod(ctx context.Context, subscriptionID uint, periodStart time.Time) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.BillingTransactionModel{}).
		Where("subscription_id = ? AND period_start = ?", subscriptionID, periodStart).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check billing period",
			"subscription_id", subscriptionID,
			"period_start", periodStart,
			"error", err,
		)
		return false, fmt.Errorf("failed to check billing period: %w", err)
	}

	return count > 0, nil
}

func (r *BillingTransactionRepositoryImpl) FindBySubscription(ctx context.Context, subscriptionID uint) ([]*billing.Transaction, error) {
	var modelList []*models.BillingTransactionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("subscription_id = ?", subscriptionID).
		Order("period_start DESC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find billing transactions", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to find billing transactions: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}
