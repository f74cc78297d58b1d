package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/mappers"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

var holderStatuses = []string{
	string(vo.StatusActive),
	string(vo.StatusTrial),
}

var blockingStatuses = []string{
	string(vo.StatusActive),
	string(vo.StatusTrial),
	string(vo.StatusPastDue),
}

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := sub.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created", "id", model.ID, "sid", model.SID, "customer_id", model.CustomerID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to lock subscription", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}

	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetByCustomerID(ctx context.Context, customerID uint) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to get subscriptions by customer ID", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", sub.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(model).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"customer_id":               model.CustomerID,
			"plan_code":                 model.PlanCode,
			"status":                    model.Status,
			"billing_cycle":             model.BillingCycle,
			"payment_status":            model.PaymentStatus,
			"is_trial":                  model.IsTrial,
			"trial_start_date":          model.TrialStartDate,
			"trial_end_date":            model.TrialEndDate,
			"start_date":                model.StartDate,
			"next_billing_date":         model.NextBillingDate,
			"last_billing_date":         model.LastBillingDate,
			"cancellation_date":         model.CancellationDate,
			"cancellation_cleanup_date": model.CancellationCleanupDate,
			"instance_id":               model.InstanceID,
			"notes":                     model.Notes,
			"version":                   model.Version,
			"updated_at":                model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return nil
}

func (r *SubscriptionRepositoryImpl) FindActiveHolderForInstance(ctx context.Context, instanceID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("instance_id = ? AND status IN ?", instanceID, holderStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find active holder for instance", "instance_id", instanceID, "error", err)
		return nil, fmt.Errorf("failed to find instance holder: %w", err)
	}

	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) FindBlockingForInstance(ctx context.Context, instanceID uint) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("instance_id = ? AND status IN ?", instanceID, blockingStatuses).
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find blocking subscriptions", "instance_id", instanceID, "error", err)
		return nil, fmt.Errorf("failed to find blocking subscriptions: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *SubscriptionRepositoryImpl) FindBillingDue(ctx context.Context, today time.Time) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("status = ?", string(vo.StatusActive)).
		Where("next_billing_date IS NOT NULL AND next_billing_date <= ?", today).
		Where("payment_status <> ?", string(vo.PaymentOverdue)).
		Order("next_billing_date ASC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find billing-due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find billing-due subscriptions: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *SubscriptionRepositoryImpl) FindCleanupDue(ctx context.Context, today time.Time) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("status = ?", string(vo.StatusCancelled)).
		Where("cancellation_cleanup_date IS NOT NULL AND cancellation_cleanup_date <= ?", today).
		Where("instance_id IS NOT NULL").
		Order("cancellation_cleanup_date ASC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find cleanup-due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find cleanup-due subscriptions: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *SubscriptionRepositoryImpl) FindExpiredTrials(ctx context.Context, today time.Time) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("status = ?", string(vo.StatusTrial)).
		Where("trial_end_date IS NOT NULL AND trial_end_date < ?", today).
		Order("trial_end_date ASC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find expired trials", "error", err)
		return nil, fmt.Errorf("failed to find expired trials: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *SubscriptionRepositoryImpl) toEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	entity, err := r.mapper.ToEntity(model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}
	return entity, nil
}
