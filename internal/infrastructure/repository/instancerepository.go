package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/mappers"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type InstanceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.InstanceMapper
	logger logger.Interface
}

func NewInstanceRepository(
	db *gorm.DB,
	logger logger.Interface,
) instance.Repository {
	return &InstanceRepositoryImpl{
		db:     db,
		mapper: mappers.NewInstanceMapper(),
		logger: logger,
	}
}

func (r *InstanceRepositoryImpl) Create(ctx context.Context, inst *instance.Instance) error {
	model, err := r.mapper.ToModel(inst)
	if err != nil {
		r.logger.Errorw("failed to map instance entity to model", "error", err)
		return fmt.Errorf("failed to map instance entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return instance.ErrSubdomainTaken
		}
		r.logger.Errorw("failed to create instance in database", "error", err)
		return fmt.Errorf("failed to create instance: %w", err)
	}

	if err := inst.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set instance ID: %w", err)
	}

	r.logger.Infow("instance created", "id", model.ID, "iid", model.IID, "subdomain", model.Subdomain)
	return nil
}

func (r *InstanceRepositoryImpl) GetByID(ctx context.Context, id uint) (*instance.Instance, error) {
	var model models.InstanceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, instance.ErrInstanceNotFound
		}
		r.logger.Errorw("failed to get instance by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return r.toEntity(&model)
}

func (r *InstanceRepositoryImpl) GetByIID(ctx context.Context, iid string) (*instance.Instance, error) {
	var model models.InstanceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("iid = ?", iid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, instance.ErrInstanceNotFound
		}
		r.logger.Errorw("failed to get instance by IID", "iid", iid, "error", err)
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return r.toEntity(&model)
}

func (r *InstanceRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*instance.Instance, error) {
	var model models.InstanceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, instance.ErrInstanceNotFound
		}
		r.logger.Errorw("failed to lock instance", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock instance: %w", err)
	}

	return r.toEntity(&model)
}

func (r *InstanceRepositoryImpl) Update(ctx context.Context, inst *instance.Instance) error {
	model, err := r.mapper.ToModel(inst)
	if err != nil {
		r.logger.Errorw("failed to map instance entity to model", "id", inst.ID(), "error", err)
		return fmt.Errorf("failed to map instance entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(model).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":           model.Name,
			"state":          model.State,
			"status_message": model.StatusMessage,
			"resources":      model.Resources,
			"is_trial":       model.IsTrial,
			"workload_ref":   model.WorkloadRef,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update instance", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update instance: %w", result.Error)
	}

	return nil
}

func (r *InstanceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Delete(&models.InstanceModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete instance", "id", id, "error", err)
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	r.logger.Infow("instance deleted", "id", id)
	return nil
}

func (r *InstanceRepositoryImpl) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.InstanceModel{}).
		Where("subdomain = ?", subdomain).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check subdomain", "subdomain", subdomain, "error", err)
		return false, fmt.Errorf("failed to check subdomain: %w", err)
	}

	return count > 0, nil
}

func (r *InstanceRepositoryImpl) toEntity(model *models.InstanceModel) (*instance.Instance, error) {
	entity, err := r.mapper.ToEntity(model)
	if err != nil {
		r.logger.Errorw("failed to map instance model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map instance: %w", err)
	}
	return entity, nil
}
