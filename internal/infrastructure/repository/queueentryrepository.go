package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/domain/provisioning"
	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/mappers"
	"github.com/lumenhost/lumen/internal/infrastructure/persistence/models"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// claimCandidates bounds how many contested candidates a single ClaimNext
// call walks before reporting an empty queue.
const claimCandidates = 5

var activeEntryStatuses = []string{
	string(vo.EntryPending),
	string(vo.EntryInProgress),
}

type QueueEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.QueueEntryMapper
	logger logger.Interface
}

func NewQueueEntryRepository(
	db *gorm.DB,
	logger logger.Interface,
) provisioning.Repository {
	return &QueueEntryRepositoryImpl{
		db:     db,
		mapper: mappers.NewQueueEntryMapper(),
		logger: logger,
	}
}

// Enqueue inserts the entry after checking the active-entry slot. The check
// and insert share the caller's transaction, which is what makes the
// at-most-one active entry per (instance, operation) invariant hold under
// concurrent enqueues.
func (r *QueueEntryRepositoryImpl) Enqueue(ctx context.Context, entry *provisioning.QueueEntry) error {
	tx := db.GetTxFromContext(ctx, r.db)

	var count int64
	if err := tx.Model(&models.QueueEntryModel{}).
		Where("instance_id = ? AND operation = ? AND status IN ?",
			entry.InstanceID(), entry.Operation().String(), activeEntryStatuses).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check active queue entries", "instance_id", entry.InstanceID(), "error", err)
		return fmt.Errorf("failed to check active queue entries: %w", err)
	}
	if count > 0 {
		return provisioning.ErrDuplicateEntry
	}

	model, err := r.mapper.ToModel(entry)
	if err != nil {
		r.logger.Errorw("failed to map queue entry to model", "error", err)
		return fmt.Errorf("failed to map queue entry: %w", err)
	}
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create queue entry", "error", err)
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	if err := entry.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set queue entry ID: %w", err)
	}

	r.logger.Infow("queue entry enqueued",
		"id", model.ID,
		"qid", model.QID,
		"instance_id", model.InstanceID,
		"operation", model.Operation,
	)
	return nil
}

func (r *QueueEntryRepositoryImpl) GetByID(ctx context.Context, id uint) (*provisioning.QueueEntry, error) {
	var model models.QueueEntryModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, provisioning.ErrEntryNotFound
		}
		r.logger.Errorw("failed to get queue entry by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}

	return r.toEntity(&model)
}

func (r *QueueEntryRepositoryImpl) GetByQID(ctx context.Context, qid string) (*provisioning.QueueEntry, error) {
	var model models.QueueEntryModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("qid = ?", qid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, provisioning.ErrEntryNotFound
		}
		r.logger.Errorw("failed to get queue entry by QID", "qid", qid, "error", err)
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}

	return r.toEntity(&model)
}

func (r *QueueEntryRepositoryImpl) Update(ctx context.Context, entry *provisioning.QueueEntry) error {
	model, err := r.mapper.ToModel(entry)
	if err != nil {
		r.logger.Errorw("failed to map queue entry to model", "id", entry.ID(), "error", err)
		return fmt.Errorf("failed to map queue entry: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(model).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"attempt_count": model.AttemptCount,
			"last_error":    model.LastError,
			"worker_id":     model.WorkerID,
			"next_retry_at": model.NextRetryAt,
			"started_at":    model.StartedAt,
			"completed_at":  model.CompletedAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update queue entry", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update queue entry: %w", result.Error)
	}

	return nil
}

// ClaimNext picks the oldest due pending entry and claims it with a
// conditional UPDATE on status. Losing the race to another worker just moves
// on to the next candidate, so concurrent workers never double-claim.
func (r *QueueEntryRepositoryImpl) ClaimNext(ctx context.Context, workerID string, now time.Time) (*provisioning.QueueEntry, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	for attempt := 0; attempt < claimCandidates; attempt++ {
		var candidate models.QueueEntryModel
		err := tx.
			Where("status = ?", string(vo.EntryPending)).
			Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
			Order("enqueued_at ASC, id ASC").
			First(&candidate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			r.logger.Errorw("failed to find claimable queue entry", "error", err)
			return nil, fmt.Errorf("failed to find claimable queue entry: %w", err)
		}

		result := tx.Model(&models.QueueEntryModel{}).
			Where("id = ? AND status = ?", candidate.ID, string(vo.EntryPending)).
			Updates(map[string]interface{}{
				"status":        string(vo.EntryInProgress),
				"worker_id":     workerID,
				"attempt_count": gorm.Expr("attempt_count + 1"),
				"started_at":    now,
				"last_error":    "",
				"version":       gorm.Expr("version + 1"),
				"updated_at":    now,
			})
		if result.Error != nil {
			r.logger.Errorw("failed to claim queue entry", "id", candidate.ID, "error", result.Error)
			return nil, fmt.Errorf("failed to claim queue entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Another worker claimed this entry first.
			continue
		}

		var claimed models.QueueEntryModel
		if err := tx.First(&claimed, candidate.ID).Error; err != nil {
			r.logger.Errorw("failed to reload claimed queue entry", "id", candidate.ID, "error", err)
			return nil, fmt.Errorf("failed to reload claimed queue entry: %w", err)
		}

		r.logger.Debugw("queue entry claimed",
			"id", claimed.ID,
			"qid", claimed.QID,
			"worker_id", workerID,
			"attempt", claimed.AttemptCount,
		)
		return r.toEntity(&claimed)
	}

	return nil, nil
}

func (r *QueueEntryRepositoryImpl) FindActiveByInstance(ctx context.Context, instanceID uint, op *vo.Operation) ([]*provisioning.QueueEntry, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Where("instance_id = ? AND status IN ?", instanceID, activeEntryStatuses)
	if op != nil {
		query = query.Where("operation = ?", op.String())
	}

	var modelList []*models.QueueEntryModel
	if err := query.Order("enqueued_at ASC").Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to find active queue entries", "instance_id", instanceID, "error", err)
		return nil, fmt.Errorf("failed to find active queue entries: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

// ReleaseStale returns entries stuck in progress to pending so work lost to
// a crashed worker is picked up again.
func (r *QueueEntryRepositoryImpl) ReleaseStale(ctx context.Context, olderThan time.Time) (int, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.QueueEntryModel{}).
		Where("status = ? AND started_at < ?", string(vo.EntryInProgress), olderThan).
		Updates(map[string]interface{}{
			"status":     string(vo.EntryPending),
			"worker_id":  "",
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to release stale queue entries", "error", result.Error)
		return 0, fmt.Errorf("failed to release stale queue entries: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		r.logger.Warnw("released stale queue entries", "count", result.RowsAffected)
	}
	return int(result.RowsAffected), nil
}

func (r *QueueEntryRepositoryImpl) toEntity(model *models.QueueEntryModel) (*provisioning.QueueEntry, error) {
	entity, err := r.mapper.ToEntity(model)
	if err != nil {
		r.logger.Errorw("failed to map queue entry model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map queue entry: %w", err)
	}
	return entity, nil
}
