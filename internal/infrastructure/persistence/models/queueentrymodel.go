package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/shared/constants"
)

// QueueEntryModel is the database persistence model for provisioning queue
// entries. Claiming is done with a conditional UPDATE on status, so the
// status column doubles as the concurrency control.
type QueueEntryModel struct {
	ID           uint   `gorm:"primarykey"`
	QID          string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: pq_xxx"`
	InstanceID   uint   `gorm:"not null;index:idx_queue_instance"`
	Operation    string `gorm:"not null;size:20;index:idx_queue_instance_op,priority:2"`
	Status       string `gorm:"not null;size:20;index:idx_queue_status;index:idx_queue_instance_op,priority:1"`
	AttemptCount int    `gorm:"not null;default:0"`
	MaxAttempts  int    `gorm:"not null"`
	LastError    string `gorm:"size:2000"`
	WorkerID     string `gorm:"size:100"`
	EnqueuedAt   time.Time `gorm:"not null;index:idx_queue_enqueued"`
	NextRetryAt  *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Version      int `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (QueueEntryModel) TableName() string {
	return constants.TableProvisioningQueue
}

// BeforeCreate hook for GORM
func (q *QueueEntryModel) BeforeCreate(tx *gorm.DB) error {
	if q.Version == 0 {
		q.Version = 1
	}
	return nil
}
