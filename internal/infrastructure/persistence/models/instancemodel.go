package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/shared/constants"
)

// InstanceModel is the database persistence model for hosted instances.
type InstanceModel struct {
	ID            uint   `gorm:"primarykey"`
	IID           string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: inst_xxx"`
	Name          string `gorm:"not null;size:255"`
	Subdomain     string `gorm:"uniqueIndex;not null;size:63"`
	State         string `gorm:"not null;size:20;index:idx_instance_state"`
	StatusMessage string `gorm:"size:1000"`
	Resources     datatypes.JSON
	IsTrial       bool    `gorm:"default:false"`
	WorkloadRef   *string `gorm:"size:255"`
	Version       int     `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (InstanceModel) TableName() string {
	return constants.TableInstances
}

// BeforeCreate hook for GORM
func (i *InstanceModel) BeforeCreate(tx *gorm.DB) error {
	if i.Version == 0 {
		i.Version = 1
	}
	return nil
}
