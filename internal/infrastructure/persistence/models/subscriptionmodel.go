package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/shared/constants"
)

// SubscriptionModel is the database persistence model for subscriptions.
// This is the anti-corruption layer between domain and database.
type SubscriptionModel struct {
	ID                      uint   `gorm:"primarykey"`
	SID                     string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	CustomerID              uint   `gorm:"not null;index:idx_customer_subscription"`
	PlanCode                string `gorm:"not null;size:50;index:idx_plan_subscription"`
	Status                  string `gorm:"not null;size:20;index:idx_status"`
	BillingCycle            string `gorm:"not null;size:20"`
	PaymentStatus           string `gorm:"not null;size:20"`
	IsTrial                 bool   `gorm:"default:false"`
	TrialStartDate          *time.Time
	TrialEndDate            *time.Time `gorm:"index:idx_trial_end"`
	StartDate               *time.Time
	NextBillingDate         *time.Time `gorm:"index:idx_next_billing"`
	LastBillingDate         *time.Time
	CancellationDate        *time.Time
	CancellationCleanupDate *time.Time `gorm:"index:idx_cleanup"`
	InstanceID              *uint      `gorm:"index:idx_subscription_instance"`
	Notes                   datatypes.JSON
	Version                 int `gorm:"not null;default:1"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
