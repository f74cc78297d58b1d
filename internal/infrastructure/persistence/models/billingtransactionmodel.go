package models

import (
	"time"

	"github.com/lumenhost/lumen/internal/shared/constants"
)

// BillingTransactionModel is the database persistence model for billing
// transactions. The unique (subscription_id, period_start) index backs the
// per-period idempotency of the billing job.
type BillingTransactionModel struct {
	ID             uint      `gorm:"primarykey"`
	BID            string    `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: btx_xxx"`
	SubscriptionID uint      `gorm:"not null;uniqueIndex:idx_billing_period,priority:1"`
	PeriodStart    time.Time `gorm:"not null;uniqueIndex:idx_billing_period,priority:2"`
	PeriodEnd      time.Time `gorm:"not null"`
	Amount         float64   `gorm:"not null"`
	Currency       string    `gorm:"not null;size:10"`
	InvoiceRef     string    `gorm:"size:100"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (BillingTransactionModel) TableName() string {
	return constants.TableBillingTransactions
}
