package billing

import (
	"context"
	"errors"
	"time"
)

var ErrTransactionNotFound = errors.New("billing transaction not found")

type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uint) (*Transaction, error)
	// ExistsForPeriod reports whether the subscription already has a
	// transaction whose period starts on the given date.
	ExistsForPeriod(ctx context.Context, subscriptionID uint, periodStart time.Time) (bool, error)
	FindBySubscription(ctx context.Context, subscriptionID uint) ([]*Transaction, error)
}
