package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	// GetByIDForUpdate loads the subscription under a row lock inside the
	// current transaction. Callers must be running inside
	// TransactionManager.RunInTransaction.
	GetByIDForUpdate(ctx context.Context, id uint) (*Subscription, error)
	GetByCustomerID(ctx context.Context, customerID uint) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// FindActiveHolderForInstance returns the subscription holding the given
	// instance with a status that requires an instance (active or trial),
	// or nil when no such subscription exists.
	FindActiveHolderForInstance(ctx context.Context, instanceID uint) (*Subscription, error)
	// FindBlockingForInstance returns all subscriptions that block deletion
	// of the given instance (active, trial or past due).
	FindBlockingForInstance(ctx context.Context, instanceID uint) ([]*Subscription, error)

	// FindBillingDue returns active subscriptions whose next billing date is
	// on or before today and whose payment is not overdue.
	FindBillingDue(ctx context.Context, today time.Time) ([]*Subscription, error)
	// FindCleanupDue returns cancelled subscriptions whose cleanup date is
	// on or before today and that still reference a non-terminated instance.
	FindCleanupDue(ctx context.Context, today time.Time) ([]*Subscription, error)
	// FindExpiredTrials returns trial subscriptions past their trial end date.
	FindExpiredTrials(ctx context.Context, today time.Time) ([]*Subscription, error)
}
