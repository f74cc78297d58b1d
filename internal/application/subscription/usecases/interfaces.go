package usecases

import (
	"context"

	"github.com/lumenhost/lumen/internal/domain/subscription"
)

// Notifier sends customer-facing lifecycle notifications. Failures are
// logged and never fail the operation that triggered them.
type Notifier interface {
	// NotifySubscriptionCancelled informs the customer that the subscription
	// was cancelled and when the instance will be cleaned up.
	NotifySubscriptionCancelled(ctx context.Context, sub *subscription.Subscription) error
}

// QueueSignal wakes the provisioning workers after new entries are enqueued
// so they do not wait for the next poll tick.
type QueueSignal interface {
	Wake(ctx context.Context)
}
