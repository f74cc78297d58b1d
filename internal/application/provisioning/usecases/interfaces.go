package usecases

import (
	"context"

	"github.com/lumenhost/lumen/internal/domain/instance"
)

// Notifier sends customer-facing lifecycle notifications. Failures are
// logged and never fail the queue entry.
type Notifier interface {
	// NotifyInstanceReady informs the customer that their instance finished
	// provisioning and is reachable.
	NotifyInstanceReady(ctx context.Context, inst *instance.Instance) error
}
