package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
)

// suspendLinkedInstance suspends a running instance under lock and enqueues
// the suspend work. A no-op when the instance is not running. An already
// queued suspend is treated as done.
func suspendLinkedInstance(
	ctx context.Context,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	instanceID uint,
	maxAttempts int,
) error {
	inst, err := instanceRepo.GetByIDForUpdate(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to get instance: %w", err)
	}
	if inst.State() != instancevo.StateRunning {
		return nil
	}

	if err := inst.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend instance: %w", err)
	}
	if err := instanceRepo.Update(ctx, inst); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	entry, err := provisioning.NewQueueEntry(instanceID, provisioningvo.OperationSuspend, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to build queue entry: %w", err)
	}
	if err := queueRepo.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, provisioning.ErrDuplicateEntry) {
			return nil
		}
		return fmt.Errorf("failed to enqueue suspend: %w", err)
	}
	return nil
}

// provisionLinkedInstance moves a draft or errored instance to pending under
// lock and enqueues the provisioning work. Instances already pending,
// provisioning or running are left alone. Reports whether work was enqueued.
func provisionLinkedInstance(
	ctx context.Context,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	instanceID uint,
	maxAttempts int,
) (bool, error) {
	inst, err := instanceRepo.GetByIDForUpdate(ctx, instanceID)
	if err != nil {
		return false, fmt.Errorf("failed to get instance: %w", err)
	}
	if inst.State() != instancevo.StateDraft && inst.State() != instancevo.StateError {
		return false, nil
	}

	if err := inst.MarkPending(); err != nil {
		return false, fmt.Errorf("failed to mark instance pending: %w", err)
	}
	if err := instanceRepo.Update(ctx, inst); err != nil {
		return false, fmt.Errorf("failed to update instance: %w", err)
	}

	entry, err := provisioning.NewQueueEntry(instanceID, provisioningvo.OperationProvision, maxAttempts)
	if err != nil {
		return false, fmt.Errorf("failed to build queue entry: %w", err)
	}
	if err := queueRepo.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, provisioning.ErrDuplicateEntry) {
			return true, nil
		}
		return false, fmt.Errorf("failed to enqueue provisioning: %w", err)
	}
	return true, nil
}

// createInstanceForSubscription builds and persists a fresh instance for a
// subscription that has none, deriving a unique subdomain from the customer.
func createInstanceForSubscription(
	ctx context.Context,
	instanceRepo instance.Repository,
	sub *subscription.Subscription,
	p plan.Plan,
) (*instance.Instance, error) {
	base := fmt.Sprintf("cust%d", sub.CustomerID())
	subdomain := base
	for suffix := 2; ; suffix++ {
		taken, err := instanceRepo.ExistsBySubdomain(ctx, subdomain)
		if err != nil {
			return nil, fmt.Errorf("failed to check subdomain: %w", err)
		}
		if !taken {
			break
		}
		subdomain = fmt.Sprintf("%s-%d", base, suffix)
	}

	name := fmt.Sprintf("%s (%s)", p.Name, subdomain)
	inst, err := instance.NewInstance(name, subdomain, p.Resources, sub.IsTrial())
	if err != nil {
		return nil, fmt.Errorf("failed to build instance: %w", err)
	}
	if err := instanceRepo.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	return inst, nil
}
