package subscription

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
)

// ConsistencyGuard enforces the cross-entity invariants between subscriptions
// and instances. It is a single validation function invoked inside the same
// transaction as every mutating write of a subscription's status or instance
// link, not a scattered set of ad hoc checks.
type ConsistencyGuard struct {
	repo Repository
}

func NewConsistencyGuard(repo Repository) *ConsistencyGuard {
	return &ConsistencyGuard{repo: repo}
}

// ValidateWrite checks the invariants for the subscription as it is about to
// be persisted:
//   - a subscription in active or trial must have a linked instance
//   - a non-terminated instance is held by at most one active/trial
//     subscription; the existing holder wins and the new write is rejected
//   - the cancellation cleanup date is set exactly when the subscription is
//     cancelled
func (g *ConsistencyGuard) ValidateWrite(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return apperrors.NewValidationError("subscription failed validation", err.Error())
	}

	if sub.Status().RequiresInstance() && sub.InstanceID() == nil {
		return apperrors.NewValidationError(
			fmt.Sprintf("subscription in status %s must have a linked instance", sub.Status()),
		)
	}

	if sub.Status().RequiresInstance() && sub.InstanceID() != nil {
		holder, err := g.repo.FindActiveHolderForInstance(ctx, *sub.InstanceID())
		if err != nil {
			return fmt.Errorf("failed to look up instance holder: %w", err)
		}
		if holder != nil && holder.ID() != sub.ID() {
			return apperrors.NewConflictError(
				"instance is already held by another subscription",
				fmt.Sprintf("instance %d is held by subscription %s", *sub.InstanceID(), holder.SID()),
			)
		}
	}

	return nil
}

// CheckInstanceDeletable rejects deletion of an instance that is still
// referenced by an active, trial or past-due subscription. The error lists
// the blocking subscription identifiers.
func (g *ConsistencyGuard) CheckInstanceDeletable(ctx context.Context, instanceID uint) error {
	blocking, err := g.repo.FindBlockingForInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to look up blocking subscriptions: %w", err)
	}
	if len(blocking) == 0 {
		return nil
	}

	sids := make([]string, 0, len(blocking))
	for _, sub := range blocking {
		sids = append(sids, sub.SID())
	}
	return apperrors.NewConflictError(
		"instance is referenced by active subscriptions",
		fmt.Sprintf("blocking subscriptions: %s", strings.Join(sids, ", ")),
	)
}
