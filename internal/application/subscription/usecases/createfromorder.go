package usecases

import (
	"context"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	provisioningvo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/db"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type CreateFromOrderCommand struct {
	CustomerID   uint
	PlanCode     string
	BillingCycle string
	InstanceName string
	Subdomain    string
	WithTrial    bool
}

type CreateFromOrderResult struct {
	SubscriptionSID string
	InstanceIID     string
}

// CreateFromOrderUseCase turns a confirmed order into a subscription, its
// instance and the provisioning work, in one transaction. Either all of it
// exists afterwards or none of it does.
type CreateFromOrderUseCase struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	guard            *subscription.ConsistencyGuard
	catalog          plan.Catalog
	txManager        *db.TransactionManager
	signal           QueueSignal
	trialDays        int
	maxAttempts      int
	logger           logger.Interface
}

func NewCreateFromOrderUseCase(
	subscriptionRepo subscription.Repository,
	instanceRepo instance.Repository,
	queueRepo provisioning.Repository,
	guard *subscription.ConsistencyGuard,
	catalog plan.Catalog,
	txManager *db.TransactionManager,
	signal QueueSignal,
	trialDays int,
	maxAttempts int,
	logger logger.Interface,
) *CreateFromOrderUseCase {
	return &CreateFromOrderUseCase{
		subscriptionRepo: subscriptionRepo,
		instanceRepo:     instanceRepo,
		queueRepo:        queueRepo,
		guard:            guard,
		catalog:          catalog,
		txManager:        txManager,
		signal:           signal,
		trialDays:        trialDays,
		maxAttempts:      maxAttempts,
		logger:           logger,
	}
}

func (uc *CreateFromOrderUseCase) Execute(ctx context.Context, cmd CreateFromOrderCommand) (*CreateFromOrderResult, error) {
	cycle, err := vo.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid billing cycle", err.Error())
	}

	p, err := uc.catalog.Get(cmd.PlanCode)
	if err != nil {
		return nil, apperrors.NewValidationError("unknown plan", cmd.PlanCode)
	}
	if cmd.WithTrial && !p.TrialAllowed {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("plan %s does not allow trials", p.Code),
		)
	}

	var result *CreateFromOrderResult
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		taken, err := uc.instanceRepo.ExistsBySubdomain(txCtx, cmd.Subdomain)
		if err != nil {
			return fmt.Errorf("failed to check subdomain: %w", err)
		}
		if taken {
			return apperrors.NewConflictError("subdomain is already taken", cmd.Subdomain)
		}

		inst, err := instance.NewInstance(cmd.InstanceName, cmd.Subdomain, p.Resources, cmd.WithTrial)
		if err != nil {
			return apperrors.NewValidationError("invalid instance", err.Error())
		}
		if err := uc.instanceRepo.Create(txCtx, inst); err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
		}

		sub, err := subscription.NewSubscription(cmd.CustomerID, cmd.PlanCode, cycle)
		if err != nil {
			return apperrors.NewValidationError("invalid subscription", err.Error())
		}
		if err := sub.LinkInstance(inst.ID()); err != nil {
			return fmt.Errorf("failed to link instance: %w", err)
		}

		now := sub.CreatedAt()
		if cmd.WithTrial {
			if err := sub.StartTrial(now, uc.trialDays); err != nil {
				return fmt.Errorf("failed to start trial: %w", err)
			}
		} else {
			if err := sub.Activate(now); err != nil {
				return fmt.Errorf("failed to activate subscription: %w", err)
			}
		}

		if err := uc.guard.ValidateWrite(txCtx, sub); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		if err := inst.MarkPending(); err != nil {
			return fmt.Errorf("failed to mark instance pending: %w", err)
		}
		if err := uc.instanceRepo.Update(txCtx, inst); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}

		entry, err := provisioning.NewQueueEntry(inst.ID(), provisioningvo.OperationProvision, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to build queue entry: %w", err)
		}
		if err := uc.queueRepo.Enqueue(txCtx, entry); err != nil {
			return fmt.Errorf("failed to enqueue provisioning: %w", err)
		}

		result = &CreateFromOrderResult{
			SubscriptionSID: sub.SID(),
			InstanceIID:     inst.IID(),
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to create subscription from order",
			"error", err,
			"customer_id", cmd.CustomerID,
			"plan_code", cmd.PlanCode,
		)
		return nil, err
	}

	uc.signal.Wake(ctx)
	uc.logger.Infow("subscription created from order",
		"subscription_sid", result.SubscriptionSID,
		"instance_iid", result.InstanceIID,
		"customer_id", cmd.CustomerID,
		"plan_code", cmd.PlanCode,
		"with_trial", cmd.WithTrial,
	)
	return result, nil
}
