package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/id"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ReconcileBillingUseCase is the periodic job that invoices active
// subscriptions whose billing date has arrived. The billing transaction
// recorded per period is what makes the run idempotent: re-running the job,
// or two schedulers racing, never invoices the same period twice.
type ReconcileBillingUseCase struct {
	subscriptionRepo subscription.Repository
	billingRepo      billing.Repository
	invoicer         billing.Invoicer
	catalog          plan.Catalog
	txManager        *db.TransactionManager
	logger           logger.Interface
}

func NewReconcileBillingUseCase(
	subscriptionRepo subscription.Repository,
	billingRepo billing.Repository,
	invoicer billing.Invoicer,
	catalog plan.Catalog,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ReconcileBillingUseCase {
	return &ReconcileBillingUseCase{
		subscriptionRepo: subscriptionRepo,
		billingRepo:      billingRepo,
		invoicer:         invoicer,
		catalog:          catalog,
		txManager:        txManager,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions billed in this run.
func (uc *ReconcileBillingUseCase) Execute(ctx context.Context) (int, error) {
	today := biztime.Today()
	due, err := uc.subscriptionRepo.FindBillingDue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to find billing-due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found subscriptions due for billing", "count", len(due))

	billed := 0
	for _, candidate := range due {
		invoiced, err := uc.billOne(ctx, candidate.ID(), today)
		if err != nil {
			uc.logger.Errorw("failed to bill subscription",
				"error", err,
				"subscription_id", candidate.ID(),
				"subscription_sid", candidate.SID(),
			)
			continue
		}
		if invoiced {
			billed++
		}
	}
	return billed, nil
}

func (uc *ReconcileBillingUseCase) billOne(ctx context.Context, subscriptionID uint, today time.Time) (bool, error) {
	invoiced := false
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		// Re-check under lock: a concurrent payment or cancellation may
		// have moved the billing date or the status since the scan.
		if !sub.IsBillingDue(today) {
			return nil
		}

		periodStart := (*sub.NextBillingDate()).UTC()
		periodEnd := sub.BillingCycle().NextBillingDate(periodStart)

		exists, err := uc.billingRepo.ExistsForPeriod(txCtx, sub.ID(), periodStart)
		if err != nil {
			return fmt.Errorf("failed to check billing period: %w", err)
		}
		if exists {
			return nil
		}

		p, err := uc.catalog.Get(sub.PlanCode())
		if err != nil {
			return fmt.Errorf("failed to resolve plan %s: %w", sub.PlanCode(), err)
		}
		amount := p.MonthlyPrice
		if sub.BillingCycle() == vo.BillingCycleYearly {
			amount = p.YearlyPrice
		}

		record, err := billing.NewTransaction(sub.ID(), periodStart, periodEnd, amount, p.Currency)
		if err != nil {
			return fmt.Errorf("failed to build billing transaction: %w", err)
		}

		invoiceRef := uc.issueInvoice(txCtx, sub, p, periodStart, periodEnd, amount)
		if err := record.AttachInvoice(invoiceRef); err != nil {
			return fmt.Errorf("failed to attach invoice: %w", err)
		}
		if err := uc.billingRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create billing transaction: %w", err)
		}

		if err := sub.MarkBillingPending(); err != nil {
			return err
		}
		sub.AppendNote(fmt.Sprintf("invoice %s issued for period %s to %s",
			invoiceRef,
			periodStart.Format("2006-01-02"),
			periodEnd.Format("2006-01-02"),
		))
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		invoiced = true
		uc.logger.Debugw("subscription billed",
			"subscription_sid", sub.SID(),
			"invoice_ref", invoiceRef,
			"amount", amount,
			"currency", p.Currency,
		)
		return nil
	})
	return invoiced, err
}

// issueInvoice asks the external invoicing service for an invoice and falls
// back to a locally issued reference when the service is unavailable, so a
// billing run never blocks on the invoicing side.
func (uc *ReconcileBillingUseCase) issueInvoice(
	ctx context.Context,
	sub *subscription.Subscription,
	p plan.Plan,
	periodStart, periodEnd time.Time,
	amount float64,
) string {
	ref, err := uc.invoicer.CreateSubscriptionInvoice(ctx, billing.InvoiceRequest{
		SubscriptionSID: sub.SID(),
		CustomerID:      sub.CustomerID(),
		PlanCode:        sub.PlanCode(),
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		Amount:          amount,
		Currency:        p.Currency,
	})
	if err == nil {
		return ref
	}

	fallback := id.MustGenerateWithPrefix(id.PrefixInvoice, id.DefaultLength)
	uc.logger.Warnw("invoicing service failed, issuing local invoice",
		"error", err,
		"subscription_sid", sub.SID(),
		"invoice_ref", fallback,
	)
	return fallback
}
