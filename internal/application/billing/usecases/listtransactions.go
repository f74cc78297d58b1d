package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ListTransactionsUseCase returns the billing history of a subscription,
// newest period first.
type ListTransactionsUseCase struct {
	billingRepo      billing.Repository
	subscriptionRepo subscription.Repository
	logger           logger.Interface
}

func NewListTransactionsUseCase(
	billingRepo billing.Repository,
	subscriptionRepo subscription.Repository,
	logger logger.Interface,
) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		billingRepo:      billingRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, sid string) ([]*billing.Transaction, error) {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, sid)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, apperrors.NewNotFoundError("subscription not found", sid)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	records, err := uc.billingRepo.FindBySubscription(ctx, sub.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list billing transactions: %w", err)
	}
	return records, nil
}
