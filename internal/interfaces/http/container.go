package http

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	billingusecases "github.com/lumenhost/lumen/internal/application/billing/usecases"
	instanceusecases "github.com/lumenhost/lumen/internal/application/instance/usecases"
	provisioningusecases "github.com/lumenhost/lumen/internal/application/provisioning/usecases"
	subscriptionusecases "github.com/lumenhost/lumen/internal/application/subscription/usecases"
	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/infrastructure/config"
	"github.com/lumenhost/lumen/internal/infrastructure/email"
	"github.com/lumenhost/lumen/internal/infrastructure/invoicing"
	"github.com/lumenhost/lumen/internal/infrastructure/pubsub"
	"github.com/lumenhost/lumen/internal/infrastructure/repository"
	"github.com/lumenhost/lumen/internal/interfaces/http/handlers"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// container wires repositories, use cases and handlers for the API process.
type container struct {
	subscriptionRepo subscription.Repository
	instanceRepo     instance.Repository
	queueRepo        provisioning.Repository
	billingRepo      billing.Repository

	guard     *subscription.ConsistencyGuard
	txManager *db.TransactionManager
	signal    *pubsub.RedisQueueSignal
	notifier  *email.SMTPNotifier
	invoicer  *invoicing.HTTPInvoicer

	billingJob      *billingusecases.ReconcileBillingUseCase
	cleanupJob      *subscriptionusecases.CleanupCancelledUseCase
	expireTrialsJob *subscriptionusecases.ExpireTrialsUseCase
	releaseStaleJob *provisioningusecases.ReleaseStaleEntriesUseCase

	subscriptionHandler *handlers.SubscriptionHandler
	instanceHandler     *handlers.InstanceHandler
	planHandler         *handlers.PlanHandler
	adminHandler        *handlers.AdminHandler
}

func newContainer(
	cfg *config.Config,
	database *gorm.DB,
	redisClient *redis.Client,
	catalog plan.Catalog,
	log logger.Interface,
) *container {
	c := &container{}

	c.subscriptionRepo = repository.NewSubscriptionRepository(database, log)
	c.instanceRepo = repository.NewInstanceRepository(database, log)
	c.queueRepo = repository.NewQueueEntryRepository(database, log)
	c.billingRepo = repository.NewBillingTransactionRepository(database, log)

	c.guard = subscription.NewConsistencyGuard(c.subscriptionRepo)
	c.txManager = db.NewTransactionManager(database)
	c.signal = pubsub.NewRedisQueueSignal(redisClient, log)
	c.notifier = email.NewSMTPNotifier(cfg.SMTP, log)
	c.invoicer = invoicing.NewHTTPInvoicer(cfg.Invoicing, log)

	maxAttempts := cfg.Provisioning.MaxAttempts
	gracePeriod := cfg.Subscription.GracePeriodDays
	trialDays := cfg.Subscription.TrialDays

	createFromOrderUC := subscriptionusecases.NewCreateFromOrderUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard, catalog,
		c.txManager, c.signal, trialDays, maxAttempts, log)
	getSubscriptionUC := subscriptionusecases.NewGetSubscriptionUseCase(c.subscriptionRepo, log)
	listSubscriptionsUC := subscriptionusecases.NewListSubscriptionsUseCase(c.subscriptionRepo, log)
	activateUC := subscriptionusecases.NewActivateSubscriptionUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard, catalog,
		c.txManager, c.signal, maxAttempts, log)
	startTrialUC := subscriptionusecases.NewStartTrialUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard, catalog,
		c.txManager, c.signal, trialDays, maxAttempts, log)
	cancelUC := subscriptionusecases.NewCancelSubscriptionUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard,
		c.txManager, c.signal, c.notifier, gracePeriod, maxAttempts, log)
	markPaidUC := subscriptionusecases.NewMarkPaidUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard,
		c.txManager, c.signal, maxAttempts, log)
	markOverdueUC := subscriptionusecases.NewMarkOverdueUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard,
		c.txManager, c.signal, maxAttempts, log)
	listTransactionsUC := billingusecases.NewListTransactionsUseCase(c.billingRepo, c.subscriptionRepo, log)

	getInstanceUC := instanceusecases.NewGetInstanceUseCase(c.instanceRepo, log)
	requestProvisioningUC := instanceusecases.NewRequestProvisioningUseCase(
		c.instanceRepo, c.queueRepo, c.txManager, c.signal, maxAttempts, log)
	suspendUC := instanceusecases.NewSuspendInstanceUseCase(
		c.instanceRepo, c.queueRepo, c.txManager, c.signal, maxAttempts, log)
	resumeUC := instanceusecases.NewResumeInstanceUseCase(
		c.instanceRepo, c.queueRepo, c.txManager, c.signal, maxAttempts, log)
	terminateUC := instanceusecases.NewTerminateInstanceUseCase(
		c.instanceRepo, c.queueRepo, c.guard, c.txManager, c.signal, maxAttempts, log)
	deleteUC := instanceusecases.NewDeleteInstanceUseCase(c.instanceRepo, c.guard, c.txManager, log)
	listQueueEntriesUC := instanceusecases.NewListQueueEntriesUseCase(c.instanceRepo, c.queueRepo, log)
	retryQueueEntryUC := instanceusecases.NewRetryQueueEntryUseCase(
		c.queueRepo, c.instanceRepo, c.txManager, c.signal, log)

	c.billingJob = billingusecases.NewReconcileBillingUseCase(
		c.subscriptionRepo, c.billingRepo, c.invoicer, catalog, c.txManager, log)
	c.cleanupJob = subscriptionusecases.NewCleanupCancelledUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.txManager, c.signal, maxAttempts, log)
	c.expireTrialsJob = subscriptionusecases.NewExpireTrialsUseCase(
		c.subscriptionRepo, c.instanceRepo, c.queueRepo, c.guard, c.txManager, c.signal, maxAttempts, log)
	c.releaseStaleJob = provisioningusecases.NewReleaseStaleEntriesUseCase(
		c.queueRepo, staleThreshold(cfg), log)

	c.subscriptionHandler = handlers.NewSubscriptionHandler(
		createFromOrderUC, getSubscriptionUC, listSubscriptionsUC,
		activateUC, startTrialUC, cancelUC, markPaidUC, markOverdueUC,
		listTransactionsUC)
	c.instanceHandler = handlers.NewInstanceHandler(
		getInstanceUC, requestProvisioningUC, suspendUC, resumeUC,
		terminateUC, deleteUC, listQueueEntriesUC, retryQueueEntryUC)
	c.planHandler = handlers.NewPlanHandler(catalog)
	c.adminHandler = handlers.NewAdminHandler(
		c.billingJob, c.cleanupJob, c.expireTrialsJob, c.releaseStaleJob)

	return c
}
