// Package http assembles the API process: repositories, use cases, handlers
// and the gin engine.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/infrastructure/config"
	"github.com/lumenhost/lumen/internal/infrastructure/scheduler"
	"github.com/lumenhost/lumen/internal/interfaces/http/handlers"
	"github.com/lumenhost/lumen/internal/interfaces/http/middleware"
	"github.com/lumenhost/lumen/internal/interfaces/http/routes"
	"github.com/lumenhost/lumen/internal/shared/logger"
	"github.com/lumenhost/lumen/internal/shared/utils"
)

// Router holds the HTTP engine and the wired application.
type Router struct {
	engine    *gin.Engine
	container *container
	logger    logger.Interface
}

// NewRouter wires the application and creates the gin engine.
func NewRouter(
	cfg *config.Config,
	database *gorm.DB,
	redisClient *redis.Client,
	catalog plan.Catalog,
	log logger.Interface,
) *Router {
	return &Router{
		engine:    gin.New(),
		container: newContainer(cfg, database, redisClient, catalog, log),
		logger:    log,
	}
}

// SetupRoutes configures all HTTP routes.
func (r *Router) SetupRoutes() {
	handlers.RegisterValidations()

	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())

	r.engine.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": "ok"})
	})

	routes.SetupSubscriptionRoutes(r.engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: r.container.subscriptionHandler,
	})
	routes.SetupInstanceRoutes(r.engine, &routes.InstanceRouteConfig{
		InstanceHandler: r.container.instanceHandler,
	})
	routes.SetupPlanRoutes(r.engine, &routes.PlanRouteConfig{
		PlanHandler: r.container.planHandler,
	})
	routes.SetupAdminRoutes(r.engine, &routes.AdminRouteConfig{
		AdminHandler: r.container.adminHandler,
	})
}

// RegisterJobs attaches the reconciliation runs to the scheduler.
func (r *Router) RegisterJobs(manager *scheduler.SchedulerManager, cfg *config.Config) error {
	billingInterval := time.Duration(cfg.Scheduler.BillingIntervalHours) * time.Hour
	cleanupInterval := time.Duration(cfg.Scheduler.CleanupIntervalHours) * time.Hour

	if err := manager.RegisterBillingJob(r.container.billingJob, billingInterval); err != nil {
		return err
	}
	if err := manager.RegisterLifecycleJobs(r.container.cleanupJob, r.container.expireTrialsJob, cleanupInterval); err != nil {
		return err
	}
	return manager.RegisterQueueMaintenanceJob(r.container.releaseStaleJob, staleThreshold(cfg))
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// staleThreshold is how long an in-progress queue entry may go untouched
// before it counts as abandoned by a dead worker. Twice the attempt timeout
// keeps slow but live attempts out of the release run.
func staleThreshold(cfg *config.Config) time.Duration {
	return 2 * time.Duration(cfg.Provisioning.AttemptTimeoutSeconds) * time.Second
}
