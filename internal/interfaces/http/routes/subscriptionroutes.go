package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/interfaces/http/handlers"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
}

// SetupSubscriptionRoutes configures subscription routes.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	subscriptions := engine.Group("/subscriptions")
	{
		subscriptions.POST("", cfg.SubscriptionHandler.Create)
		subscriptions.GET("", cfg.SubscriptionHandler.List)
		subscriptions.GET("/:sid", cfg.SubscriptionHandler.Get)
		subscriptions.POST("/:sid/activate", cfg.SubscriptionHandler.Activate)
		subscriptions.POST("/:sid/trial", cfg.SubscriptionHandler.StartTrial)
		subscriptions.POST("/:sid/cancel", cfg.SubscriptionHandler.Cancel)
		subscriptions.POST("/:sid/payments", cfg.SubscriptionHandler.MarkPaid)
		subscriptions.POST("/:sid/overdue", cfg.SubscriptionHandler.MarkOverdue)
		subscriptions.GET("/:sid/transactions", cfg.SubscriptionHandler.ListTransactions)
	}
}
