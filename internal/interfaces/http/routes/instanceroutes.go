package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/interfaces/http/handlers"
)

// InstanceRouteConfig holds dependencies for instance routes.
type InstanceRouteConfig struct {
	InstanceHandler *handlers.InstanceHandler
}

// SetupInstanceRoutes configures instance and queue routes.
func SetupInstanceRoutes(engine *gin.Engine, cfg *InstanceRouteConfig) {
	instances := engine.Group("/instances")
	{
		instances.GET("/:iid", cfg.InstanceHandler.Get)
		instances.POST("/:iid/provision", cfg.InstanceHandler.RequestProvisioning)
		instances.POST("/:iid/suspend", cfg.InstanceHandler.Suspend)
		instances.POST("/:iid/resume", cfg.InstanceHandler.Resume)
		instances.POST("/:iid/terminate", cfg.InstanceHandler.Terminate)
		instances.DELETE("/:iid", cfg.InstanceHandler.Delete)
		instances.GET("/:iid/queue", cfg.InstanceHandler.ListQueueEntries)
	}

	queue := engine.Group("/queue")
	{
		queue.POST("/entries/:qid/retry", cfg.InstanceHandler.RetryQueueEntry)
	}
}
