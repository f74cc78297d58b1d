package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/interfaces/http/handlers"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	AdminHandler *handlers.AdminHandler
}

// SetupAdminRoutes configures manual job trigger routes.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	jobs := engine.Group("/admin/jobs")
	{
		jobs.POST("/billing", cfg.AdminHandler.RunBilling)
		jobs.POST("/cleanup", cfg.AdminHandler.RunCleanup)
		jobs.POST("/trial-expiry", cfg.AdminHandler.RunTrialExpiry)
		jobs.POST("/stale-release", cfg.AdminHandler.RunStaleRelease)
	}
}
