package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/shared/utils"
)

// PlanHandler serves the read-only plan catalog.
type PlanHandler struct {
	catalog plan.Catalog
}

func NewPlanHandler(catalog plan.Catalog) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

func (h *PlanHandler) List(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", newPlanListResponse(h.catalog.All()))
}
