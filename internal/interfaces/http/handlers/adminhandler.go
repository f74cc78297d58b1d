package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/shared/logger"
	"github.com/lumenhost/lumen/internal/shared/utils"
)

// BatchJob is a reconciliation run that can be triggered out of schedule.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// AdminHandler exposes the scheduled reconciliation runs for manual
// triggering. The scheduler covers normal operation; these endpoints exist
// for operational intervention and testing.
type AdminHandler struct {
	billingJob      BatchJob
	cleanupJob      BatchJob
	expireTrialsJob BatchJob
	releaseStaleJob BatchJob
	logger          logger.Interface
}

func NewAdminHandler(
	billingJob BatchJob,
	cleanupJob BatchJob,
	expireTrialsJob BatchJob,
	releaseStaleJob BatchJob,
) *AdminHandler {
	return &AdminHandler{
		billingJob:      billingJob,
		cleanupJob:      cleanupJob,
		expireTrialsJob: expireTrialsJob,
		releaseStaleJob: releaseStaleJob,
		logger:          logger.NewLogger(),
	}
}

type jobRunResult struct {
	Processed int `json:"processed"`
}

func (h *AdminHandler) RunBilling(c *gin.Context) {
	h.runJob(c, "billing reconciliation", h.billingJob)
}

func (h *AdminHandler) RunCleanup(c *gin.Context) {
	h.runJob(c, "cancellation cleanup", h.cleanupJob)
}

func (h *AdminHandler) RunTrialExpiry(c *gin.Context) {
	h.runJob(c, "trial expiry", h.expireTrialsJob)
}

func (h *AdminHandler) RunStaleRelease(c *gin.Context) {
	h.runJob(c, "stale entry release", h.releaseStaleJob)
}

func (h *AdminHandler) runJob(c *gin.Context, name string, job BatchJob) {
	count, err := job.Execute(c.Request.Context())
	if err != nil {
		h.logger.Errorw("manual job run failed", "job", name, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("manual job run completed", "job", name, "processed", count)
	utils.SuccessResponse(c, http.StatusOK, "", jobRunResult{Processed: count})
}
