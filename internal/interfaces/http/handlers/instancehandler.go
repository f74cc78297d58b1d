package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenhost/lumen/internal/application/instance/usecases"
	"github.com/lumenhost/lumen/internal/shared/logger"
	"github.com/lumenhost/lumen/internal/shared/utils"
)

type InstanceHandler struct {
	getInstanceUC         *usecases.GetInstanceUseCase
	requestProvisioningUC *usecases.RequestProvisioningUseCase
	suspendUC             *usecases.SuspendInstanceUseCase
	resumeUC              *usecases.ResumeInstanceUseCase
	terminateUC           *usecases.TerminateInstanceUseCase
	deleteUC              *usecases.DeleteInstanceUseCase
	listQueueEntriesUC    *usecases.ListQueueEntriesUseCase
	retryQueueEntryUC     *usecases.RetryQueueEntryUseCase
	logger                logger.Interface
}

func NewInstanceHandler(
	getInstanceUC *usecases.GetInstanceUseCase,
	requestProvisioningUC *usecases.RequestProvisioningUseCase,
	suspendUC *usecases.SuspendInstanceUseCase,
	resumeUC *usecases.ResumeInstanceUseCase,
	terminateUC *usecases.TerminateInstanceUseCase,
	deleteUC *usecases.DeleteInstanceUseCase,
	listQueueEntriesUC *usecases.ListQueueEntriesUseCase,
	retryQueueEntryUC *usecases.RetryQueueEntryUseCase,
) *InstanceHandler {
	return &InstanceHandler{
		getInstanceUC:         getInstanceUC,
		requestProvisioningUC: requestProvisioningUC,
		suspendUC:             suspendUC,
		resumeUC:              resumeUC,
		terminateUC:           terminateUC,
		deleteUC:              deleteUC,
		listQueueEntriesUC:    listQueueEntriesUC,
		retryQueueEntryUC:     retryQueueEntryUC,
		logger:                logger.NewLogger(),
	}
}

func (h *InstanceHandler) Get(c *gin.Context) {
	inst, err := h.getInstanceUC.Execute(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", newInstanceResponse(inst))
}

// RequestProvisioning enqueues provision work for a draft or errored
// instance.
func (h *InstanceHandler) RequestProvisioning(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.requestProvisioningUC.Execute(c.Request.Context(), usecases.RequestProvisioningCommand{InstanceID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Provisioning requested", nil)
}

func (h *InstanceHandler) Suspend(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.suspendUC.Execute(c.Request.Context(), usecases.SuspendInstanceCommand{InstanceID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Instance suspension requested", nil)
}

func (h *InstanceHandler) Resume(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.resumeUC.Execute(c.Request.Context(), usecases.ResumeInstanceCommand{InstanceID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Instance resume requested", nil)
}

// Terminate schedules workload destruction. Rejected while a subscription
// still holds the instance.
func (h *InstanceHandler) Terminate(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.terminateUC.Execute(c.Request.Context(), usecases.TerminateInstanceCommand{InstanceID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Instance termination requested", nil)
}

// Delete removes a draft instance record that never reached provisioning.
func (h *InstanceHandler) Delete(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), usecases.DeleteInstanceCommand{InstanceID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *InstanceHandler) ListQueueEntries(c *gin.Context) {
	entries, err := h.listQueueEntriesUC.Execute(c.Request.Context(), c.Param("iid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", newQueueEntryListResponse(entries))
}

// RetryQueueEntry is the manual recovery path for a permanently failed
// queue entry.
func (h *InstanceHandler) RetryQueueEntry(c *gin.Context) {
	if err := h.retryQueueEntryUC.Execute(c.Request.Context(), usecases.RetryQueueEntryCommand{QID: c.Param("qid")}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Queue entry requeued", nil)
}

func (h *InstanceHandler) resolveID(ctx context.Context, iid string) (uint, error) {
	inst, err := h.getInstanceUC.Execute(ctx, iid)
	if err != nil {
		return 0, err
	}
	return inst.ID(), nil
}
