package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	billingusecases "github.com/lumenhost/lumen/internal/application/billing/usecases"
	"github.com/lumenhost/lumen/internal/application/subscription/usecases"
	apperrors "github.com/lumenhost/lumen/internal/shared/errors"
	"github.com/lumenhost/lumen/internal/shared/logger"
	"github.com/lumenhost/lumen/internal/shared/utils"
)

type SubscriptionHandler struct {
	createFromOrderUC   *usecases.CreateFromOrderUseCase
	getSubscriptionUC   *usecases.GetSubscriptionUseCase
	listSubscriptionsUC *usecases.ListSubscriptionsUseCase
	activateUC          *usecases.ActivateSubscriptionUseCase
	startTrialUC        *usecases.StartTrialUseCase
	cancelUC            *usecases.CancelSubscriptionUseCase
	markPaidUC          *usecases.MarkPaidUseCase
	markOverdueUC       *usecases.MarkOverdueUseCase
	listTransactionsUC  *billingusecases.ListTransactionsUseCase
	logger              logger.Interface
}

func NewSubscriptionHandler(
	createFromOrderUC *usecases.CreateFromOrderUseCase,
	getSubscriptionUC *usecases.GetSubscriptionUseCase,
	listSubscriptionsUC *usecases.ListSubscriptionsUseCase,
	activateUC *usecases.ActivateSubscriptionUseCase,
	startTrialUC *usecases.StartTrialUseCase,
	cancelUC *usecases.CancelSubscriptionUseCase,
	markPaidUC *usecases.MarkPaidUseCase,
	markOverdueUC *usecases.MarkOverdueUseCase,
	listTransactionsUC *billingusecases.ListTransactionsUseCase,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createFromOrderUC:   createFromOrderUC,
		getSubscriptionUC:   getSubscriptionUC,
		listSubscriptionsUC: listSubscriptionsUC,
		activateUC:          activateUC,
		startTrialUC:        startTrialUC,
		cancelUC:            cancelUC,
		markPaidUC:          markPaidUC,
		markOverdueUC:       markOverdueUC,
		listTransactionsUC:  listTransactionsUC,
		logger:              logger.NewLogger(),
	}
}

type CreateSubscriptionRequest struct {
	CustomerID   uint   `json:"customer_id" binding:"required"`
	PlanCode     string `json:"plan_code" binding:"required"`
	BillingCycle string `json:"billing_cycle" binding:"required,oneof=monthly yearly"`
	InstanceName string `json:"instance_name" binding:"required"`
	Subdomain    string `json:"subdomain" binding:"required,subdomain"`
	WithTrial    bool   `json:"with_trial"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type MarkPaidRequest struct {
	Reference string `json:"reference" binding:"required"`
}

type MarkOverdueRequest struct {
	Reason string `json:"reason"`
}

// Create turns a confirmed order into a subscription with its instance and
// the provisioning work.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.CreateFromOrderCommand{
		CustomerID:   req.CustomerID,
		PlanCode:     req.PlanCode,
		BillingCycle: req.BillingCycle,
		InstanceName: req.InstanceName,
		Subdomain:    req.Subdomain,
		WithTrial:    req.WithTrial,
	}

	result, err := h.createFromOrderUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.getSubscriptionUC.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", newSubscriptionResponse(sub))
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Query("customer_id"), 10, 32)
	if err != nil || customerID == 0 {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid customer_id", c.Query("customer_id")))
		return
	}

	subs, err := h.listSubscriptionsUC.Execute(c.Request.Context(), uint(customerID))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", newSubscriptionListResponse(subs))
}

func (h *SubscriptionHandler) Activate(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.activateUC.Execute(c.Request.Context(), usecases.ActivateSubscriptionCommand{SubscriptionID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription activated successfully", nil)
}

func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.startTrialUC.Execute(c.Request.Context(), usecases.StartTrialCommand{SubscriptionID: id}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trial started successfully", nil)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for cancel subscription", "sid", c.Param("sid"), "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.CancelSubscriptionCommand{SubscriptionID: id, Reason: req.Reason}
	if err := h.cancelUC.Execute(c.Request.Context(), cmd); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled successfully", nil)
}

// MarkPaid records a payment reported by the payment provider.
func (h *SubscriptionHandler) MarkPaid(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for mark paid", "sid", c.Param("sid"), "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.MarkPaidCommand{SubscriptionID: id, Reference: req.Reference}
	if err := h.markPaidUC.Execute(c.Request.Context(), cmd); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payment recorded successfully", nil)
}

// MarkOverdue flags a missed payment reported by the payment provider.
func (h *SubscriptionHandler) MarkOverdue(c *gin.Context) {
	id, err := h.resolveID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req MarkOverdueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for mark overdue", "sid", c.Param("sid"), "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.MarkOverdueCommand{SubscriptionID: id, Reason: req.Reason}
	if err := h.markOverdueUC.Execute(c.Request.Context(), cmd); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription marked overdue", nil)
}

func (h *SubscriptionHandler) ListTransactions(c *gin.Context) {
	records, err := h.listTransactionsUC.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", newTransactionListResponse(records))
}

func (h *SubscriptionHandler) resolveID(ctx context.Context, sid string) (uint, error) {
	sub, err := h.getSubscriptionUC.Execute(ctx, sid)
	if err != nil {
		return 0, err
	}
	return sub.ID(), nil
}
