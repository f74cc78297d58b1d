// Package invoicing integrates the external invoicing service used by the
// billing reconciliation run.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/shared/config"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// HTTPInvoicer implements billing.Invoicer against the invoicing service.
// When no service URL is configured every call reports the service as
// unavailable and the caller falls back to a locally generated reference.
type HTTPInvoicer struct {
	serviceURL string
	httpClient *http.Client
	logger     logger.Interface
}

func NewHTTPInvoicer(cfg config.InvoicingConfig, logger logger.Interface) *HTTPInvoicer {
	return &HTTPInvoicer{
		serviceURL: cfg.ServiceURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

type createInvoiceRequest struct {
	SubscriptionSID string  `json:"subscription_sid"`
	CustomerID      uint    `json:"customer_id"`
	PlanCode        string  `json:"plan_code"`
	PeriodStart     string  `json:"period_start"`
	PeriodEnd       string  `json:"period_end"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

type createInvoiceResponse struct {
	InvoiceRef string `json:"invoice_ref"`
}

// CreateSubscriptionInvoice asks the invoicing service for an invoice
// covering the given billing period.
func (i *HTTPInvoicer) CreateSubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (string, error) {
	if i.serviceURL == "" {
		return "", billing.ErrInvoicerUnavailable
	}

	payload := createInvoiceRequest{
		SubscriptionSID: req.SubscriptionSID,
		CustomerID:      req.CustomerID,
		PlanCode:        req.PlanCode,
		PeriodStart:     req.PeriodStart.Format(time.RFC3339),
		PeriodEnd:       req.PeriodEnd.Format(time.RFC3339),
		Amount:          req.Amount,
		Currency:        req.Currency,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.serviceURL+"/invoices", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create invoice request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(httpReq)
	if err != nil {
		i.logger.Warnw("invoicing service unreachable", "error", err)
		return "", fmt.Errorf("%w: %v", billing.ErrInvoicerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read invoice response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: status=%d", billing.ErrInvoicerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("invoicing error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var result createInvoiceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal invoice response: %w", err)
	}
	if result.InvoiceRef == "" {
		return "", fmt.Errorf("invoicing error: empty invoice_ref")
	}

	return result.InvoiceRef, nil
}
