package billing

import (
	"context"
	"errors"
	"time"
)

// ErrInvoicerUnavailable marks transient invoicing service failures. The
// reconciliation job falls back to a locally issued basic invoice so the
// billing run still completes.
var ErrInvoicerUnavailable = errors.New("invoicing service unavailable")

// InvoiceRequest describes one subscription period to invoice.
type InvoiceRequest struct {
	SubscriptionSID string
	CustomerID      uint
	PlanCode        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Amount          float64
	Currency        string
}

// Invoicer issues invoices for billed subscription periods.
type Invoicer interface {
	CreateSubscriptionInvoice(ctx context.Context, req InvoiceRequest) (invoiceRef string, err error)
}
