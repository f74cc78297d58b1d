package billing

import (
	"fmt"
	"time"

	"github.com/lumenhost/lumen/internal/shared/id"
)

// Transaction is the durable record of one billing run against one
// subscription period. Its existence is what makes reconciliation
// idempotent: a period with a transaction is never billed again.
type Transaction struct {
	id             uint
	bid            string
	subscriptionID uint
	periodStart    time.Time
	periodEnd      time.Time
	amount         float64
	currency       string
	invoiceRef     string
	createdAt      time.Time
}

func NewTransaction(subscriptionID uint, periodStart, periodEnd time.Time, amount float64, currency string) (*Transaction, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("billing period end must be after start")
	}
	if amount < 0 {
		return nil, fmt.Errorf("billing amount cannot be negative")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}

	bid, err := id.GenerateWithPrefix(id.PrefixBillingTx, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate billing transaction BID: %w", err)
	}

	return &Transaction{
		bid:            bid,
		subscriptionID: subscriptionID,
		periodStart:    periodStart,
		periodEnd:      periodEnd,
		amount:         amount,
		currency:       currency,
		createdAt:      time.Now().UTC(),
	}, nil
}

// TransactionReconstructParams carries persisted state back into the record.
type TransactionReconstructParams struct {
	ID             uint
	BID            string
	SubscriptionID uint
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Amount         float64
	Currency       string
	InvoiceRef     string
	CreatedAt      time.Time
}

func ReconstructTransaction(p TransactionReconstructParams) (*Transaction, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("billing transaction ID cannot be zero")
	}
	return &Transaction{
		id:             p.ID,
		bid:            p.BID,
		subscriptionID: p.SubscriptionID,
		periodStart:    p.PeriodStart,
		periodEnd:      p.PeriodEnd,
		amount:         p.Amount,
		currency:       p.Currency,
		invoiceRef:     p.InvoiceRef,
		createdAt:      p.CreatedAt,
	}, nil
}

func (t *Transaction) ID() uint               { return t.id }
func (t *Transaction) BID() string            { return t.bid }
func (t *Transaction) SubscriptionID() uint   { return t.subscriptionID }
func (t *Transaction) PeriodStart() time.Time { return t.periodStart }
func (t *Transaction) PeriodEnd() time.Time   { return t.periodEnd }
func (t *Transaction) Amount() float64        { return t.amount }
func (t *Transaction) Currency() string       { return t.currency }
func (t *Transaction) InvoiceRef() string     { return t.invoiceRef }
func (t *Transaction) CreatedAt() time.Time   { return t.createdAt }

// SetID sets the transaction ID (only for persistence layer use)
func (t *Transaction) SetID(newID uint) error {
	if t.id != 0 {
		return fmt.Errorf("billing transaction ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("billing transaction ID cannot be zero")
	}
	t.id = newID
	return nil
}

// AttachInvoice records the external invoice reference once issued.
func (t *Transaction) AttachInvoice(ref string) error {
	if ref == "" {
		return fmt.Errorf("invoice reference is required")
	}
	if t.invoiceRef != "" {
		return fmt.Errorf("billing transaction already has invoice %s", t.invoiceRef)
	}
	t.invoiceRef = ref
	return nil
}
