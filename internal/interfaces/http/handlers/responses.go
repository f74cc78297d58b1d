package handlers

import (
	"time"

	"github.com/lumenhost/lumen/internal/domain/billing"
	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/domain/subscription"
)

type SubscriptionResponse struct {
	SID                     string     `json:"sid"`
	CustomerID              uint       `json:"customer_id"`
	PlanCode                string     `json:"plan_code"`
	Status                  string     `json:"status"`
	BillingCycle            string     `json:"billing_cycle"`
	PaymentStatus           string     `json:"payment_status"`
	IsTrial                 bool       `json:"is_trial"`
	TrialStartDate          *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate            *time.Time `json:"trial_end_date,omitempty"`
	StartDate               *time.Time `json:"start_date,omitempty"`
	NextBillingDate         *time.Time `json:"next_billing_date,omitempty"`
	LastBillingDate         *time.Time `json:"last_billing_date,omitempty"`
	CancellationDate        *time.Time `json:"cancellation_date,omitempty"`
	CancellationCleanupDate *time.Time `json:"cancellation_cleanup_date,omitempty"`
	Notes                   []string   `json:"notes,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func newSubscriptionResponse(sub *subscription.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		SID:                     sub.SID(),
		CustomerID:              sub.CustomerID(),
		PlanCode:                sub.PlanCode(),
		Status:                  sub.Status().String(),
		BillingCycle:            sub.BillingCycle().String(),
		PaymentStatus:           sub.PaymentStatus().String(),
		IsTrial:                 sub.IsTrial(),
		TrialStartDate:          sub.TrialStartDate(),
		TrialEndDate:            sub.TrialEndDate(),
		StartDate:               sub.StartDate(),
		NextBillingDate:         sub.NextBillingDate(),
		LastBillingDate:         sub.LastBillingDate(),
		CancellationDate:        sub.CancellationDate(),
		CancellationCleanupDate: sub.CancellationCleanupDate(),
		Notes:                   sub.Notes(),
		CreatedAt:               sub.CreatedAt(),
		UpdatedAt:               sub.UpdatedAt(),
	}
}

func newSubscriptionListResponse(subs []*subscription.Subscription) []SubscriptionResponse {
	result := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		result = append(result, newSubscriptionResponse(sub))
	}
	return result
}

type InstanceResponse struct {
	IID           string     `json:"iid"`
	Name          string     `json:"name"`
	Subdomain     string     `json:"subdomain"`
	State         string     `json:"state"`
	StatusMessage string     `json:"status_message,omitempty"`
	CPUCores      float64    `json:"cpu_cores"`
	MemoryMB      int        `json:"memory_mb"`
	DiskGB        int        `json:"disk_gb"`
	IsTrial       bool       `json:"is_trial"`
	WorkloadRef   *string    `json:"workload_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newInstanceResponse(inst *instance.Instance) InstanceResponse {
	return InstanceResponse{
		IID:           inst.IID(),
		Name:          inst.Name(),
		Subdomain:     inst.Subdomain(),
		State:         inst.State().String(),
		StatusMessage: inst.StatusMessage(),
		CPUCores:      inst.Resources().CPUCores,
		MemoryMB:      inst.Resources().MemoryMB,
		DiskGB:        inst.Resources().DiskGB,
		IsTrial:       inst.IsTrial(),
		WorkloadRef:   inst.WorkloadRef(),
		CreatedAt:     inst.CreatedAt(),
		UpdatedAt:     inst.UpdatedAt(),
	}
}

type QueueEntryResponse struct {
	QID          string     `json:"qid"`
	Operation    string     `json:"operation"`
	Status       string     `json:"status"`
	AttemptCount int        `json:"attempt_count"`
	MaxAttempts  int        `json:"max_attempts"`
	LastError    string     `json:"last_error,omitempty"`
	WorkerID     string     `json:"worker_id,omitempty"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func newQueueEntryResponse(entry *provisioning.QueueEntry) QueueEntryResponse {
	return QueueEntryResponse{
		QID:          entry.QID(),
		Operation:    entry.Operation().String(),
		Status:       entry.Status().String(),
		AttemptCount: entry.AttemptCount(),
		MaxAttempts:  entry.MaxAttempts(),
		LastError:    entry.LastError(),
		WorkerID:     entry.WorkerID(),
		EnqueuedAt:   entry.EnqueuedAt(),
		NextRetryAt:  entry.NextRetryAt(),
		StartedAt:    entry.StartedAt(),
		CompletedAt:  entry.CompletedAt(),
	}
}

func newQueueEntryListResponse(entries []*provisioning.QueueEntry) []QueueEntryResponse {
	result := make([]QueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, newQueueEntryResponse(entry))
	}
	return result
}

type TransactionResponse struct {
	BID         string    `json:"bid"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	InvoiceRef  string    `json:"invoice_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionListResponse(records []*billing.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		result = append(result, TransactionResponse{
			BID:         record.BID(),
			PeriodStart: record.PeriodStart(),
			PeriodEnd:   record.PeriodEnd(),
			Amount:      record.Amount(),
			Currency:    record.Currency(),
			InvoiceRef:  record.InvoiceRef(),
			CreatedAt:   record.CreatedAt(),
		})
	}
	return result
}

type PlanResponse struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	MonthlyPrice float64 `json:"monthly_price"`
	YearlyPrice  float64 `json:"yearly_price"`
	Currency     string  `json:"currency"`
	CPUCores     float64 `json:"cpu_cores"`
	MemoryMB     int     `json:"memory_mb"`
	DiskGB       int     `json:"disk_gb"`
	TrialAllowed bool    `json:"trial_allowed"`
}

func newPlanListResponse(plans []plan.Plan) []PlanResponse {
	result := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		result = append(result, PlanResponse{
			Code:         p.Code,
			Name:         p.Name,
			MonthlyPrice: p.MonthlyPrice,
			YearlyPrice:  p.YearlyPrice,
			Currency:     p.Currency,
			CPUCores:     p.Resources.CPUCores,
			MemoryMB:     p.Resources.MemoryMB,
			DiskGB:       p.Resources.DiskGB,
			TrialAllowed: p.TrialAllowed,
		})
	}
	return result
}
