package valueobjects

import (
	"fmt"
	"strings"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentFailed  PaymentStatus = "failed"
)

var ValidPaymentStatuses = map[PaymentStatus]bool{
	PaymentPending: true,
	PaymentPaid:    true,
	PaymentOverdue: true,
	PaymentFailed:  true,
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	status := PaymentStatus(normalized)

	if !ValidPaymentStatuses[status] {
		return "", fmt.Errorf("invalid payment status: %s", value)
	}

	return status, nil
}

func (p PaymentStatus) String() string {
	return string(p)
}
