package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

var ValidBillingCycles = map[BillingCycle]bool{
	BillingCycleMonthly: true,
	BillingCycleYearly:  true,
}

// BillingCycleDays maps cycles to their fixed period length. Periods are
// exactly 30 or 365 days; calendar-month billing is deliberately not used.
var BillingCycleDays = map[BillingCycle]int{
	BillingCycleMonthly: 30,
	BillingCycleYearly:  365,
}

func ParseBillingCycle(value string) (BillingCycle, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	cycle := BillingCycle(normalized)

	if normalized == "" {
		return "", fmt.Errorf("billing cycle cannot be empty")
	}

	if !ValidBillingCycles[cycle] {
		return "", fmt.Errorf("invalid billing cycle: %s", value)
	}

	return cycle, nil
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) IsValid() bool {
	return ValidBillingCycles[b]
}

func (b BillingCycle) Days() int {
	return BillingCycleDays[b]
}

// NextBillingDate returns the end of the billing period starting at from.
func (b BillingCycle) NextBillingDate(from time.Time) time.Time {
	return from.AddDate(0, 0, b.Days())
}
