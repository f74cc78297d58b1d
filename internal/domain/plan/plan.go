package plan

import (
	"errors"
	"fmt"

	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
)

var ErrPlanNotFound = errors.New("plan not found")

// Plan is one sellable tier from the catalog. Plans are configuration, not
// persisted state; the catalog is loaded at startup and read-only after.
type Plan struct {
	Code         string
	Name         string
	MonthlyPrice float64
	YearlyPrice  float64
	Currency     string
	Resources    instancevo.ResourceSpec
	TrialAllowed bool
}

func (p Plan) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("plan code is required")
	}
	if p.Name == "" {
		return fmt.Errorf("plan %s: name is required", p.Code)
	}
	if p.MonthlyPrice < 0 || p.YearlyPrice < 0 {
		return fmt.Errorf("plan %s: prices cannot be negative", p.Code)
	}
	if p.Currency == "" {
		return fmt.Errorf("plan %s: currency is required", p.Code)
	}
	if err := p.Resources.Validate(); err != nil {
		return fmt.Errorf("plan %s: %w", p.Code, err)
	}
	return nil
}

// Catalog resolves plan codes to plan definitions.
type Catalog interface {
	Get(code string) (Plan, error)
	All() []Plan
}
