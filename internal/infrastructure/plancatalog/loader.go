// Package plancatalog loads the sellable plan tiers from a YAML file.
package plancatalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/plan"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Code         string  `yaml:"code"`
	Name         string  `yaml:"name"`
	MonthlyPrice float64 `yaml:"monthly_price"`
	YearlyPrice  float64 `yaml:"yearly_price"`
	Currency     string  `yaml:"currency"`
	CPUCores     float64 `yaml:"cpu_cores"`
	MemoryMB     int     `yaml:"memory_mb"`
	DiskGB       int     `yaml:"disk_gb"`
	TrialAllowed bool    `yaml:"trial_allowed"`
}

// FileCatalog is an in-memory plan.Catalog loaded once at startup.
type FileCatalog struct {
	plans map[string]plan.Plan
	order []string
}

// Load reads and validates the plan catalog from the given path.
func Load(path string, log logger.Interface) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}

	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog %s contains no plans", path)
	}

	catalog := &FileCatalog{plans: make(map[string]plan.Plan, len(file.Plans))}
	for _, entry := range file.Plans {
		p := plan.Plan{
			Code:         entry.Code,
			Name:         entry.Name,
			MonthlyPrice: entry.MonthlyPrice,
			YearlyPrice:  entry.YearlyPrice,
			Currency:     entry.Currency,
			Resources: instancevo.ResourceSpec{
				CPUCores: entry.CPUCores,
				MemoryMB: entry.MemoryMB,
				DiskGB:   entry.DiskGB,
			},
			TrialAllowed: entry.TrialAllowed,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid plan catalog: %w", err)
		}
		if _, exists := catalog.plans[p.Code]; exists {
			return nil, fmt.Errorf("invalid plan catalog: duplicate plan code %s", p.Code)
		}
		catalog.plans[p.Code] = p
		catalog.order = append(catalog.order, p.Code)
	}

	log.Infow("plan catalog loaded", "path", path, "plans", len(catalog.plans))
	return catalog, nil
}

// Get returns the plan for the given code.
func (c *FileCatalog) Get(code string) (plan.Plan, error) {
	p, ok := c.plans[code]
	if !ok {
		return plan.Plan{}, fmt.Errorf("%w: %s", plan.ErrPlanNotFound, code)
	}
	return p, nil
}

// All returns the plans in file order.
func (c *FileCatalog) All() []plan.Plan {
	result := make([]plan.Plan, 0, len(c.order))
	for _, code := range c.order {
		result = append(result, c.plans[code])
	}
	return result
}
