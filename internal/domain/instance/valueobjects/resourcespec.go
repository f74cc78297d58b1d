package valueobjects

import "fmt"

// ResourceSpec holds the compute limits copied from the plan at creation
// time. The instance keeps its own copy so later plan edits do not silently
// resize running workloads.
type ResourceSpec struct {
	CPUCores float64 `json:"cpu_cores"`
	MemoryMB int     `json:"memory_mb"`
	DiskGB   int     `json:"disk_gb"`
}

func NewResourceSpec(cpuCores float64, memoryMB, diskGB int) (ResourceSpec, error) {
	spec := ResourceSpec{CPUCores: cpuCores, MemoryMB: memoryMB, DiskGB: diskGB}
	if err := spec.Validate(); err != nil {
		return ResourceSpec{}, err
	}
	return spec, nil
}

func (r ResourceSpec) Validate() error {
	if r.CPUCores <= 0 {
		return fmt.Errorf("cpu cores must be positive")
	}
	if r.MemoryMB <= 0 {
		return fmt.Errorf("memory must be positive")
	}
	if r.DiskGB <= 0 {
		return fmt.Errorf("disk must be positive")
	}
	return nil
}

func (r ResourceSpec) IsZero() bool {
	return r.CPUCores == 0 && r.MemoryMB == 0 && r.DiskGB == 0
}
