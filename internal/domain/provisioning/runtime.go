package provisioning

import (
	"context"
	"errors"

	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
)

// ErrRuntimeUnavailable marks transient runtime failures that should be
// retried with backoff rather than failing the entry.
var ErrRuntimeUnavailable = errors.New("runtime temporarily unavailable")

// WorkloadSpec is what the runtime needs to create a workload.
type WorkloadSpec struct {
	Name      string
	Subdomain string
	Resources instancevo.ResourceSpec
}

// Runtime is the external provisioner that owns the physical workloads.
// All operations must be safe to call more than once for the same workload;
// the worker relies on that for its at-least-once delivery.
type Runtime interface {
	Create(ctx context.Context, spec WorkloadSpec) (ref string, err error)
	Start(ctx context.Context, ref string) error
	Stop(ctx context.Context, ref string) error
	Destroy(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
}
