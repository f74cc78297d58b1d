package instance

import (
	"fmt"
	"regexp"
	"time"

	vo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/id"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Instance is one provisioned hosted application environment for a tenant.
// The record transitions immediately to reflect intent; the backing workload
// follows asynchronously through the provisioning queue. Ownership is
// one-directional: the instance does not know its subscription.
type Instance struct {
	id            uint
	iid           string
	name          string
	subdomain     string
	state         vo.InstanceState
	statusMessage string
	resources     vo.ResourceSpec
	isTrial       bool
	workloadRef   *string
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewInstance creates a draft instance. The subdomain is immutable after
// assignment.
func NewInstance(name, subdomain string, resources vo.ResourceSpec, isTrial bool) (*Instance, error) {
	if name == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return nil, fmt.Errorf("invalid subdomain: %q", subdomain)
	}
	if err := resources.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource spec: %w", err)
	}

	iid, err := id.GenerateWithPrefix(id.PrefixInstance, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance IID: %w", err)
	}

	now := time.Now().UTC()
	return &Instance{
		iid:       iid,
		name:      name,
		subdomain: subdomain,
		state:     vo.StateDraft,
		resources: resources,
		isTrial:   isTrial,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// InstanceReconstructParams carries persisted state back into the aggregate.
type InstanceReconstructParams struct {
	ID            uint
	IID           string
	Name          string
	Subdomain     string
	State         vo.InstanceState
	StatusMessage string
	Resources     vo.ResourceSpec
	IsTrial       bool
	WorkloadRef   *string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReconstructInstance rebuilds an instance from persistence.
func ReconstructInstance(p InstanceReconstructParams) (*Instance, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("instance ID cannot be zero")
	}
	if !vo.ValidStates[p.State] {
		return nil, fmt.Errorf("invalid instance state: %s", p.State)
	}

	return &Instance{
		id:            p.ID,
		iid:           p.IID,
		name:          p.Name,
		subdomain:     p.Subdomain,
		state:         p.State,
		statusMessage: p.StatusMessage,
		resources:     p.Resources,
		isTrial:       p.IsTrial,
		workloadRef:   p.WorkloadRef,
		version:       p.Version,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}, nil
}

func (i *Instance) ID() uint                    { return i.id }
func (i *Instance) IID() string                 { return i.iid }
func (i *Instance) Name() string                { return i.name }
func (i *Instance) Subdomain() string           { return i.subdomain }
func (i *Instance) State() vo.InstanceState     { return i.state }
func (i *Instance) StatusMessage() string       { return i.statusMessage }
func (i *Instance) Resources() vo.ResourceSpec  { return i.resources }
func (i *Instance) IsTrial() bool               { return i.isTrial }
func (i *Instance) WorkloadRef() *string        { return i.workloadRef }
func (i *Instance) Version() int                { return i.version }
func (i *Instance) CreatedAt() time.Time        { return i.createdAt }
func (i *Instance) UpdatedAt() time.Time        { return i.updatedAt }

// SetID sets the instance ID (only for persistence layer use)
func (i *Instance) SetID(newID uint) error {
	if i.id != 0 {
		return fmt.Errorf("instance ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("instance ID cannot be zero")
	}
	i.id = newID
	return nil
}

func (i *Instance) touch() {
	i.updatedAt = time.Now().UTC()
	i.version++
}

// MarkPending requests provisioning. Valid from draft, and from error as the
// manual retry path.
func (i *Instance) MarkPending() error {
	if i.state != vo.StateDraft && i.state != vo.StateError {
		return ErrInvalidTransition(i.state.String(), vo.StatePending.String())
	}
	i.state = vo.StatePending
	i.statusMessage = ""
	i.touch()
	return nil
}

// MarkProvisioning is applied by the worker when it picks the instance up.
func (i *Instance) MarkProvisioning() error {
	if i.state != vo.StatePending {
		return ErrInvalidTransition(i.state.String(), vo.StateProvisioning.String())
	}
	i.state = vo.StateProvisioning
	i.touch()
	return nil
}

// MarkRunning is applied on successful provisioning or resume completion.
func (i *Instance) MarkRunning() error {
	if i.state != vo.StatePending && i.state != vo.StateProvisioning && i.state != vo.StateSuspended {
		return ErrInvalidTransition(i.state.String(), vo.StateRunning.String())
	}
	i.state = vo.StateRunning
	i.statusMessage = ""
	i.touch()
	return nil
}

// Suspend withdraws service access while retaining data. The record
// transitions immediately; stopping the workload is asynchronous.
func (i *Instance) Suspend() error {
	if i.state != vo.StateRunning {
		return ErrInvalidTransition(i.state.String(), vo.StateSuspended.String())
	}
	i.state = vo.StateSuspended
	i.touch()
	return nil
}

// Resume mirrors Suspend.
func (i *Instance) Resume() error {
	if i.state != vo.StateSuspended {
		return ErrInvalidTransition(i.state.String(), vo.StateRunning.String())
	}
	i.state = vo.StateRunning
	i.touch()
	return nil
}

// MarkTerminated finalizes termination. Terminal; the record is retained for
// audit and never hard-deleted once it has left draft.
func (i *Instance) MarkTerminated() error {
	if i.state.IsTerminal() {
		return nil
	}
	if i.state == vo.StateDraft {
		return ErrInvalidTransition(i.state.String(), vo.StateTerminated.String())
	}
	i.state = vo.StateTerminated
	i.workloadRef = nil
	i.touch()
	return nil
}

// MarkError records an unrecoverable failure with a human-readable message.
// Recovery is the manual MarkPending retry path.
func (i *Instance) MarkError(message string) error {
	if i.state.IsTerminal() || i.state == vo.StateDraft {
		return ErrInvalidTransition(i.state.String(), vo.StateError.String())
	}
	i.state = vo.StateError
	i.statusMessage = message
	i.touch()
	return nil
}

// SetWorkloadRef records the runtime's reference for the backing workload.
func (i *Instance) SetWorkloadRef(ref string) {
	if ref == "" {
		return
	}
	i.workloadRef = &ref
	i.touch()
}

// IsDeletable reports whether the record itself may be removed. Only draft
// instances may be hard-deleted; everything else is retained for audit.
func (i *Instance) IsDeletable() bool {
	return i.state == vo.StateDraft
}
