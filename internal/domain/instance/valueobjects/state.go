package valueobjects

type InstanceState string

const (
	StateDraft        InstanceState = "draft"
	StatePending      InstanceState = "pending"
	StateProvisioning InstanceState = "provisioning"
	StateRunning      InstanceState = "running"
	StateSuspended    InstanceState = "suspended"
	StateTerminated   InstanceState = "terminated"
	StateError        InstanceState = "error"
)

func (s InstanceState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s InstanceState) IsTerminal() bool {
	return s == StateTerminated
}

// HasWorkload reports whether a backing workload may exist for an instance
// in this state.
func (s InstanceState) HasWorkload() bool {
	return s == StateProvisioning || s == StateRunning || s == StateSuspended
}

func (s InstanceState) CanTransitionTo(target InstanceState) bool {
	transitions := map[InstanceState][]InstanceState{
		StateDraft:        {StatePending},
		StatePending:      {StateProvisioning, StateTerminated, StateError},
		StateProvisioning: {StateRunning, StateTerminated, StateError},
		StateRunning:      {StateSuspended, StateTerminated, StateError},
		StateSuspended:    {StateRunning, StateTerminated, StateError},
		StateError:        {StatePending, StateTerminated},
		StateTerminated:   {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedState := range allowed {
		if allowedState == target {
			return true
		}
	}
	return false
}

var ValidStates = map[InstanceState]bool{
	StateDraft:        true,
	StatePending:      true,
	StateProvisioning: true,
	StateRunning:      true,
	StateSuspended:    true,
	StateTerminated:   true,
	StateError:        true,
}
