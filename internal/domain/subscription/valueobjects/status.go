package valueobjects

type SubscriptionStatus string

const (
	StatusDraft     SubscriptionStatus = "draft"
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// RequiresInstance reports whether a subscription in this status must have a
// linked instance.
func (s SubscriptionStatus) RequiresInstance() bool {
	return s == StatusActive || s == StatusTrial
}

// BlocksInstanceDeletion reports whether a subscription in this status blocks
// deletion of the instance it references.
func (s SubscriptionStatus) BlocksInstanceDeletion() bool {
	return s == StatusActive || s == StatusTrial || s == StatusPastDue
}

// IsTerminal reports whether no further transitions are possible.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusDraft:     {StatusTrial, StatusActive, StatusCancelled},
		StatusTrial:     {StatusActive, StatusCancelled, StatusExpired},
		StatusActive:    {StatusPastDue, StatusCancelled, StatusExpired},
		StatusPastDue:   {StatusActive, StatusCancelled, StatusExpired},
		StatusCancelled: {},
		StatusExpired:   {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusDraft:     true,
	StatusTrial:     true,
	StatusActive:    true,
	StatusPastDue:   true,
	StatusCancelled: true,
	StatusExpired:   true,
}
