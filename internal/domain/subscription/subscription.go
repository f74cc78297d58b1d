package subscription

import (
	"fmt"
	"time"

	vo "github.com/lumenhost/lumen/internal/domain/subscription/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/id"
)

// Subscription is the commercial aggregate root. It governs a customer's
// right to use a hosted instance and carries its own state distinct from the
// instance's operational state. Mutation happens only through the named
// transition methods below; the consistency guard validates every persisted
// write of status or instance link.
type Subscription struct {
	id                      uint
	sid                     string
	customerID              uint
	planCode                string
	status                  vo.SubscriptionStatus
	billingCycle            vo.BillingCycle
	paymentStatus           vo.PaymentStatus
	isTrial                 bool
	trialStartDate          *time.Time
	trialEndDate            *time.Time
	startDate               *time.Time
	nextBillingDate         *time.Time
	lastBillingDate         *time.Time
	cancellationDate        *time.Time
	cancellationCleanupDate *time.Time
	instanceID              *uint
	notes                   []string
	version                 int
	createdAt               time.Time
	updatedAt               time.Time
}

// NewSubscription creates a new draft subscription.
func NewSubscription(customerID uint, planCode string, cycle vo.BillingCycle) (*Subscription, error) {
	if customerID == 0 {
		return nil, fmt.Errorf("customer ID is required")
	}
	if planCode == "" {
		return nil, fmt.Errorf("plan code is required")
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("invalid billing cycle: %s", cycle)
	}

	sid, err := id.GenerateWithPrefix(id.PrefixSubscription, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription SID: %w", err)
	}

	now := time.Now().UTC()
	return &Subscription{
		sid:           sid,
		customerID:    customerID,
		planCode:      planCode,
		status:        vo.StatusDraft,
		billingCycle:  cycle,
		paymentStatus: vo.PaymentPending,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// SubscriptionReconstructParams carries persisted state back into the aggregate.
type SubscriptionReconstructParams struct {
	ID                      uint
	SID                     string
	CustomerID              uint
	PlanCode                string
	Status                  vo.SubscriptionStatus
	BillingCycle            vo.BillingCycle
	PaymentStatus           vo.PaymentStatus
	IsTrial                 bool
	TrialStartDate          *time.Time
	TrialEndDate            *time.Time
	StartDate               *time.Time
	NextBillingDate         *time.Time
	LastBillingDate         *time.Time
	CancellationDate        *time.Time
	CancellationCleanupDate *time.Time
	InstanceID              *uint
	Notes                   []string
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ReconstructSubscription rebuilds a subscription from persistence.
func ReconstructSubscription(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.CustomerID == 0 {
		return nil, fmt.Errorf("customer ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.BillingCycle.IsValid() {
		return nil, fmt.Errorf("invalid billing cycle: %s", p.BillingCycle)
	}

	return &Subscription{
		id:                      p.ID,
		sid:                     p.SID,
		customerID:              p.CustomerID,
		planCode:                p.PlanCode,
		status:                  p.Status,
		billingCycle:            p.BillingCycle,
		paymentStatus:           p.PaymentStatus,
		isTrial:                 p.IsTrial,
		trialStartDate:          p.TrialStartDate,
		trialEndDate:            p.TrialEndDate,
		startDate:               p.StartDate,
		nextBillingDate:         p.NextBillingDate,
		lastBillingDate:         p.LastBillingDate,
		cancellationDate:        p.CancellationDate,
		cancellationCleanupDate: p.CancellationCleanupDate,
		instanceID:              p.InstanceID,
		notes:                   p.Notes,
		version:                 p.Version,
		createdAt:               p.CreatedAt,
		updatedAt:               p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                           { return s.id }
func (s *Subscription) SID() string                        { return s.sid }
func (s *Subscription) CustomerID() uint                   { return s.customerID }
func (s *Subscription) PlanCode() string                   { return s.planCode }
func (s *Subscription) Status() vo.SubscriptionStatus      { return s.status }
func (s *Subscription) BillingCycle() vo.BillingCycle      { return s.billingCycle }
func (s *Subscription) PaymentStatus() vo.PaymentStatus    { return s.paymentStatus }
func (s *Subscription) IsTrial() bool                      { return s.isTrial }
func (s *Subscription) TrialStartDate() *time.Time         { return s.trialStartDate }
func (s *Subscription) TrialEndDate() *time.Time           { return s.trialEndDate }
func (s *Subscription) StartDate() *time.Time              { return s.startDate }
func (s *Subscription) NextBillingDate() *time.Time        { return s.nextBillingDate }
func (s *Subscription) LastBillingDate() *time.Time        { return s.lastBillingDate }
func (s *Subscription) CancellationDate() *time.Time       { return s.cancellationDate }
func (s *Subscription) CancellationCleanupDate() *time.Time { return s.cancellationCleanupDate }
func (s *Subscription) InstanceID() *uint                  { return s.instanceID }
func (s *Subscription) Notes() []string                    { return s.notes }
func (s *Subscription) Version() int                       { return s.version }
func (s *Subscription) CreatedAt() time.Time               { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time               { return s.updatedAt }

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(newID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = newID
	return nil
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}

// LinkInstance attaches an instance to the subscription. A subscription holds
// at most one instance; relinking to a different instance is rejected.
func (s *Subscription) LinkInstance(instanceID uint) error {
	if instanceID == 0 {
		return fmt.Errorf("instance ID cannot be zero")
	}
	if s.instanceID != nil && *s.instanceID != instanceID {
		return fmt.Errorf("subscription %s is already linked to instance %d", s.sid, *s.instanceID)
	}
	if s.instanceID != nil {
		return nil
	}
	s.instanceID = &instanceID
	s.touch()
	return nil
}

// StartTrial transitions the subscription from draft to trial.
func (s *Subscription) StartTrial(now time.Time, trialDays int) error {
	if s.status != vo.StatusDraft {
		return ErrInvalidTransition(s.status.String(), vo.StatusTrial.String())
	}
	if trialDays <= 0 {
		return fmt.Errorf("trial days must be positive")
	}

	start := now.UTC()
	end := start.AddDate(0, 0, trialDays)
	s.status = vo.StatusTrial
	s.isTrial = true
	s.trialStartDate = &start
	s.trialEndDate = &end
	s.touch()
	return nil
}

// Activate transitions the subscription to active and computes the next
// billing date from the billing cycle. Periods are exactly 30 or 365 days.
func (s *Subscription) Activate(now time.Time) error {
	if s.status != vo.StatusDraft && s.status != vo.StatusTrial {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	start := now.UTC()
	nextBilling := s.billingCycle.NextBillingDate(start)
	s.status = vo.StatusActive
	s.isTrial = false
	s.startDate = &start
	s.nextBillingDate = &nextBilling
	s.paymentStatus = vo.PaymentPending
	s.touch()
	return nil
}

// Cancel marks the subscription cancelled and schedules instance cleanup
// after the grace period. Nothing is destroyed during the grace window.
func (s *Subscription) Cancel(now time.Time, gracePeriodDays int) error {
	if s.status.IsTerminal() {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}
	if gracePeriodDays < 0 {
		return fmt.Errorf("grace period days cannot be negative")
	}

	cancelled := now.UTC()
	cleanup := cancelled.AddDate(0, 0, gracePeriodDays)
	s.status = vo.StatusCancelled
	s.cancellationDate = &cancelled
	s.cancellationCleanupDate = &cleanup
	s.touch()
	return nil
}

// MarkPaid records a successful payment and rolls the billing period forward.
// A past-due subscription returns to active.
func (s *Subscription) MarkPaid(now time.Time) error {
	if s.status.IsTerminal() {
		return fmt.Errorf("cannot record payment for %s subscription", s.status)
	}

	paid := now.UTC()
	nextBilling := s.billingCycle.NextBillingDate(paid)
	s.paymentStatus = vo.PaymentPaid
	s.lastBillingDate = &paid
	s.nextBillingDate = &nextBilling

	if s.status == vo.StatusPastDue {
		s.status = vo.StatusActive
	}
	s.touch()
	return nil
}

// MarkOverdue flags the payment as overdue and moves an active subscription
// to past due.
func (s *Subscription) MarkOverdue() error {
	if s.status != vo.StatusActive && s.status != vo.StatusPastDue {
		return ErrInvalidTransition(s.status.String(), vo.StatusPastDue.String())
	}

	s.paymentStatus = vo.PaymentOverdue
	s.status = vo.StatusPastDue
	s.touch()
	return nil
}

// MarkBillingPending is applied by the billing reconciliation job once an
// invoice for the current period exists.
func (s *Subscription) MarkBillingPending() error {
	if s.status != vo.StatusActive {
		return fmt.Errorf("cannot mark billing pending for %s subscription", s.status)
	}
	s.paymentStatus = vo.PaymentPending
	s.touch()
	return nil
}

// MarkExpired ends the subscription without cancellation.
func (s *Subscription) MarkExpired() error {
	if s.status == vo.StatusExpired {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusExpired) {
		return ErrInvalidTransition(s.status.String(), vo.StatusExpired.String())
	}
	s.status = vo.StatusExpired
	s.touch()
	return nil
}

// IsTrialExpired reports whether a trial subscription is past its trial end.
func (s *Subscription) IsTrialExpired(now time.Time) bool {
	return s.status == vo.StatusTrial && s.trialEndDate != nil && now.After(*s.trialEndDate)
}

// IsBillingDue reports whether the subscription should be picked up by the
// billing reconciliation job.
func (s *Subscription) IsBillingDue(today time.Time) bool {
	return s.status == vo.StatusActive &&
		s.nextBillingDate != nil &&
		!s.nextBillingDate.After(today) &&
		s.paymentStatus != vo.PaymentOverdue
}

// IsCleanupDue reports whether the cancelled subscription is past its grace
// period.
func (s *Subscription) IsCleanupDue(today time.Time) bool {
	return s.status == vo.StatusCancelled &&
		s.cancellationCleanupDate != nil &&
		!s.cancellationCleanupDate.After(today)
}

// CurrentBillingPeriod returns the period the next invoice covers.
func (s *Subscription) CurrentBillingPeriod(today time.Time) (time.Time, time.Time) {
	start := today.UTC()
	return start, s.billingCycle.NextBillingDate(start)
}

// AppendNote records an audit note on the subscription.
func (s *Subscription) AppendNote(note string) {
	if note == "" {
		return
	}
	s.notes = append(s.notes, note)
	s.touch()
}

// Validate performs domain-level validation, including the cleanup-date
// invariant: the cleanup date is set if and only if the subscription is
// cancelled.
func (s *Subscription) Validate() error {
	if s.customerID == 0 {
		return fmt.Errorf("customer ID is required")
	}
	if s.planCode == "" {
		return fmt.Errorf("plan code is required")
	}
	if !vo.ValidStatuses[s.status] {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if s.status == vo.StatusCancelled && s.cancellationCleanupDate == nil {
		return fmt.Errorf("cancelled subscription must have a cleanup date")
	}
	if s.status != vo.StatusCancelled && s.cancellationCleanupDate != nil {
		return fmt.Errorf("cleanup date is only valid on cancelled subscriptions")
	}
	return nil
}
