package provisioning

import (
	"fmt"
	"time"

	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/id"
)

// QueueEntry is one unit of asynchronous infrastructure work. Entries are
// consumed at-least-once; the executed runtime operations are idempotent so
// a crash between execution and completion cannot duplicate effects.
type QueueEntry struct {
	id           uint
	qid          string
	instanceID   uint
	operation    vo.Operation
	status       vo.EntryStatus
	attemptCount int
	maxAttempts  int
	lastError    string
	workerID     string
	enqueuedAt   time.Time
	nextRetryAt  *time.Time
	startedAt    *time.Time
	completedAt  *time.Time
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewQueueEntry enqueues work for an instance. The repository enforces the
// at-most-one active entry per (instance, operation) invariant on insert.
func NewQueueEntry(instanceID uint, operation vo.Operation, maxAttempts int) (*QueueEntry, error) {
	if instanceID == 0 {
		return nil, fmt.Errorf("instance ID is required")
	}
	if !vo.ValidOperations[operation] {
		return nil, fmt.Errorf("invalid operation: %s", operation)
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}

	qid, err := id.GenerateWithPrefix(id.PrefixQueueEntry, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate queue entry QID: %w", err)
	}

	now := time.Now().UTC()
	return &QueueEntry{
		qid:         qid,
		instanceID:  instanceID,
		operation:   operation,
		status:      vo.EntryPending,
		maxAttempts: maxAttempts,
		enqueuedAt:  now,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// QueueEntryReconstructParams carries persisted state back into the entry.
type QueueEntryReconstructParams struct {
	ID           uint
	QID          string
	InstanceID   uint
	Operation    vo.Operation
	Status       vo.EntryStatus
	AttemptCount int
	MaxAttempts  int
	LastError    string
	WorkerID     string
	EnqueuedAt   time.Time
	NextRetryAt  *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReconstructQueueEntry rebuilds a queue entry from persistence.
func ReconstructQueueEntry(p QueueEntryReconstructParams) (*QueueEntry, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("queue entry ID cannot be zero")
	}
	if !vo.ValidOperations[p.Operation] {
		return nil, fmt.Errorf("invalid operation: %s", p.Operation)
	}
	if !vo.ValidEntryStatuses[p.Status] {
		return nil, fmt.Errorf("invalid entry status: %s", p.Status)
	}

	return &QueueEntry{
		id:           p.ID,
		qid:          p.QID,
		instanceID:   p.InstanceID,
		operation:    p.Operation,
		status:       p.Status,
		attemptCount: p.AttemptCount,
		maxAttempts:  p.MaxAttempts,
		lastError:    p.LastError,
		workerID:     p.WorkerID,
		enqueuedAt:   p.EnqueuedAt,
		nextRetryAt:  p.NextRetryAt,
		startedAt:    p.StartedAt,
		completedAt:  p.CompletedAt,
		version:      p.Version,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}, nil
}

func (e *QueueEntry) ID() uint                 { return e.id }
func (e *QueueEntry) QID() string              { return e.qid }
func (e *QueueEntry) InstanceID() uint         { return e.instanceID }
func (e *QueueEntry) Operation() vo.Operation  { return e.operation }
func (e *QueueEntry) Status() vo.EntryStatus   { return e.status }
func (e *QueueEntry) AttemptCount() int        { return e.attemptCount }
func (e *QueueEntry) MaxAttempts() int         { return e.maxAttempts }
func (e *QueueEntry) LastError() string        { return e.lastError }
func (e *QueueEntry) WorkerID() string         { return e.workerID }
func (e *QueueEntry) EnqueuedAt() time.Time    { return e.enqueuedAt }
func (e *QueueEntry) NextRetryAt() *time.Time  { return e.nextRetryAt }
func (e *QueueEntry) StartedAt() *time.Time    { return e.startedAt }
func (e *QueueEntry) CompletedAt() *time.Time  { return e.completedAt }
func (e *QueueEntry) Version() int             { return e.version }
func (e *QueueEntry) CreatedAt() time.Time     { return e.createdAt }
func (e *QueueEntry) UpdatedAt() time.Time     { return e.updatedAt }

// SetID sets the entry ID (only for persistence layer use)
func (e *QueueEntry) SetID(newID uint) error {
	if e.id != 0 {
		return fmt.Errorf("queue entry ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("queue entry ID cannot be zero")
	}
	e.id = newID
	return nil
}

func (e *QueueEntry) touch() {
	e.updatedAt = time.Now().UTC()
	e.version++
}

// Start marks the entry in progress for the given worker and counts the
// attempt. The repository performs the atomic claim; Start reflects it on
// the aggregate.
func (e *QueueEntry) Start(workerID string) error {
	if e.status != vo.EntryPending {
		return fmt.Errorf("cannot start entry in status %s", e.status)
	}
	now := time.Now().UTC()
	e.status = vo.EntryInProgress
	e.workerID = workerID
	e.attemptCount++
	e.startedAt = &now
	e.lastError = ""
	e.touch()
	return nil
}

// Complete marks the entry done.
func (e *QueueEntry) Complete() error {
	if e.status != vo.EntryInProgress {
		return fmt.Errorf("cannot complete entry in status %s", e.status)
	}
	now := time.Now().UTC()
	e.status = vo.EntryDone
	e.completedAt = &now
	e.workerID = ""
	e.touch()
	return nil
}

// RetryLater requeues the entry after a transient failure with exponential
// backoff: 2^attempts minutes.
func (e *QueueEntry) RetryLater(cause error) error {
	if e.status != vo.EntryInProgress {
		return fmt.Errorf("cannot retry entry in status %s", e.status)
	}
	if e.attemptCount >= e.maxAttempts {
		return fmt.Errorf("entry has exhausted its %d attempts", e.maxAttempts)
	}

	delay := time.Duration(1<<uint(e.attemptCount)) * time.Minute
	next := time.Now().UTC().Add(delay)
	e.status = vo.EntryPending
	e.lastError = cause.Error()
	e.nextRetryAt = &next
	e.workerID = ""
	e.touch()
	return nil
}

// Fail marks the entry permanently failed after exhausting retries.
func (e *QueueEntry) Fail(cause error) error {
	if e.status != vo.EntryInProgress {
		return fmt.Errorf("cannot fail entry in status %s", e.status)
	}
	now := time.Now().UTC()
	e.status = vo.EntryFailed
	e.lastError = cause.Error()
	e.completedAt = &now
	e.workerID = ""
	e.touch()
	return nil
}

// HasAttemptsLeft reports whether a transient failure should requeue rather
// than fail the entry.
func (e *QueueEntry) HasAttemptsLeft() bool {
	return e.attemptCount < e.maxAttempts
}

// ResetForRetry returns a failed entry to pending with counters cleared.
// This is the manual retry path.
func (e *QueueEntry) ResetForRetry() error {
	if e.status != vo.EntryFailed {
		return fmt.Errorf("only failed entries can be reset, entry is %s", e.status)
	}
	e.status = vo.EntryPending
	e.attemptCount = 0
	e.lastError = ""
	e.nextRetryAt = nil
	e.startedAt = nil
	e.completedAt = nil
	e.workerID = ""
	e.touch()
	return nil
}
