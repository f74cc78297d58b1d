package provisioning

import (
	"context"
	"errors"
	"time"

	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
)

var (
	ErrEntryNotFound = errors.New("queue entry not found")
	// ErrDuplicateEntry is returned when an active entry already exists for
	// the same (instance, operation) pair.
	ErrDuplicateEntry = errors.New("an active queue entry already exists for this instance and operation")
)

type Repository interface {
	// Enqueue inserts the entry, enforcing at most one pending or
	// in-progress entry per (instance, operation) pair. Returns
	// ErrDuplicateEntry when the slot is occupied.
	Enqueue(ctx context.Context, entry *QueueEntry) error
	GetByID(ctx context.Context, id uint) (*QueueEntry, error)
	GetByQID(ctx context.Context, qid string) (*QueueEntry, error)
	Update(ctx context.Context, entry *QueueEntry) error

	// ClaimNext atomically claims the oldest pending entry that is due
	// (next retry time absent or passed), ordered FIFO by enqueue time with
	// ties broken by id. Returns nil when the queue is empty. The claimed
	// entry is already started for the given worker.
	ClaimNext(ctx context.Context, workerID string, now time.Time) (*QueueEntry, error)

	// FindActiveByInstance returns pending/in-progress entries for an
	// instance, optionally filtered to one operation.
	FindActiveByInstance(ctx context.Context, instanceID uint, op *vo.Operation) ([]*QueueEntry, error)
	// ReleaseStale returns entries stuck in progress longer than the given
	// age to pending, recovering from worker crashes.
	ReleaseStale(ctx context.Context, olderThan time.Time) (int, error)
}
