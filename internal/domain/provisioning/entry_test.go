package provisioning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
)

// --- helpers ---

func newPendingEntry(t *testing.T) *QueueEntry {
	t.Helper()
	entry, err := NewQueueEntry(1, vo.OperationProvision, 5)
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

func newStartedEntry(t *testing.T) *QueueEntry {
	t.Helper()
	entry := newPendingEntry(t)
	require.NoError(t, entry.Start("worker-1"))
	return entry
}

func newFailedEntry(t *testing.T) *QueueEntry {
	t.Helper()
	entry, err := NewQueueEntry(1, vo.OperationProvision, 1)
	require.NoError(t, err)
	require.NoError(t, entry.Start("worker-1"))
	require.NoError(t, entry.Fail(errors.New("runtime unreachable")))
	return entry
}

// =====================================================================
// TestNewQueueEntry_*
// =====================================================================

func TestNewQueueEntry_ValidInput(t *testing.T) {
	entry, err := NewQueueEntry(7, vo.OperationSuspend, 3)

	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.NotEmpty(t, entry.QID(), "QID should be generated")
	assert.Equal(t, uint(7), entry.InstanceID())
	assert.Equal(t, vo.OperationSuspend, entry.Operation())
	assert.Equal(t, vo.EntryPending, entry.Status())
	assert.Equal(t, 0, entry.AttemptCount())
	assert.Equal(t, 3, entry.MaxAttempts())
	assert.Nil(t, entry.NextRetryAt())
	assert.Nil(t, entry.StartedAt())
	assert.Nil(t, entry.CompletedAt())
	assert.False(t, entry.EnqueuedAt().IsZero())
}

func TestNewQueueEntry_ZeroInstanceID(t *testing.T) {
	entry, err := NewQueueEntry(0, vo.OperationProvision, 5)

	assert.Error(t, err)
	assert.Nil(t, entry)
}

func TestNewQueueEntry_InvalidOperation(t *testing.T) {
	entry, err := NewQueueEntry(1, vo.Operation("reboot"), 5)

	assert.Error(t, err)
	assert.Nil(t, entry)
	assert.Contains(t, err.Error(), "invalid operation")
}

func TestNewQueueEntry_NonPositiveMaxAttempts(t *testing.T) {
	_, err := NewQueueEntry(1, vo.OperationProvision, 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts must be positive")
}

// =====================================================================
// TestQueueEntry_Start_*
// =====================================================================

func TestQueueEntry_Start(t *testing.T) {
	entry := newPendingEntry(t)

	require.NoError(t, entry.Start("worker-3"))

	assert.Equal(t, vo.EntryInProgress, entry.Status())
	assert.Equal(t, "worker-3", entry.WorkerID())
	assert.Equal(t, 1, entry.AttemptCount())
	require.NotNil(t, entry.StartedAt())
}

func TestQueueEntry_Start_AlreadyInProgress(t *testing.T) {
	entry := newStartedEntry(t)

	err := entry.Start("worker-4")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot start entry")
}

// =====================================================================
// TestQueueEntry_Complete_*
// =====================================================================

func TestQueueEntry_Complete(t *testing.T) {
	entry := newStartedEntry(t)

	require.NoError(t, entry.Complete())

	assert.Equal(t, vo.EntryDone, entry.Status())
	assert.Empty(t, entry.WorkerID())
	require.NotNil(t, entry.CompletedAt())
}

func TestQueueEntry_Complete_NotInProgress(t *testing.T) {
	entry := newPendingEntry(t)

	assert.Error(t, entry.Complete())
}

// =====================================================================
// TestQueueEntry_RetryLater_*
// =====================================================================

func TestQueueEntry_RetryLater_ExponentialBackoff(t *testing.T) {
	entry := newPendingEntry(t)

	// Attempt 1 fails: backoff is 2^1 = 2 minutes.
	require.NoError(t, entry.Start("worker-1"))
	before := time.Now().UTC()
	require.NoError(t, entry.RetryLater(errors.New("connection refused")))

	assert.Equal(t, vo.EntryPending, entry.Status())
	assert.Equal(t, "connection refused", entry.LastError())
	assert.Empty(t, entry.WorkerID())
	require.NotNil(t, entry.NextRetryAt())
	delay := entry.NextRetryAt().Sub(before)
	assert.InDelta(t, (2 * time.Minute).Seconds(), delay.Seconds(), 5)

	// Attempt 2 fails: backoff is 2^2 = 4 minutes.
	require.NoError(t, entry.Start("worker-1"))
	before = time.Now().UTC()
	require.NoError(t, entry.RetryLater(errors.New("connection refused")))

	delay = entry.NextRetryAt().Sub(before)
	assert.InDelta(t, (4 * time.Minute).Seconds(), delay.Seconds(), 5)
	assert.Equal(t, 2, entry.AttemptCount())
}

func TestQueueEntry_RetryLater_ExhaustedAttempts(t *testing.T) {
	entry, err := NewQueueEntry(1, vo.OperationProvision, 1)
	require.NoError(t, err)
	require.NoError(t, entry.Start("worker-1"))

	err = entry.RetryLater(errors.New("timeout"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestQueueEntry_RetryLater_NotInProgress(t *testing.T) {
	entry := newPendingEntry(t)

	assert.Error(t, entry.RetryLater(errors.New("timeout")))
}

// =====================================================================
// TestQueueEntry_Fail_*
// =====================================================================

func TestQueueEntry_Fail(t *testing.T) {
	entry := newStartedEntry(t)

	require.NoError(t, entry.Fail(errors.New("workload rejected")))

	assert.Equal(t, vo.EntryFailed, entry.Status())
	assert.Equal(t, "workload rejected", entry.LastError())
	assert.Empty(t, entry.WorkerID())
	require.NotNil(t, entry.CompletedAt())
}

func TestQueueEntry_HasAttemptsLeft(t *testing.T) {
	entry, err := NewQueueEntry(1, vo.OperationProvision, 2)
	require.NoError(t, err)

	require.NoError(t, entry.Start("worker-1"))
	assert.True(t, entry.HasAttemptsLeft(), "one attempt used of two")
	require.NoError(t, entry.RetryLater(errors.New("timeout")))

	require.NoError(t, entry.Start("worker-1"))
	assert.False(t, entry.HasAttemptsLeft(), "both attempts used")
}

// =====================================================================
// TestQueueEntry_ResetForRetry_*
// =====================================================================

func TestQueueEntry_ResetForRetry(t *testing.T) {
	entry := newFailedEntry(t)

	require.NoError(t, entry.ResetForRetry())

	assert.Equal(t, vo.EntryPending, entry.Status())
	assert.Equal(t, 0, entry.AttemptCount())
	assert.Empty(t, entry.LastError())
	assert.Nil(t, entry.NextRetryAt())
	assert.Nil(t, entry.StartedAt())
	assert.Nil(t, entry.CompletedAt())
	assert.Empty(t, entry.WorkerID())
}

func TestQueueEntry_ResetForRetry_NotFailed(t *testing.T) {
	entry := newPendingEntry(t)

	err := entry.ResetForRetry()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only failed entries")
}

// =====================================================================
// TestReconstructQueueEntry_*
// =====================================================================

func TestReconstructQueueEntry_ZeroID(t *testing.T) {
	_, err := ReconstructQueueEntry(QueueEntryReconstructParams{
		InstanceID: 1,
		Operation:  vo.OperationProvision,
		Status:     vo.EntryPending,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ID cannot be zero")
}

func TestReconstructQueueEntry_InvalidStatus(t *testing.T) {
	_, err := ReconstructQueueEntry(QueueEntryReconstructParams{
		ID:         1,
		InstanceID: 1,
		Operation:  vo.OperationProvision,
		Status:     vo.EntryStatus("bogus"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entry status")
}
