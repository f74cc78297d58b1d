package instance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
)

// --- helpers ---

func newResourceSpec(t *testing.T) vo.ResourceSpec {
	t.Helper()
	spec, err := vo.NewResourceSpec(2, 4096, 40)
	require.NoError(t, err)
	return spec
}

func newDraftInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance("acme-prod", "acme", newResourceSpec(t), false)
	require.NoError(t, err)
	require.NotNil(t, inst)
	return inst
}

func newRunningInstance(t *testing.T) *Instance {
	t.Helper()
	inst := newDraftInstance(t)
	require.NoError(t, inst.MarkPending())
	require.NoError(t, inst.MarkProvisioning())
	inst.SetWorkloadRef("wl-abc123")
	require.NoError(t, inst.MarkRunning())
	return inst
}

// reconstructInstance builds an Instance from InstanceReconstructParams with
// sensible defaults. Callers override fields through the mutate func.
func reconstructInstance(t *testing.T, mutate func(*InstanceReconstructParams)) *Instance {
	t.Helper()
	now := time.Now().UTC()
	params := InstanceReconstructParams{
		ID:        1,
		IID:       "inst_test123",
		Name:      "acme-prod",
		Subdomain: "acme",
		State:     vo.StateDraft,
		Resources: newResourceSpec(t),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mutate != nil {
		mutate(&params)
	}
	inst, err := ReconstructInstance(params)
	require.NoError(t, err)
	return inst
}

// =====================================================================
// TestNewInstance_*
// =====================================================================

func TestNewInstance_ValidInput(t *testing.T) {
	inst, err := NewInstance("acme-prod", "acme", newResourceSpec(t), true)

	require.NoError(t, err)
	require.NotNil(t, inst)

	assert.NotEmpty(t, inst.IID(), "IID should be generated")
	assert.Equal(t, "acme-prod", inst.Name())
	assert.Equal(t, "acme", inst.Subdomain())
	assert.Equal(t, vo.StateDraft, inst.State(), "initial state should be draft")
	assert.True(t, inst.IsTrial())
	assert.Nil(t, inst.WorkloadRef())
	assert.Empty(t, inst.StatusMessage())
	assert.Equal(t, 1, inst.Version())
}

func TestNewInstance_EmptyName(t *testing.T) {
	inst, err := NewInstance("", "acme", newResourceSpec(t), false)

	assert.Error(t, err)
	assert.Nil(t, inst)
	assert.Contains(t, err.Error(), "name is required")
}

func TestNewInstance_InvalidSubdomain(t *testing.T) {
	for _, subdomain := range []string{"", "-acme", "acme-", "Acme", "ac_me", "a b"} {
		inst, err := NewInstance("acme-prod", subdomain, newResourceSpec(t), false)
		assert.Error(t, err, "subdomain %q should be rejected", subdomain)
		assert.Nil(t, inst)
	}
}

func TestNewInstance_ValidSubdomains(t *testing.T) {
	for _, subdomain := range []string{"a", "a1", "acme", "acme-corp", "0start"} {
		inst, err := NewInstance("acme-prod", subdomain, newResourceSpec(t), false)
		assert.NoError(t, err, "subdomain %q should be accepted", subdomain)
		require.NotNil(t, inst)
	}
}

func TestNewInstance_InvalidResources(t *testing.T) {
	inst, err := NewInstance("acme-prod", "acme", vo.ResourceSpec{}, false)

	assert.Error(t, err)
	assert.Nil(t, inst)
	assert.Contains(t, err.Error(), "invalid resource spec")
}

// =====================================================================
// TestInstance_Transitions_*
// =====================================================================

func TestInstance_MarkPending_FromDraft(t *testing.T) {
	inst := newDraftInstance(t)

	require.NoError(t, inst.MarkPending())

	assert.Equal(t, vo.StatePending, inst.State())
}

func TestInstance_MarkPending_FromError(t *testing.T) {
	inst := newDraftInstance(t)
	require.NoError(t, inst.MarkPending())
	require.NoError(t, inst.MarkError("runtime rejected the workload"))

	require.NoError(t, inst.MarkPending(), "error state allows a manual retry")

	assert.Equal(t, vo.StatePending, inst.State())
	assert.Empty(t, inst.StatusMessage(), "retry clears the failure message")
}

func TestInstance_MarkPending_FromRunning(t *testing.T) {
	inst := newRunningInstance(t)

	err := inst.MarkPending()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid state transition")
}

func TestInstance_MarkProvisioning(t *testing.T) {
	inst := newDraftInstance(t)
	require.NoError(t, inst.MarkPending())

	require.NoError(t, inst.MarkProvisioning())

	assert.Equal(t, vo.StateProvisioning, inst.State())
}

func TestInstance_MarkProvisioning_FromDraft(t *testing.T) {
	inst := newDraftInstance(t)

	assert.Error(t, inst.MarkProvisioning())
}

func TestInstance_MarkRunning_FromProvisioning(t *testing.T) {
	inst := newDraftInstance(t)
	require.NoError(t, inst.MarkPending())
	require.NoError(t, inst.MarkProvisioning())

	require.NoError(t, inst.MarkRunning())

	assert.Equal(t, vo.StateRunning, inst.State())
}

func TestInstance_SuspendAndResume(t *testing.T) {
	inst := newRunningInstance(t)

	require.NoError(t, inst.Suspend())
	assert.Equal(t, vo.StateSuspended, inst.State())

	require.NoError(t, inst.Resume())
	assert.Equal(t, vo.StateRunning, inst.State())
}

func TestInstance_Suspend_NotRunning(t *testing.T) {
	inst := newDraftInstance(t)

	assert.Error(t, inst.Suspend())
}

func TestInstance_Resume_NotSuspended(t *testing.T) {
	inst := newRunningInstance(t)

	assert.Error(t, inst.Resume())
}

func TestInstance_MarkTerminated(t *testing.T) {
	inst := newRunningInstance(t)
	require.NotNil(t, inst.WorkloadRef())

	require.NoError(t, inst.MarkTerminated())

	assert.Equal(t, vo.StateTerminated, inst.State())
	assert.Nil(t, inst.WorkloadRef(), "termination clears the workload reference")
}

func TestInstance_MarkTerminated_Idempotent(t *testing.T) {
	inst := newRunningInstance(t)
	require.NoError(t, inst.MarkTerminated())
	versionBefore := inst.Version()

	require.NoError(t, inst.MarkTerminated())
	assert.Equal(t, versionBefore, inst.Version())
}

func TestInstance_MarkTerminated_FromDraft(t *testing.T) {
	inst := newDraftInstance(t)

	assert.Error(t, inst.MarkTerminated(), "draft instances are deleted, not terminated")
}

func TestInstance_MarkError(t *testing.T) {
	inst := newDraftInstance(t)
	require.NoError(t, inst.MarkPending())

	require.NoError(t, inst.MarkError("workload creation failed: quota exceeded"))

	assert.Equal(t, vo.StateError, inst.State())
	assert.Equal(t, "workload creation failed: quota exceeded", inst.StatusMessage())
}

func TestInstance_MarkError_FromDraft(t *testing.T) {
	inst := newDraftInstance(t)

	assert.Error(t, inst.MarkError("boom"))
}

func TestInstance_MarkError_FromTerminated(t *testing.T) {
	inst := newRunningInstance(t)
	require.NoError(t, inst.MarkTerminated())

	assert.Error(t, inst.MarkError("boom"))
}

// =====================================================================
// TestInstance_Workload_*
// =====================================================================

func TestInstance_SetWorkloadRef(t *testing.T) {
	inst := newDraftInstance(t)

	inst.SetWorkloadRef("wl-xyz")
	require.NotNil(t, inst.WorkloadRef())
	assert.Equal(t, "wl-xyz", *inst.WorkloadRef())

	inst.SetWorkloadRef("")
	require.NotNil(t, inst.WorkloadRef(), "empty ref is ignored")
	assert.Equal(t, "wl-xyz", *inst.WorkloadRef())
}

func TestInstance_IsDeletable(t *testing.T) {
	assert.True(t, newDraftInstance(t).IsDeletable())
	assert.False(t, newRunningInstance(t).IsDeletable())

	terminated := newRunningInstance(t)
	require.NoError(t, terminated.MarkTerminated())
	assert.False(t, terminated.IsDeletable(), "terminated records are retained for audit")
}

// =====================================================================
// TestInstanceState_*
// =====================================================================

func TestInstanceState_HasWorkload(t *testing.T) {
	assert.False(t, vo.StateDraft.HasWorkload())
	assert.False(t, vo.StatePending.HasWorkload())
	assert.True(t, vo.StateProvisioning.HasWorkload())
	assert.True(t, vo.StateRunning.HasWorkload())
	assert.True(t, vo.StateSuspended.HasWorkload())
	assert.False(t, vo.StateTerminated.HasWorkload())
}

func TestInstanceState_CanTransitionTo(t *testing.T) {
	assert.True(t, vo.StateDraft.CanTransitionTo(vo.StatePending))
	assert.False(t, vo.StateDraft.CanTransitionTo(vo.StateRunning))
	assert.True(t, vo.StateError.CanTransitionTo(vo.StatePending))
	assert.False(t, vo.StateTerminated.CanTransitionTo(vo.StatePending))
}

// =====================================================================
// TestReconstructInstance_*
// =====================================================================

func TestReconstructInstance_ZeroID(t *testing.T) {
	_, err := ReconstructInstance(InstanceReconstructParams{State: vo.StateDraft})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ID cannot be zero")
}

func TestReconstructInstance_InvalidState(t *testing.T) {
	_, err := ReconstructInstance(InstanceReconstructParams{ID: 1, State: vo.InstanceState("bogus")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instance state")
}

func TestReconstructInstance_PreservesState(t *testing.T) {
	ref := "wl-abc"
	inst := reconstructInstance(t, func(p *InstanceReconstructParams) {
		p.State = vo.StateSuspended
		p.WorkloadRef = &ref
		p.IsTrial = true
	})

	assert.Equal(t, vo.StateSuspended, inst.State())
	require.NotNil(t, inst.WorkloadRef())
	assert.Equal(t, "wl-abc", *inst.WorkloadRef())
	assert.True(t, inst.IsTrial())
}
