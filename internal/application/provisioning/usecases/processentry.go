package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenhost/lumen/internal/domain/instance"
	instancevo "github.com/lumenhost/lumen/internal/domain/instance/valueobjects"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	vo "github.com/lumenhost/lumen/internal/domain/provisioning/valueobjects"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ProcessEntryUseCase executes one claimed queue entry against the runtime.
// Runtime operations are idempotent, so an entry that crashed between
// execution and completion is safe to run again. Transient failures requeue
// the entry with exponential backoff; once attempts are exhausted the entry
// fails permanently and the instance moves to error.
type ProcessEntryUseCase struct {
	queueRepo      provisioning.Repository
	instanceRepo   instance.Repository
	runtime        provisioning.Runtime
	notifier       Notifier
	txManager      *db.TransactionManager
	attemptTimeout time.Duration
	logger         logger.Interface
}

func NewProcessEntryUseCase(
	queueRepo provisioning.Repository,
	instanceRepo instance.Repository,
	runtime provisioning.Runtime,
	notifier Notifier,
	txManager *db.TransactionManager,
	attemptTimeout time.Duration,
	logger logger.Interface,
) *ProcessEntryUseCase {
	return &ProcessEntryUseCase{
		queueRepo:      queueRepo,
		instanceRepo:   instanceRepo,
		runtime:        runtime,
		notifier:       notifier,
		txManager:      txManager,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Execute runs the entry to completion, requeue or permanent failure. The
// entry must already be claimed (in progress) by the calling worker.
func (uc *ProcessEntryUseCase) Execute(ctx context.Context, entry *provisioning.QueueEntry) error {
	inst, err := uc.instanceRepo.GetByID(ctx, entry.InstanceID())
	if err != nil {
		if errors.Is(err, instance.ErrInstanceNotFound) {
			return uc.failPermanently(ctx, entry, fmt.Errorf("instance %d no longer exists", entry.InstanceID()))
		}
		return uc.handleFailure(ctx, entry, fmt.Errorf("failed to load instance: %w", err))
	}

	opCtx, cancel := context.WithTimeout(ctx, uc.attemptTimeout)
	defer cancel()

	switch entry.Operation() {
	case vo.OperationProvision:
		err = uc.provision(opCtx, entry, inst)
	case vo.OperationSuspend:
		err = uc.suspend(opCtx, inst)
	case vo.OperationResume:
		err = uc.resume(opCtx, inst)
	case vo.OperationTerminate:
		err = uc.terminate(opCtx, inst)
	default:
		return uc.failPermanently(ctx, entry, fmt.Errorf("unknown operation %s", entry.Operation()))
	}
	if err != nil {
		return uc.handleFailure(ctx, entry, err)
	}

	if err := uc.complete(ctx, entry); err != nil {
		return err
	}

	if entry.Operation() == vo.OperationProvision && uc.notifier != nil {
		if err := uc.notifier.NotifyInstanceReady(ctx, inst); err != nil {
			uc.logger.Warnw("failed to send instance ready notification",
				"error", err,
				"instance_iid", inst.IID(),
			)
		}
	}

	uc.logger.Infow("queue entry completed",
		"queue_qid", entry.QID(),
		"operation", entry.Operation(),
		"instance_iid", inst.IID(),
		"attempt", entry.AttemptCount(),
	)
	return nil
}

func (uc *ProcessEntryUseCase) provision(ctx context.Context, entry *provisioning.QueueEntry, inst *instance.Instance) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.instanceRepo.GetByIDForUpdate(txCtx, inst.ID())
		if err != nil {
			return fmt.Errorf("failed to lock instance: %w", err)
		}
		if locked.State() == instancevo.StatePending {
			if err := locked.MarkProvisioning(); err != nil {
				return err
			}
			if err := uc.instanceRepo.Update(txCtx, locked); err != nil {
				return fmt.Errorf("failed to update instance: %w", err)
			}
		}
		*inst = *locked
		return nil
	})
	if err != nil {
		return err
	}

	if inst.State() != instancevo.StateProvisioning {
		// The instance moved on while the entry waited; nothing to do.
		uc.logger.Warnw("skipping provision for instance not in provisioning",
			"instance_iid", inst.IID(),
			"state", inst.State(),
		)
		return nil
	}

	ref, err := uc.ensureWorkload(ctx, inst)
	if err != nil {
		return err
	}

	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.instanceRepo.GetByIDForUpdate(txCtx, inst.ID())
		if err != nil {
			return fmt.Errorf("failed to lock instance: %w", err)
		}
		locked.SetWorkloadRef(ref)
		if err := locked.MarkRunning(); err != nil {
			return err
		}
		if err := uc.instanceRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}
		*inst = *locked
		return nil
	})
}

// ensureWorkload creates the backing workload, reusing one left over from a
// previous attempt that crashed after creation.
func (uc *ProcessEntryUseCase) ensureWorkload(ctx context.Context, inst *instance.Instance) (string, error) {
	if ref := inst.WorkloadRef(); ref != nil {
		exists, err := uc.runtime.Exists(ctx, *ref)
		if err != nil {
			return "", fmt.Errorf("failed to check workload %s: %w", *ref, err)
		}
		if exists {
			return *ref, nil
		}
	}

	ref, err := uc.runtime.Create(ctx, provisioning.WorkloadSpec{
		Name:      inst.Name(),
		Subdomain: inst.Subdomain(),
		Resources: inst.Resources(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create workload: %w", err)
	}
	return ref, nil
}

func (uc *ProcessEntryUseCase) suspend(ctx context.Context, inst *instance.Instance) error {
	ref := inst.WorkloadRef()
	if ref == nil {
		return nil
	}
	if err := uc.runtime.Stop(ctx, *ref); err != nil {
		return fmt.Errorf("failed to stop workload: %w", err)
	}
	return nil
}

func (uc *ProcessEntryUseCase) resume(ctx context.Context, inst *instance.Instance) error {
	ref := inst.WorkloadRef()
	if ref == nil {
		return fmt.Errorf("instance %s has no workload to start", inst.IID())
	}
	if err := uc.runtime.Start(ctx, *ref); err != nil {
		return fmt.Errorf("failed to start workload: %w", err)
	}
	return nil
}

func (uc *ProcessEntryUseCase) terminate(ctx context.Context, inst *instance.Instance) error {
	if ref := inst.WorkloadRef(); ref != nil {
		if err := uc.runtime.Destroy(ctx, *ref); err != nil {
			return fmt.Errorf("failed to destroy workload: %w", err)
		}
	}

	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.instanceRepo.GetByIDForUpdate(txCtx, inst.ID())
		if err != nil {
			return fmt.Errorf("failed to lock instance: %w", err)
		}
		if err := locked.MarkTerminated(); err != nil {
			return err
		}
		if err := uc.instanceRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}
		*inst = *locked
		return nil
	})
}

func (uc *ProcessEntryUseCase) complete(ctx context.Context, entry *provisioning.QueueEntry) error {
	if err := entry.Complete(); err != nil {
		return err
	}
	if err := uc.queueRepo.Update(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist completed entry: %w", err)
	}
	return nil
}

// handleFailure requeues with backoff while attempts remain, otherwise fails
// the entry permanently.
func (uc *ProcessEntryUseCase) handleFailure(ctx context.Context, entry *provisioning.QueueEntry, cause error) error {
	if entry.HasAttemptsLeft() {
		if err := entry.RetryLater(cause); err != nil {
			return err
		}
		if err := uc.queueRepo.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to persist requeued entry: %w", err)
		}
		uc.logger.Warnw("queue entry requeued after failure",
			"queue_qid", entry.QID(),
			"operation", entry.Operation(),
			"attempt", entry.AttemptCount(),
			"next_retry_at", entry.NextRetryAt(),
			"error", cause,
		)
		return nil
	}
	return uc.failPermanently(ctx, entry, cause)
}

func (uc *ProcessEntryUseCase) failPermanently(ctx context.Context, entry *provisioning.QueueEntry, cause error) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := entry.Fail(cause); err != nil {
			return err
		}
		if err := uc.queueRepo.Update(txCtx, entry); err != nil {
			return fmt.Errorf("failed to persist failed entry: %w", err)
		}

		locked, err := uc.instanceRepo.GetByIDForUpdate(txCtx, entry.InstanceID())
		if err != nil {
			if errors.Is(err, instance.ErrInstanceNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock instance: %w", err)
		}
		if markErr := locked.MarkError(cause.Error()); markErr != nil {
			uc.logger.Warnw("could not move instance to error",
				"instance_iid", locked.IID(),
				"state", locked.State(),
				"error", markErr,
			)
			return nil
		}
		if err := uc.instanceRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Errorw("queue entry failed permanently",
		"queue_qid", entry.QID(),
		"operation", entry.Operation(),
		"instance_id", entry.InstanceID(),
		"attempts", entry.AttemptCount(),
		"error", cause,
	)
	return nil
}
