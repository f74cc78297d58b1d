// Package queue runs the bounded worker pool that drains the provisioning
// queue.
package queue

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lumenhost/lumen/internal/application/provisioning/usecases"
	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/config"
	"github.com/lumenhost/lumen/internal/shared/goroutine"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// WorkerPool drains the provisioning queue with a fixed number of workers.
// Each worker claims entries one at a time, so at most `workers` entries are
// in flight per process. Workers wake on poll ticks and on pub/sub nudges.
type WorkerPool struct {
	queueRepo    provisioning.Repository
	processEntry *usecases.ProcessEntryUseCase
	logger       logger.Interface

	workers      int
	pollInterval time.Duration
	nudges       <-chan struct{}

	startedMu sync.Mutex
	started   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorkerPool creates a worker pool from config. nudges may be nil; the
// pool then relies on polling alone.
func NewWorkerPool(
	cfg config.ProvisioningConfig,
	queueRepo provisioning.Repository,
	processEntry *usecases.ProcessEntryUseCase,
	nudges <-chan struct{},
	logger logger.Interface,
) *WorkerPool {
	return &WorkerPool{
		queueRepo:    queueRepo,
		processEntry: processEntry,
		logger:       logger,
		workers:      cfg.Workers,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		nudges:       nudges,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *WorkerPool) Start() {
	p.startedMu.Lock()
	defer p.startedMu.Unlock()
	if p.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	hostname, _ := os.Hostname()
	for i := 0; i < p.workers; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", hostname, i)
		p.wg.Add(1)
		goroutine.SafeGo(p.logger, workerID, func() {
			defer p.wg.Done()
			p.runWorker(ctx, workerID)
		})
	}

	p.logger.Infow("worker pool started",
		"workers", p.workers,
		"poll_interval", p.pollInterval,
	)
}

// Stop signals the workers and waits for in-flight entries to finish.
func (p *WorkerPool) Stop() {
	p.startedMu.Lock()
	defer p.startedMu.Unlock()
	if !p.started {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.started = false

	p.logger.Infow("worker pool stopped")
}

func (p *WorkerPool) runWorker(ctx context.Context, workerID string) {
	log := p.logger.With("worker_id", workerID)
	log.Infow("worker started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Drain on startup so entries enqueued while the worker was down are
	// picked up immediately.
	p.drain(ctx, workerID, log)

	for {
		select {
		case <-ctx.Done():
			log.Infow("worker stopped")
			return
		case <-ticker.C:
			p.drain(ctx, workerID, log)
		case <-p.nudgeChan():
			p.drain(ctx, workerID, log)
		}
	}
}

// nudgeChan returns a never-ready channel when no subscriber is wired.
func (p *WorkerPool) nudgeChan() <-chan struct{} {
	if p.nudges == nil {
		return nil
	}
	return p.nudges
}

// drain claims and processes entries until the queue is empty or the context
// is cancelled.
func (p *WorkerPool) drain(ctx context.Context, workerID string, log logger.Interface) {
	for {
		if ctx.Err() != nil {
			return
		}

		entry, err := p.queueRepo.ClaimNext(ctx, workerID, biztime.NowUTC())
		if err != nil {
			log.Errorw("failed to claim queue entry", "error", err)
			return
		}
		if entry == nil {
			return
		}

		if err := p.processEntry.Execute(ctx, entry); err != nil {
			log.Errorw("queue entry processing failed",
				"qid", entry.QID(),
				"operation", entry.Operation().String(),
				"error", err,
			)
		}
	}
}
