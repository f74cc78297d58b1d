package usecases

import (
	"context"
	"time"

	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// ReleaseStaleEntriesUseCase returns queue entries stuck in progress to
// pending. An entry goes stale when the worker that claimed it died before
// finishing; releasing it lets another worker pick it up.
type ReleaseStaleEntriesUseCase struct {
	queueRepo  provisioning.Repository
	staleAfter time.Duration
	logger     logger.Interface
}

func NewReleaseStaleEntriesUseCase(
	queueRepo provisioning.Repository,
	staleAfter time.Duration,
	logger logger.Interface,
) *ReleaseStaleEntriesUseCase {
	return &ReleaseStaleEntriesUseCase{
		queueRepo:  queueRepo,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Execute releases entries claimed longer ago than the stale threshold and
// returns how many were released.
func (uc *ReleaseStaleEntriesUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := biztime.NowUTC().Add(-uc.staleAfter)

	released, err := uc.queueRepo.ReleaseStale(ctx, cutoff)
	if err != nil {
		uc.logger.Errorw("failed to release stale queue entries", "error", err)
		return 0, err
	}

	if released > 0 {
		uc.logger.Infow("stale queue entries released", "count", released)
	}
	return released, nil
}
