// Package progress persists live progress onto in-flight runs.
package progress

import (
	"context"
	"errors"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// Reporter overwrites a run's detail payload and commits immediately.
// Failures are logged and never returned: progress is best-effort.
type Reporter struct {
	runs repository.RunRepository
}

// NewReporter creates a Reporter.
func NewReporter(runs repository.RunRepository) *Reporter {
	return &Reporter{runs: runs}
}

// Report writes details onto run runID outside of any transaction carried by ctx.
// It reports whether the write succeeded.
func (r *Reporter) Report(ctx context.Context, runID uint, details model.RunDetails) bool {
	return r.write(ctx, runID, details) == nil
}

func (r *Reporter) write(ctx context.Context, runID uint, details model.RunDetails) error {
	err := r.runs.UpdateDetails(tx.WithoutTx(ctx), runID, details)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrRunNotRunning):
		logger.Infof("Run %d already ended in storage; progress dropped", runID)
	default:
		logger.Warnf("Progress report for run %d failed: %v", runID, err)
	}
	return err
}
