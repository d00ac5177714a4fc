// Package listener collects the RunListener implementations attached to the executor.
package listener

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/listener/logging"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/listener/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// Group is the fx value group RunListeners are provided into.
const Group = "run_listeners"

// Composite fans each event out to its listeners in order. A panicking listener
// is recovered and logged so the rest still observe the run.
type Composite []job.RunListener

func (c Composite) BeforeRun(ctx context.Context, run *model.Run) {
	if err := c.each(func(l job.RunListener) { l.BeforeRun(ctx, run) }); err != nil {
		logger.Errorf("Run %d: listener BeforeRun: %v", run.ID, err)
	}
}

func (c Composite) AfterRun(ctx context.Context, run *model.Run) {
	if err := c.each(func(l job.RunListener) { l.AfterRun(ctx, run) }); err != nil {
		logger.Errorf("Run %d: listener AfterRun: %v", run.ID, err)
	}
}

func (c Composite) each(fn func(job.RunListener)) error {
	var errs *multierror.Error
	for _, l := range c {
		if err := call(l, fn); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func call(l job.RunListener, fn func(job.RunListener)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Listener: l, Value: r}
		}
	}()
	fn(l)
	return nil
}

var _ job.RunListener = Composite(nil)

// Module provides the logging and metrics listeners.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
)
