package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

const (
	// DefaultStuckThreshold is the age after which a running run is reclaimed.
	DefaultStuckThreshold = time.Hour
	// DefaultSweepInterval is how often the sweep fires after the startup pass.
	DefaultSweepInterval = time.Hour
)

// Sweeper marks runs stuck in running as failed. Cancellation tokens live only in
// memory, so a run orphaned by a crash would otherwise stay running forever.
type Sweeper struct {
	runs     repository.RunRepository
	jobs     repository.JobDefinitionRepository
	registry *cancellation.Registry
	recorder metrics.MetricRecorder

	threshold time.Duration
	interval  time.Duration
	now       func() time.Time

	cron   *cron.Cron
	cancel context.CancelFunc
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithThreshold sets the stuck threshold.
func WithThreshold(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithInterval sets the interval between sweeps.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSweepClock overrides the clock.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// WithRecorder sets the recorder counting reclaimed runs.
func WithRecorder(r metrics.MetricRecorder) SweeperOption {
	return func(s *Sweeper) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSweeper creates a Sweeper.
func NewSweeper(runs repository.RunRepository, jobs repository.JobDefinitionRepository, registry *cancellation.Registry, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		runs:      runs,
		jobs:      jobs,
		registry:  registry,
		recorder:  metrics.NewNoOpMetricRecorder(),
		threshold: DefaultStuckThreshold,
		interval:  DefaultSweepInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured stuck threshold.
func (s *Sweeper) Threshold() time.Duration { return s.threshold }

// Sweep reclaims every run that has been running for longer than the threshold
// and returns how many were reclaimed. A failure on one run does not stop the others.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	stuck, err := s.runs.FindRunningStartedBefore(ctx, now.Add(-s.threshold))
	if err != nil {
		return 0, fmt.Errorf("find stuck runs: %w", err)
	}

	var errs *multierror.Error
	reclaimed := 0
	for _, run := range stuck {
		s.registry.Cancel(run.ID, model.ReasonStuckCleanup)
		s.registry.Release(run.ID)

		run.Details = run.Details.Clone()
		run.Details.Log = append(run.Details.Log, model.LogEntry{At: now, Message: model.MsgStuckReclaimed})
		run.Finish(model.RunStatusFailed, model.MsgStuckReclaimed, now)
		if err := s.runs.Finalize(ctx, run); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("reclaim run %d: %w", run.ID, err))
			continue
		}
		if run.JobID != 0 {
			if err := s.jobs.RecordOutcome(ctx, run.JobID, false, nil); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("update counters of job %d: %w", run.JobID, err))
			}
		}
		reclaimed++
		logger.Warnf("Reclaimed stuck run %d (%s), started %s", run.ID, run.JobName, run.StartedAt.Format(time.RFC3339))
	}

	if reclaimed > 0 {
		s.recorder.RecordStuckReclaimed(ctx, reclaimed)
		logger.Infof("Stuck-run sweep reclaimed %d run(s)", reclaimed)
	}
	return reclaimed, errs.ErrorOrNil()
}

// Start sweeps once, then registers the sweep as an interval cron entry until Stop.
func (s *Sweeper) Start(ctx context.Context) {
	s.sweepLogged(ctx)

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.sweepLogged(sweepCtx) }))
	s.cron.Start()
}

// Stop ends the periodic sweep and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
}

func (s *Sweeper) sweepLogged(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		logger.Errorf("Stuck-run sweep failed: %v", err)
	}
}
