// Package usecase implements the control surface operators use to inspect and steer
// the sync core, and the manual override workflow.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

const (
	// DefaultRunLimit is the page size of ListRuns when none is given.
	DefaultRunLimit = 50
	// MaxRunLimit is the largest page ListRuns serves.
	MaxRunLimit = 200

	// DisplayStatusStuck is reported for running runs older than the stuck threshold.
	DisplayStatusStuck = "stuck"

	SchedulerStatusScheduled    = "scheduled"
	SchedulerStatusNotScheduled = "not_scheduled"
)

// Trigger is the part of the scheduler the control surface drives.
type Trigger interface {
	TriggerManual(ctx context.Context, name string, params model.TriggerParams) (*model.Run, error)
	Schedule(name string) error
	Unschedule(name string)
	IsScheduled(name string) bool
	NextRun(name string) (time.Time, bool)
}

// StuckSweeper reclaims runs stuck in running.
type StuckSweeper interface {
	Sweep(ctx context.Context) (int, error)
	Threshold() time.Duration
}

// JobView is a JobDefinition with its live scheduling state.
type JobView struct {
	*model.JobDefinition
	NextRun         *time.Time
	SuccessRate     float64
	SchedulerStatus string
}

// RunQuery filters and pages ListRuns.
type RunQuery struct {
	JobID   *uint
	JobName string
	Status  model.RunStatus
	Limit   int
	Offset  int
}

// RunPage is one page of runs, newest first.
type RunPage struct {
	Runs   []*model.Run
	Total  int64
	Limit  int
	Offset int
}

// RunView is a run as shown to an operator.
type RunView struct {
	*model.Run
	// DisplayStatus is the run status, or "stuck" for a running run past the threshold.
	DisplayStatus  string
	IsRunning      bool
	IsStuck        bool
	ElapsedSeconds *int64
}

// ControlService is the control surface of the sync core.
type ControlService struct {
	jobs     repository.JobDefinitionRepository
	runs     repository.RunRepository
	registry *cancellation.Registry
	trigger  Trigger
	sweeper  StuckSweeper
	now      func() time.Time
}

// ControlOption configures a ControlService.
type ControlOption func(*ControlService)

// WithControlClock overrides the clock.
func WithControlClock(now func() time.Time) ControlOption {
	return func(s *ControlService) { s.now = now }
}

// NewControlService creates a ControlService.
func NewControlService(
	jobs repository.JobDefinitionRepository,
	runs repository.RunRepository,
	registry *cancellation.Registry,
	trigger Trigger,
	sweeper StuckSweeper,
	opts ...ControlOption,
) *ControlService {
	s := &ControlService{
		jobs:     jobs,
		runs:     runs,
		registry: registry,
		trigger:  trigger,
		sweeper:  sweeper,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListJobs returns every JobDefinition ordered by name.
func (s *ControlService) ListJobs(ctx context.Context) ([]*JobView, error) {
	defs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	views := make([]*JobView, 0, len(defs))
	for _, def := range defs {
		views = append(views, s.jobView(def))
	}
	return views, nil
}

func (s *ControlService) jobView(def *model.JobDefinition) *JobView {
	v := &JobView{
		JobDefinition:   def,
		SuccessRate:     def.SuccessRate(),
		SchedulerStatus: SchedulerStatusNotScheduled,
	}
	if s.trigger.IsScheduled(def.Name) {
		v.SchedulerStatus = SchedulerStatusScheduled
		if next, ok := s.trigger.NextRun(def.Name); ok {
			v.NextRun = &next
		}
	}
	return v
}

// ListRuns returns one page of runs matching q.
func (s *ControlService) ListRuns(ctx context.Context, q RunQuery) (*RunPage, error) {
	if q.Limit == 0 {
		q.Limit = DefaultRunLimit
	}
	if q.Limit < 1 || q.Limit > MaxRunLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidArgument, MaxRunLimit, q.Limit)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidArgument, q.Offset)
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, q.Status)
	}

	runs, total, err := s.runs.List(ctx, repository.RunFilter{
		JobID:   q.JobID,
		JobName: q.JobName,
		Status:  q.Status,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return &RunPage{Runs: runs, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// GetRunDetail returns one run with its live elapsed time.
func (s *ControlService) GetRunDetail(ctx context.Context, runID uint) (*RunView, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	v := &RunView{Run: run, DisplayStatus: string(run.Status)}
	if run.Status != model.RunStatusRunning {
		return v, nil
	}

	now := s.now().UTC()
	elapsed := int64(run.Elapsed(now) / time.Second)
	v.ElapsedSeconds = &elapsed
	if run.IsStuck(now, s.sweeper.Threshold()) {
		v.IsStuck = true
		v.DisplayStatus = DisplayStatusStuck
		if run.ErrorMessage == "" {
			run.ErrorMessage = model.MsgStuckDisplay
		}
		return v, nil
	}
	v.IsRunning = true
	return v, nil
}

// TriggerJob starts a manual run of jobName and returns it while it is still running.
func (s *ControlService) TriggerJob(ctx context.Context, jobName string, params model.TriggerParams) (*model.Run, error) {
	if params.HoursBack < 0 || params.Limit < 0 || params.BatchSize < 0 || params.TeamID < 0 {
		return nil, fmt.Errorf("%w: trigger parameters must not be negative (%s)", ErrInvalidArgument, params)
	}
	return s.trigger.TriggerManual(ctx, jobName, params)
}

// ToggleJob flips the active flag of a JobDefinition and attaches or detaches its trigger.
func (s *ControlService) ToggleJob(ctx context.Context, jobID uint) (*JobView, error) {
	def, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	def, err = s.jobs.SetActive(ctx, jobID, !def.IsActive)
	if err != nil {
		return nil, fmt.Errorf("toggle job %d: %w", jobID, err)
	}

	if def.IsActive {
		if err := s.trigger.Schedule(def.Name); err != nil {
			if !errors.Is(err, ErrUnknownJob) {
				return nil, err
			}
			logger.Warnf("Job %s was enabled but has no registered body to schedule", def.Name)
		}
		logger.Infof("Job %s enabled", def.Name)
	} else {
		s.trigger.Unschedule(def.Name)
		logger.Infof("Job %s disabled", def.Name)
	}
	return s.jobView(def), nil
}

// StopRun cancels a running run and marks it failed in storage whether or not a live
// token was found. A run that already ended is returned unchanged.
func (s *ControlService) StopRun(ctx context.Context, runID uint, reason string) (*model.Run, error) {
	if reason == "" {
		reason = model.ReasonStoppedByUser
	}
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status.IsTerminal() {
		logger.Infof("Run %d is already %s, nothing to stop", runID, run.Status)
		return run, nil
	}
	return run, s.forceFail(ctx, run, reason)
}

func (s *ControlService) forceFail(ctx context.Context, run *model.Run, reason string) error {
	if !s.registry.Cancel(run.ID, reason) {
		logger.Warnf("Run %d has no live cancellation token; marking it failed in storage only", run.ID)
	}
	now := s.now().UTC()
	run.Details = run.Details.Clone()
	run.Details.Log = append(run.Details.Log, model.LogEntry{At: now, Message: reason})
	run.Finish(model.RunStatusFailed, reason, now)
	if err := s.runs.Finalize(tx.WithoutTx(ctx), run); err != nil {
		return fmt.Errorf("mark run %d failed: %w", run.ID, err)
	}
	logger.Infof("Run %d (%s) stopped: %s", run.ID, run.JobName, reason)
	return nil
}

// DeleteRun removes a run, stopping it first when it is still running.
func (s *ControlService) DeleteRun(ctx context.Context, runID uint) error {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status == model.RunStatusRunning {
		if err := s.forceFail(ctx, run, model.ReasonDeletedByUser); err != nil {
			return err
		}
	}
	if err := s.runs.Delete(ctx, runID); err != nil {
		return fmt.Errorf("delete run %d: %w", runID, err)
	}
	s.registry.Release(runID)
	logger.Infof("Run %d deleted", runID)
	return nil
}

// CleanupStuckRuns runs the stuck-run sweep out of band.
func (s *ControlService) CleanupStuckRuns(ctx context.Context) (int, error) {
	return s.sweeper.Sweep(ctx)
}
