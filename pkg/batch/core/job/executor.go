package job

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/progress"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

var (
	// ErrJobNotRegistered is returned for a scheduled run without a JobDefinition.
	ErrJobNotRegistered = errors.New("job definition not registered")
	// ErrJobInactive is returned for a scheduled run of a deactivated JobDefinition.
	ErrJobInactive = errors.New("job definition is inactive")
	// ErrTimeout is the cause recorded when a body exceeds the executor timeout.
	ErrTimeout = errors.New("job timed out")
)

const (
	// ReasonShutdown is the cancellation reason recorded when the process stops mid-run.
	ReasonShutdown = "Scheduler shutting down"
	// ReasonEndedElsewhere cancels a body whose run was finalized by another process.
	ReasonEndedElsewhere = "Run was ended by another process"
)

// DefaultTimeout is the hard wall-clock limit of a run.
const DefaultTimeout = 30 * time.Minute

// ExecutorDeps are the collaborators of an Executor.
type ExecutorDeps struct {
	Jobs      repository.JobDefinitionRepository
	Runs      repository.RunRepository
	Registry  *cancellation.Registry
	TxManager tx.TransactionManager
	Tracer    metrics.Tracer
	Listeners []RunListener
}

// Executor runs one body as one Run: it persists the run, hands the body a
// cancellation token and a transactional session, enforces the timeout and
// finalizes the run whatever happens. It never returns a body's error.
type Executor struct {
	jobs      repository.JobDefinitionRepository
	runs      repository.RunRepository
	registry  *cancellation.Registry
	txManager tx.TransactionManager
	tracer    metrics.Tracer
	listeners []RunListener
	reporter  *progress.Reporter

	timeout       time.Duration
	progressEvery int
	now           func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the hard wall-clock limit of a run.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithProgressEvery sets how many ticks pass between automatic progress flushes.
func WithProgressEvery(n int) ExecutorOption {
	return func(e *Executor) { e.progressEvery = n }
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an Executor.
func NewExecutor(deps ExecutorDeps, opts ...ExecutorOption) *Executor {
	e := &Executor{
		jobs:          deps.Jobs,
		runs:          deps.Runs,
		registry:      deps.Registry,
		txManager:     deps.TxManager,
		tracer:        deps.Tracer,
		listeners:     deps.Listeners,
		reporter:      progress.NewReporter(deps.Runs),
		timeout:       DefaultTimeout,
		progressEvery: 5,
		now:           time.Now,
	}
	if e.tracer == nil {
		e.tracer = metrics.NewNoOpTracer()
	}
	if e.txManager == nil {
		e.txManager = tx.NoopTransactionManager{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the configured run timeout.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Registry returns the cancellation registry shared with the control surface.
func (e *Executor) Registry() *cancellation.Registry { return e.registry }

// Prepare resolves the backing JobDefinition and persists a running Run for req
// without starting the body. Manual triggers call it synchronously so the caller
// learns the run ID before the body is scheduled.
func (e *Executor) Prepare(ctx context.Context, req Request) (*model.Run, error) {
	if req.RunID != 0 {
		run, err := e.runs.FindByID(ctx, req.RunID)
		if err != nil {
			return nil, err
		}
		if run.Status != model.RunStatusRunning {
			return nil, fmt.Errorf("run %d is already %s", run.ID, run.Status)
		}
		return run, nil
	}

	var jobID uint
	if req.Origin == model.TriggerScheduled {
		def, err := e.jobs.FindByName(ctx, req.JobName)
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotRegistered, req.JobName)
		}
		if err != nil {
			return nil, err
		}
		if !def.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrJobInactive, req.JobName)
		}
		jobID = def.ID
	}

	run := model.NewRun(req.JobName, jobID, req.Origin, e.now())
	run.Details = model.RunDetails{Params: &req.Params}
	if err := e.runs.Create(tx.WithoutTx(ctx), run); err != nil {
		return nil, fmt.Errorf("create run for %s: %w", req.JobName, err)
	}
	return run, nil
}

// Run executes req to completion and returns the finalized run.
// An error is returned only when no run could be created.
func (e *Executor) Run(ctx context.Context, req Request) (*model.Run, error) {
	run, err := e.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	e.Execute(ctx, run, req)
	return run, nil
}

type bodyOutcome struct {
	result Result
	err    error
}

// Execute runs req.Body against an already prepared run and finalizes it in place.
func (e *Executor) Execute(ctx context.Context, run *model.Run, req Request) {
	token := e.registry.Obtain(run.ID)
	defer e.registry.Release(run.ID)

	ctx, endSpan := e.tracer.StartRunSpan(ctx, run)
	defer endSpan()
	for _, l := range e.listeners {
		l.BeforeRun(ctx, run)
	}

	tracker := progress.NewTracker(e.reporter, run.ID, run.JobName,
		progress.FlushEvery(e.progressEvery), progress.WithTrackerClock(e.now),
		progress.OnRunEnded(func() { token.Cancel(ReasonEndedElsewhere) }))
	tracker.SetParams(req.Params)
	tracker.Set(MetricTraceID, uuid.NewString())
	tracker.Logf("Starting %s (%s trigger, params: %s)", run.JobName, run.TriggeredBy, req.Params)
	tracker.Flush(ctx)

	session := tx.NewSession(e.txManager)
	jc := &Context{
		RunID:    run.ID,
		JobName:  run.JobName,
		Params:   req.Params,
		Token:    token,
		Session:  session,
		Progress: tracker,
	}

	bodyCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan bodyOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Job %s (run %d) panicked: %v\n%s", run.JobName, run.ID, r, debug.Stack())
				done <- bodyOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := req.Body(bodyCtx, jc)
		done <- bodyOutcome{result: res, err: err}
	}()

	var out bodyOutcome
	timedOut := false
	select {
	case out = <-done:
		// A body that returns its context's error lost the same race the select would have reported.
		switch {
		case out.err == nil:
		case errors.Is(out.err, context.Canceled) && ctx.Err() != nil:
			out = bodyOutcome{err: &cancellation.Cancelled{RunID: run.ID, Reason: ReasonShutdown}}
		case errors.Is(out.err, context.DeadlineExceeded) && errors.Is(bodyCtx.Err(), context.DeadlineExceeded):
			timedOut = true
		}
	case <-bodyCtx.Done():
		// The body is abandoned; it observes the cancelled context at its next upstream call.
		if ctx.Err() != nil {
			out = bodyOutcome{err: &cancellation.Cancelled{RunID: run.ID, Reason: ReasonShutdown}}
		} else {
			timedOut = true
			out = bodyOutcome{err: ErrTimeout}
		}
	}

	e.finalize(context.WithoutCancel(ctx), run, jc, out, timedOut)
}

func (e *Executor) finalize(ctx context.Context, run *model.Run, jc *Context, out bodyOutcome, timedOut bool) {
	status, message, items := e.classify(run, jc, out, timedOut)

	persisted := model.RunDetails{}
	var ended *model.Run
	if current, err := e.runs.FindByID(ctx, run.ID); err == nil {
		persisted = current.Details
		if current.Status.IsTerminal() {
			// Stopped or reclaimed by another writer: that verdict stands.
			ended = current
			status, message = current.Status, current.ErrorMessage
		}
	} else {
		logger.Warnf("Run %d: could not reload progress before finalizing: %v", run.ID, err)
	}

	if status == model.RunStatusSuccess {
		if err := jc.Session.Commit(); err != nil {
			status, message = model.RunStatusFailed, err.Error()
		}
	}
	if status != model.RunStatusSuccess {
		if rolled, err := jc.Session.Rollback(); err != nil {
			logger.Errorf("Run %d: rollback failed: %v", run.ID, err)
		} else if rolled {
			jc.Progress.Logf("Rolled back uncommitted changes")
		}
		e.tracer.RecordError(ctx, "executor", errors.New(message))
	}

	if status == model.RunStatusSuccess {
		jc.Progress.Logf("Completed: %d items updated", items)
	} else {
		jc.Progress.Logf("Failed: %s", message)
	}
	jc.Progress.Set(MetricItemsUpdated, items)

	run.ItemsUpdated = items
	run.Details = model.MergeDetails(persisted, jc.Progress.Snapshot())
	countOutcome := run.JobID != 0
	if ended != nil {
		run.Status = ended.Status
		run.ErrorMessage = ended.ErrorMessage
		run.CompletedAt = ended.CompletedAt
		run.DurationSeconds = ended.DurationSeconds
		// The sweeper already counted the runs it reclaimed.
		countOutcome = countOutcome && ended.ErrorMessage != model.MsgStuckReclaimed
	} else {
		run.Finish(status, message, e.now())
		if timedOut {
			run.SetDuration(e.timeout)
		}
	}

	if err := e.runs.Finalize(ctx, run); err != nil {
		logger.Errorf("Run %d (%s): failed to persist final state: %v", run.ID, run.JobName, err)
	}
	if countOutcome {
		if err := e.jobs.RecordOutcome(ctx, run.JobID, run.Status == model.RunStatusSuccess, &run.StartedAt); err != nil {
			logger.Errorf("Job %s: failed to update run counters: %v", run.JobName, err)
		}
	}

	for _, l := range e.listeners {
		l.AfterRun(ctx, run)
	}
}

// classify maps a body outcome onto the run's terminal status, error message and item count.
func (e *Executor) classify(run *model.Run, jc *Context, out bodyOutcome, timedOut bool) (model.RunStatus, string, int) {
	items := jc.Progress.Count(MetricItemsUpdated)
	switch {
	case timedOut:
		return model.RunStatusFailed, fmt.Sprintf("Job timed out after %d seconds", int64(e.timeout/time.Second)), items
	case out.err != nil:
		if c, ok := cancellation.AsCancelled(out.err); ok {
			reason := c.Reason
			if reason == "" {
				reason = "Job cancelled by user"
			}
			return model.RunStatusFailed, reason, items
		}
		logger.Errorf("Job %s (run %d) failed: %v", run.JobName, run.ID, out.err)
		return model.RunStatusFailed, out.err.Error(), items
	}

	// A stop that arrived after the body's last checkpoint still decides the outcome.
	if err := jc.Token.Check(); err != nil {
		c, _ := cancellation.AsCancelled(err)
		return model.RunStatusFailed, c.Reason, out.result.ItemsUpdated
	}

	res := out.result
	items = res.ItemsUpdated
	if res.Status == model.RunStatusFailed {
		msg := res.Error
		if msg == "" {
			msg = model.MsgUnknownFailure
		}
		return model.RunStatusFailed, msg, items
	}
	return model.RunStatusSuccess, "", items
}
