package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/inmemory"
)

type countingTx struct{}

func (countingTx) Unwrap() interface{} { return nil }

// countingTxManager counts commits and rollbacks.
type countingTxManager struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (m *countingTxManager) Begin(context.Context, ...*sql.TxOptions) (tx.Tx, error) {
	return countingTx{}, nil
}

func (m *countingTxManager) Commit(tx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	return nil
}

func (m *countingTxManager) Rollback(tx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks++
	return nil
}

type recordingListener struct {
	mu     sync.Mutex
	before []uint
	after  []model.RunStatus
}

func (l *recordingListener) BeforeRun(_ context.Context, run *model.Run) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.before = append(l.before, run.ID)
}

func (l *recordingListener) AfterRun(_ context.Context, run *model.Run) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.after = append(l.after, run.Status)
}

type fixture struct {
	store    *inmemory.Store
	registry *cancellation.Registry
	txm      *countingTxManager
	listener *recordingListener
	exec     *Executor
	jobID    uint
}

func newFixture(t *testing.T, opts ...ExecutorOption) *fixture {
	t.Helper()
	f := &fixture{
		store:    inmemory.NewStore(),
		registry: cancellation.NewRegistry(),
		txm:      &countingTxManager{},
		listener: &recordingListener{},
	}
	def, err := f.store.JobDefinitions().Register(context.Background(), &model.JobDefinition{Name: "sync_scores", Schedule: model.ManualSchedule})
	require.NoError(t, err)
	f.jobID = def.ID
	f.exec = NewExecutor(ExecutorDeps{
		Jobs:      f.store.JobDefinitions(),
		Runs:      f.store.Runs(),
		Registry:  f.registry,
		TxManager: f.txm,
		Listeners: []RunListener{f.listener},
	}, opts...)
	return f
}

func (f *fixture) job(t *testing.T) *model.JobDefinition {
	def, err := f.store.JobDefinitions().FindByID(context.Background(), f.jobID)
	require.NoError(t, err)
	return def
}

func TestExecutor_Success(t *testing.T) {
	f := newFixture(t)
	body := func(ctx context.Context, jc *Context) (Result, error) {
		if _, err := jc.Session.Begin(ctx); err != nil {
			return Result{}, err
		}
		jc.Progress.Logf("Updated 3 games")
		jc.Progress.Flush(ctx)
		return Result{ItemsUpdated: 3}, nil
	}

	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Body: body, Origin: model.TriggerScheduled})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.ItemsUpdated)
	assert.Empty(t, run.ErrorMessage)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, f.jobID, run.JobID)
	assert.Equal(t, 1, f.txm.commits, "pending batch is committed on success")
	assert.Zero(t, f.txm.rollbacks)
	assert.Zero(t, f.registry.Len(), "token released")

	def := f.job(t)
	assert.Equal(t, int64(1), def.TotalRuns)
	assert.Equal(t, int64(1), def.SuccessfulRuns)
	require.NotNil(t, def.LastRunAt)
	assert.True(t, def.LastRunAt.Equal(run.StartedAt))

	stored, err := f.store.Runs().FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	var lines []string
	for _, e := range stored.Details.Log {
		lines = append(lines, e.Message)
	}
	assert.Contains(t, lines, "Updated 3 games")
	assert.Equal(t, "Completed: 3 items updated", lines[len(lines)-1])
	assert.Equal(t, []model.RunStatus{model.RunStatusSuccess}, f.listener.after)
}

func TestExecutor_ManualRunIsNotBackedByDefinition(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{
		JobName: "sync_scores",
		Origin:  model.TriggerManual,
		Params:  model.TriggerParams{HoursBack: 24},
		Body:    func(context.Context, *Context) (Result, error) { return Result{}, nil },
	})
	require.NoError(t, err)
	assert.Zero(t, run.JobID)
	assert.Equal(t, model.TriggerManual, run.TriggeredBy)
	assert.Equal(t, 24, run.Details.Params.HoursBack)
	assert.Zero(t, f.job(t).TotalRuns)
}

func TestExecutor_BodyReportsFailure(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled,
		Body: func(context.Context, *Context) (Result, error) { return Result{Status: model.RunStatusFailed}, nil }})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, model.MsgUnknownFailure, run.ErrorMessage)
	assert.Equal(t, int64(1), f.job(t).FailedRuns)
}

func TestExecutor_ErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled,
		Body: func(ctx context.Context, jc *Context) (Result, error) {
			_, _ = jc.Session.Begin(ctx)
			jc.Progress.Add(MetricItemsUpdated, 2)
			return Result{}, errors.New("standings payload malformed")
		}})
	require.NoError(t, err, "body errors never propagate")
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "standings payload malformed", run.ErrorMessage)
	assert.Equal(t, 2, run.ItemsUpdated)
	assert.Equal(t, 1, f.txm.rollbacks)
	assert.Zero(t, f.txm.commits)
}

func TestExecutor_Panic(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual,
		Body: func(context.Context, *Context) (Result, error) { panic("boom") }})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "panic: boom", run.ErrorMessage)
}

func TestExecutor_CancellationAtCheckpoint(t *testing.T) {
	f := newFixture(t)
	started := make(chan uint, 1)
	body := func(ctx context.Context, jc *Context) (Result, error) {
		_, _ = jc.Session.Begin(ctx)
		started <- jc.RunID
		for {
			if err := jc.Checkpoint(); err != nil {
				return Result{}, err
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	done := make(chan *model.Run, 1)
	go func() {
		run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled, Body: body})
		assert.NoError(t, err)
		done <- run
	}()

	runID := <-started
	assert.True(t, f.registry.Cancel(runID, "Stopped by user"))

	select {
	case run := <-done:
		require.NotNil(t, run)
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.Equal(t, "Stopped by user", run.ErrorMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not observe cancellation")
	}
	assert.Equal(t, 1, f.txm.rollbacks)
	_, ok := f.registry.Lookup(runID)
	assert.False(t, ok)
	assert.False(t, f.registry.Obtain(runID).IsCancelled(), "a fresh token after release")
}

func TestExecutor_Timeout(t *testing.T) {
	f := newFixture(t, WithTimeout(time.Second))
	release := make(chan struct{})
	defer close(release)

	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled,
		Body: func(ctx context.Context, jc *Context) (Result, error) {
			_, _ = jc.Session.Begin(ctx)
			<-release
			return Result{}, nil
		}})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "Job timed out after 1 seconds", run.ErrorMessage)
	require.NotNil(t, run.CompletedAt)
	require.NotNil(t, run.DurationSeconds)
	assert.Equal(t, int64(1), *run.DurationSeconds)
	assert.Equal(t, 1, f.txm.rollbacks)

	stored, err := f.store.Runs().FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, stored.Status)
}

func TestExecutor_ScheduledRunNeedsActiveDefinition(t *testing.T) {
	f := newFixture(t)
	noop := func(context.Context, *Context) (Result, error) { return Result{}, nil }

	_, err := f.exec.Run(context.Background(), Request{JobName: "unknown", Origin: model.TriggerScheduled, Body: noop})
	assert.ErrorIs(t, err, ErrJobNotRegistered)

	_, err = f.store.JobDefinitions().SetActive(context.Background(), f.jobID, false)
	require.NoError(t, err)
	_, err = f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled, Body: noop})
	assert.ErrorIs(t, err, ErrJobInactive)

	_, total, err := f.store.Runs().List(context.Background(), repository.RunFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "skipped triggers create no run")
}

func TestExecutor_ReusesPreparedRun(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Prepare(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual})
	require.NoError(t, err)

	again, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", RunID: run.ID,
		Body: func(context.Context, *Context) (Result, error) { return Result{ItemsUpdated: 1}, nil }})
	require.NoError(t, err)
	assert.Equal(t, run.ID, again.ID)
	assert.Equal(t, model.RunStatusSuccess, again.Status)

	_, err = f.exec.Prepare(context.Background(), Request{RunID: run.ID})
	assert.Error(t, err, "terminal runs cannot be reused")
}

func TestExecutor_StopAfterLastCheckpointWins(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual,
		Body: func(ctx context.Context, jc *Context) (Result, error) {
			require.NoError(t, jc.Checkpoint())
			f.registry.Cancel(jc.RunID, "Stopped by user")
			return Result{ItemsUpdated: 2}, nil
		}})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "Stopped by user", run.ErrorMessage)
	assert.Equal(t, 2, run.ItemsUpdated)
}

// endInStorage finalizes runID the way a separate control process would, without touching any token.
func (f *fixture) endInStorage(t *testing.T, runID uint, message string) {
	t.Helper()
	ctx := context.Background()
	stored, err := f.store.Runs().FindByID(ctx, runID)
	require.NoError(t, err)
	stored.Details.Log = append(stored.Details.Log, model.LogEntry{At: time.Now().UTC(), Message: message})
	stored.Finish(model.RunStatusFailed, message, time.Now())
	require.NoError(t, f.store.Runs().Finalize(ctx, stored))
}

func TestExecutor_KeepsStopRecordedByAnotherProcess(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled,
		Body: func(ctx context.Context, jc *Context) (Result, error) {
			_, _ = jc.Session.Begin(ctx)
			f.endInStorage(t, jc.RunID, model.ReasonStoppedByUser)
			return Result{ItemsUpdated: 5}, nil
		}})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, model.ReasonStoppedByUser, run.ErrorMessage)
	assert.Zero(t, f.txm.commits, "a stopped run does not commit its pending batch")
	assert.Equal(t, 1, f.txm.rollbacks)

	stored, err := f.store.Runs().FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, stored.Status)
	assert.Equal(t, model.ReasonStoppedByUser, stored.ErrorMessage)

	def := f.job(t)
	assert.Equal(t, int64(1), def.TotalRuns)
	assert.Equal(t, int64(1), def.FailedRuns)
	assert.Zero(t, def.SuccessfulRuns)
}

func TestExecutor_ReclaimedRunIsNotCountedTwice(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerScheduled,
		Body: func(ctx context.Context, jc *Context) (Result, error) {
			f.endInStorage(t, jc.RunID, model.MsgStuckReclaimed)
			return Result{}, nil
		}})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, model.MsgStuckReclaimed, run.ErrorMessage)
	assert.Zero(t, f.job(t).TotalRuns, "the sweeper owns the counters of runs it reclaimed")
}

func TestExecutor_RejectedProgressCancelsBody(t *testing.T) {
	f := newFixture(t, WithProgressEvery(1))
	done := make(chan *model.Run, 1)
	started := make(chan uint, 1)
	go func() {
		run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual,
			Body: func(ctx context.Context, jc *Context) (Result, error) {
				started <- jc.RunID
				for {
					jc.Progress.Tick(ctx)
					if err := jc.Checkpoint(); err != nil {
						return Result{}, err
					}
					time.Sleep(5 * time.Millisecond)
				}
			}})
		assert.NoError(t, err)
		done <- run
	}()

	runID := <-started
	f.endInStorage(t, runID, model.ReasonStoppedByUser)

	select {
	case run := <-done:
		require.NotNil(t, run)
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.Equal(t, model.ReasonStoppedByUser, run.ErrorMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("body kept running after its run ended in storage")
	}
}

func TestExecutor_UpstreamDeadlineIsNotATimeout(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual,
		Body: func(context.Context, *Context) (Result, error) {
			return Result{}, fmt.Errorf("fetch scoreboard: %w", context.DeadlineExceeded)
		}})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "fetch scoreboard: context deadline exceeded", run.ErrorMessage)
}

func TestExecutor_StampsTraceID(t *testing.T) {
	f := newFixture(t)
	run, err := f.exec.Run(context.Background(), Request{JobName: "sync_scores", Origin: model.TriggerManual,
		Body: func(context.Context, *Context) (Result, error) { return Result{}, nil }})
	require.NoError(t, err)

	id, ok := run.Details.Metrics[MetricTraceID].(string)
	require.True(t, ok)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}
