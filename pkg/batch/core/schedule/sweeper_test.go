package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/inmemory"
)

var repositoryFilterAll = repository.RunFilter{}

type countingRecorder struct {
	reclaimed int
}

func (r *countingRecorder) RecordRunStart(context.Context, *model.Run) {}
func (r *countingRecorder) RecordRunEnd(context.Context, *model.Run)   {}
func (r *countingRecorder) RecordReconcile(context.Context, model.EntityKind, string, bool) {
}
func (r *countingRecorder) RecordUpstreamCall(context.Context, string, string, time.Duration) {}
func (r *countingRecorder) RecordStuckReclaimed(_ context.Context, n int)                     { r.reclaimed += n }

func TestSweeper_ReclaimsStuckRuns(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	store := inmemory.NewStore()
	registry := cancellation.NewRegistry()
	recorder := &countingRecorder{}

	def, err := store.JobDefinitions().Register(ctx, &model.JobDefinition{Name: "update_finished_games", Schedule: "every 2h", IsActive: true})
	require.NoError(t, err)

	stuck := model.NewRun("update_finished_games", def.ID, model.TriggerScheduled, now.Add(-2*time.Hour))
	require.NoError(t, store.Runs().Create(ctx, stuck))
	orphan := model.NewRun("update_schedules", 0, model.TriggerManual, now.Add(-90*time.Minute))
	require.NoError(t, store.Runs().Create(ctx, orphan))
	fresh := model.NewRun("update_finished_games", def.ID, model.TriggerScheduled, now.Add(-10*time.Minute))
	require.NoError(t, store.Runs().Create(ctx, fresh))
	token := registry.Obtain(stuck.ID)

	sweeper := NewSweeper(store.Runs(), store.JobDefinitions(), registry,
		WithSweepClock(func() time.Time { return now }), WithRecorder(recorder))
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, recorder.reclaimed)

	got, err := store.Runs().FindByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, model.MsgStuckReclaimed, got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(now))
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, int64(7200), *got.DurationSeconds)
	require.NotEmpty(t, got.Details.Log)
	assert.Equal(t, model.MsgStuckReclaimed, got.Details.Log[len(got.Details.Log)-1].Message)

	assert.True(t, token.IsCancelled())
	assert.Equal(t, model.ReasonStuckCleanup, token.Reason())
	_, ok := registry.Lookup(stuck.ID)
	assert.False(t, ok)

	stillRunning, err := store.Runs().FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, stillRunning.Status)

	job, err := store.JobDefinitions().FindByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), job.FailedRuns)
	assert.Equal(t, int64(1), job.TotalRuns)
	assert.Nil(t, job.LastRunAt)

	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a reclaimed run is never reclaimed twice")
}

func TestSweeper_StartSweepsImmediately(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := inmemory.NewStore()
	run := model.NewRun("update_schedules", 0, model.TriggerManual, now.Add(-3*time.Hour))
	require.NoError(t, store.Runs().Create(ctx, run))

	sweeper := NewSweeper(store.Runs(), store.JobDefinitions(), cancellation.NewRegistry(),
		WithInterval(time.Hour), WithThreshold(time.Hour))
	sweeper.Start(ctx)
	defer sweeper.Stop()

	got, err := store.Runs().FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, time.Hour, sweeper.Threshold())
}

func TestSweeper_KeepsSweepingOnInterval(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	sweeper := NewSweeper(store.Runs(), store.JobDefinitions(), cancellation.NewRegistry(),
		WithInterval(time.Second), WithThreshold(time.Hour))
	sweeper.Start(ctx)
	defer sweeper.Stop()

	late := model.NewRun("update_team_results", 0, model.TriggerManual, time.Now().Add(-2*time.Hour))
	require.NoError(t, store.Runs().Create(ctx, late))

	require.Eventually(t, func() bool {
		got, err := store.Runs().FindByID(ctx, late.ID)
		return err == nil && got.Status == model.RunStatusFailed
	}, 5*time.Second, 50*time.Millisecond, "a run that got stuck after startup is reclaimed by a later sweep")

	sweeper.Stop()
	sweeper.Stop()
}
