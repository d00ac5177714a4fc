package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
)

// mockRunRepository records UpdateDetails calls; the other methods are not used here.
type mockRunRepository struct {
	mock.Mock
	repository.RunRepository
}

func (m *mockRunRepository) UpdateDetails(ctx context.Context, id uint, details model.RunDetails) error {
	_, inTx := tx.FromContext(ctx)
	return m.Called(id, details, inTx).Error(0)
}

type fakeTx struct{}

func (fakeTx) Unwrap() interface{} { return nil }

func TestReporter_WritesOutsideTransaction(t *testing.T) {
	runs := new(mockRunRepository)
	runs.On("UpdateDetails", uint(9), mock.Anything, false).Return(nil).Once()

	ctx := tx.WithTx(context.Background(), fakeTx{})
	assert.True(t, NewReporter(runs).Report(ctx, 9, model.RunDetails{}))
	runs.AssertExpectations(t)
}

func TestReporter_SwallowsFailures(t *testing.T) {
	runs := new(mockRunRepository)
	runs.On("UpdateDetails", uint(9), mock.Anything, false).Return(errors.New("database is locked"))

	assert.False(t, NewReporter(runs).Report(context.Background(), 9, model.RunDetails{}))
}

func TestTracker_AccumulatesAndFlushesEveryN(t *testing.T) {
	at := time.Date(2025, 11, 5, 8, 30, 0, 0, time.UTC)
	runs := new(mockRunRepository)
	runs.On("UpdateDetails", uint(4), mock.Anything, false).Return(nil)

	tr := NewTracker(NewReporter(runs), 4, "update_schedules", FlushEvery(2), WithTrackerClock(func() time.Time { return at }))
	tr.SetParams(model.TriggerParams{Force: true})
	tr.Logf("Checking %d teams", 30)
	tr.Add("teams_checked", 1)
	tr.Add("teams_checked", 2)
	tr.Set("phase", "schedules")
	tr.Error("team BOS", errors.New("upstream timeout"))

	ctx := context.Background()
	tr.Tick(ctx)
	runs.AssertNumberOfCalls(t, "UpdateDetails", 0)
	tr.Tick(ctx)
	runs.AssertNumberOfCalls(t, "UpdateDetails", 1)

	snap := tr.Snapshot()
	require.Len(t, snap.Log, 2)
	assert.Equal(t, "Checking 30 teams", snap.Log[0].Message)
	assert.Equal(t, "ERROR team BOS: upstream timeout", snap.Log[1].Message)
	assert.Equal(t, []string{"team BOS: upstream timeout"}, snap.Errors)
	assert.Equal(t, 3, snap.Metrics["teams_checked"])
	assert.Equal(t, "schedules", snap.Metrics["phase"])
	assert.True(t, snap.Params.Force)
	assert.Equal(t, 1, tr.ErrorCount())
	assert.Equal(t, 3, tr.Count("teams_checked"))

	// The snapshot is detached from the tracker.
	snap.Metrics["teams_checked"] = 100
	assert.Equal(t, 3, tr.Count("teams_checked"))
}

func TestTracker_NotifiesWhenRunEndedElsewhere(t *testing.T) {
	runs := new(mockRunRepository)
	runs.On("UpdateDetails", uint(6), mock.Anything, false).Return(nil).Once()
	runs.On("UpdateDetails", uint(6), mock.Anything, false).Return(repository.ErrRunNotRunning)

	ended := 0
	tr := NewTracker(NewReporter(runs), 6, "update_finished_games", OnRunEnded(func() { ended++ }))
	ctx := context.Background()

	assert.True(t, tr.Flush(ctx))
	assert.Zero(t, ended)
	assert.False(t, tr.Flush(ctx))
	assert.Equal(t, 1, ended)
}

func TestTracker_OrdinaryFailureDoesNotEndRun(t *testing.T) {
	runs := new(mockRunRepository)
	runs.On("UpdateDetails", uint(6), mock.Anything, false).Return(errors.New("database is locked"))

	ended := false
	tr := NewTracker(NewReporter(runs), 6, "update_finished_games", OnRunEnded(func() { ended = true }))
	assert.False(t, tr.Flush(context.Background()))
	assert.False(t, ended)
}
