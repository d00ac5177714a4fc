package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

func TestLoggingRunListener(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggingRunListenerTo(zap.New(core).Sugar())

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	run := model.NewRun("update_schedules", 3, model.TriggerManual, start)
	run.ID = 42

	ctx := context.Background()
	l.BeforeRun(ctx, run)
	run.ItemsUpdated = 5
	run.Finish(model.RunStatusFailed, "All 30 teams failed", start.Add(time.Minute))
	l.AfterRun(ctx, run)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "Run started", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, uint64(42), entries[0].ContextMap()["run_id"])

	assert.Equal(t, "Run failed", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	fields := entries[1].ContextMap()
	assert.Equal(t, "update_schedules", fields["job"])
	assert.Equal(t, "All 30 teams failed", fields["error"])
	assert.Equal(t, int64(60), fields["duration_seconds"])
}
