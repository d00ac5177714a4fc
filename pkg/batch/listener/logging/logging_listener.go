// Package logging provides a RunListener that writes one structured line per run transition.
package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// LoggingRunListener logs run start and end with run_id and job fields.
type LoggingRunListener struct {
	base *zap.SugaredLogger
}

// NewLoggingRunListener returns a listener writing to the process logger.
func NewLoggingRunListener() *LoggingRunListener {
	return &LoggingRunListener{}
}

// NewLoggingRunListenerTo returns a listener writing to base.
func NewLoggingRunListenerTo(base *zap.SugaredLogger) *LoggingRunListener {
	return &LoggingRunListener{base: base}
}

func (l *LoggingRunListener) log(keysAndValues ...interface{}) *zap.SugaredLogger {
	if l.base != nil {
		return l.base.With(keysAndValues...)
	}
	return logger.With(keysAndValues...)
}

func (l *LoggingRunListener) BeforeRun(ctx context.Context, run *model.Run) {
	l.log("run_id", run.ID, "job", run.JobName, "trigger", string(run.TriggeredBy)).
		Infof("Run started")
}

// AfterRun logs failed runs at warn level with their error message.
func (l *LoggingRunListener) AfterRun(ctx context.Context, run *model.Run) {
	fields := []interface{}{"run_id", run.ID, "job", run.JobName, "status", string(run.Status), "items_updated", run.ItemsUpdated}
	if run.DurationSeconds != nil {
		fields = append(fields, "duration_seconds", *run.DurationSeconds)
	}
	if run.Status == model.RunStatusFailed {
		l.log(append(fields, "error", run.ErrorMessage)...).Warnf("Run failed")
		return
	}
	l.log(fields...).Infof("Run finished")
}

var _ job.RunListener = (*LoggingRunListener)(nil)
