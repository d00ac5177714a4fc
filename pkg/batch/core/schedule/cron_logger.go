package schedule

import (
	"github.com/robfig/cron/v3"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// cronLogger routes robfig/cron's own logging into the process logger.
// Cron's informational lines (wake, run, schedule) are demoted to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Debugw("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Errorw("cron: "+msg, "error", err)
}

var _ cron.Logger = cronLogger{}
