package gorm

import (
	"fmt"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// SlowQueryThreshold is the duration above which gorm reports a query as slow.
const SlowQueryThreshold = 200 * time.Millisecond

// NewGormLogger creates a gorm logger for the application log level.
// SQL statements are only traced at DEBUG.
func NewGormLogger(level string) gormlogger.Interface {
	var gormLevel gormlogger.LogLevel
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelDebug:
		gormLevel = gormlogger.Info
	case config.LogLevelInfo, config.LogLevelWarn:
		gormLevel = gormlogger.Warn
	case config.LogLevelError:
		gormLevel = gormlogger.Error
	default:
		gormLevel = gormlogger.Silent
	}

	return gormlogger.New(
		NewGormWriter(),
		gormlogger.Config{
			SlowThreshold:             SlowQueryThreshold,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects gorm log output to the application logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// Printf implements gormlogger.Writer.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	switch {
	case strings.Contains(msg, "SLOW SQL"):
		logger.Warnf("[GORM] %s", msg)
	case isStatement(msg):
		logger.Debugf("[GORM] %s", msg)
	default:
		logger.Infof("[GORM] %s", msg)
	}
}

func isStatement(msg string) bool {
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.Contains(msg, verb) {
			return true
		}
	}
	return false
}
