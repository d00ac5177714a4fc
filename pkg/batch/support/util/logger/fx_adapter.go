package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes fx lifecycle events into this package's logger.
// Wiring detail is DEBUG; hook and start failures are ERROR.
type FxLoggerAdapter struct {
	log func() *zap.SugaredLogger
}

// NewFxLoggerAdapter creates an adapter that tags every line with component=fx.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{log: func() *zap.SugaredLogger { return With("component", "fx") }}
}

// LogEvent implements fxevent.Logger.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	log := l.log()
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			log.Errorw("Start hook failed", "hook", hookName(e.FunctionName), "caller", hookName(e.CallerName), "error", e.Err)
			return
		}
		log.Debugw("Start hook executed", "hook", hookName(e.FunctionName), "runtime", e.Runtime)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			log.Errorw("Stop hook failed", "hook", hookName(e.FunctionName), "error", e.Err)
			return
		}
		log.Debugw("Stop hook executed", "hook", hookName(e.FunctionName), "runtime", e.Runtime)
	case *fxevent.Provided:
		if e.Err != nil {
			log.Errorw("Provide failed", "constructor", hookName(e.ConstructorName), "error", e.Err)
			return
		}
		log.Debugw("Provided", "constructor", hookName(e.ConstructorName), "types", e.OutputTypeNames)
	case *fxevent.Supplied:
		if e.Err != nil {
			log.Errorw("Supply failed", "type", e.TypeName, "error", e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			log.Errorw("Invoke failed", "function", hookName(e.FunctionName), "error", e.Err)
		}
	case *fxevent.Stopping:
		log.Infow("Signal received, stopping", "signal", strings.ToUpper(e.Signal.String()))
	case *fxevent.RollingBack:
		log.Errorw("Start failed, rolling back", "error", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			log.Errorw("Rollback failed", "error", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			log.Errorw("Start failed", "error", e.Err)
			return
		}
		log.Debugw("Application graph started")
	case *fxevent.Stopped:
		if e.Err != nil {
			log.Errorw("Stop failed", "error", e.Err)
		}
	}
}

// hookName trims the package path and the closure suffix fx reports, so
// "github.com/x/app.newScheduler.func1" becomes "app.newScheduler".
func hookName(name string) string {
	if i := strings.Index(name, ".func"); i > 0 {
		name = name[:i]
	}
	return name[strings.LastIndex(name, "/")+1:]
}
