package logging

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
)

// Module provides the logging RunListener in the run_listeners group.
var Module = fx.Provide(
	fx.Annotate(
		func() job.RunListener { return NewLoggingRunListener() },
		fx.ResultTags(`group:"run_listeners"`),
	),
)
