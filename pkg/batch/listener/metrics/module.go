package metrics

import (
	"context"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

// NewAsyncRecorder wraps recorder in an AsyncMetricRecorder that is drained on stop.
func NewAsyncRecorder(lc fx.Lifecycle, recorder metrics.MetricRecorder) *AsyncMetricRecorder {
	async := NewAsyncMetricRecorder(DefaultBufferSize, recorder)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			async.Close()
			return nil
		},
	})
	return async
}

func newListener(async *AsyncMetricRecorder) job.RunListener {
	return NewMetricsRunListener(async)
}

// Module provides the metrics RunListener in the run_listeners group.
var Module = fx.Options(
	fx.Provide(
		NewAsyncRecorder,
		fx.Annotate(newListener, fx.ResultTags(`group:"run_listeners"`)),
	),
)
