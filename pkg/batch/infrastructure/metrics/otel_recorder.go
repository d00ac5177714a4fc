package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

// OTelRecorder mirrors the run and upstream counters onto OpenTelemetry instruments.
type OTelRecorder struct {
	runs            metric.Int64Counter
	runDuration     metric.Float64Histogram
	itemsUpdated    metric.Int64Counter
	upstreamCalls   metric.Int64Counter
	upstreamLatency metric.Float64Histogram
	stuckReclaimed  metric.Int64Counter
}

// NewOTelRecorder creates the instruments on a meter of mp.
func NewOTelRecorder(mp metric.MeterProvider) (*OTelRecorder, error) {
	m := mp.Meter(InstrumentationName)
	r := &OTelRecorder{}
	var err error
	if r.runs, err = m.Int64Counter("boxscore.runs", metric.WithDescription("Finished job runs.")); err != nil {
		return nil, err
	}
	if r.runDuration, err = m.Float64Histogram("boxscore.run.duration", metric.WithUnit("s"),
		metric.WithDescription("Duration of job runs.")); err != nil {
		return nil, err
	}
	if r.itemsUpdated, err = m.Int64Counter("boxscore.items_updated", metric.WithDescription("Records changed by job runs.")); err != nil {
		return nil, err
	}
	if r.upstreamCalls, err = m.Int64Counter("boxscore.upstream.requests", metric.WithDescription("Upstream calls.")); err != nil {
		return nil, err
	}
	if r.upstreamLatency, err = m.Float64Histogram("boxscore.upstream.duration", metric.WithUnit("s"),
		metric.WithDescription("Latency of upstream calls.")); err != nil {
		return nil, err
	}
	if r.stuckReclaimed, err = m.Int64Counter("boxscore.stuck_runs_reclaimed", metric.WithDescription("Runs reclaimed by the sweep.")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OTelRecorder) RecordRunStart(context.Context, *model.Run) {}

func (r *OTelRecorder) RecordRunEnd(ctx context.Context, run *model.Run) {
	job := attribute.String("job", run.JobName)
	status := attribute.String("status", string(run.Status))
	r.runs.Add(ctx, 1, metric.WithAttributes(job, status, attribute.String("trigger", string(run.TriggeredBy))))
	if run.DurationSeconds != nil {
		r.runDuration.Record(ctx, float64(*run.DurationSeconds), metric.WithAttributes(job, status))
	}
	if run.ItemsUpdated > 0 {
		r.itemsUpdated.Add(ctx, int64(run.ItemsUpdated), metric.WithAttributes(job))
	}
}

func (r *OTelRecorder) RecordReconcile(context.Context, model.EntityKind, string, bool) {}

func (r *OTelRecorder) RecordUpstreamCall(ctx context.Context, operation, outcome string, latency time.Duration) {
	op := attribute.String("operation", operation)
	r.upstreamCalls.Add(ctx, 1, metric.WithAttributes(op, attribute.String("outcome", outcome)))
	r.upstreamLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(op))
}

func (r *OTelRecorder) RecordStuckReclaimed(ctx context.Context, count int) {
	if count > 0 {
		r.stuckReclaimed.Add(ctx, int64(count))
	}
}

var _ metrics.MetricRecorder = (*OTelRecorder)(nil)

// MultiRecorder forwards every call to each of its recorders.
type MultiRecorder []metrics.MetricRecorder

func (m MultiRecorder) RecordRunStart(ctx context.Context, run *model.Run) {
	for _, r := range m {
		r.RecordRunStart(ctx, run)
	}
}

func (m MultiRecorder) RecordRunEnd(ctx context.Context, run *model.Run) {
	for _, r := range m {
		r.RecordRunEnd(ctx, run)
	}
}

func (m MultiRecorder) RecordReconcile(ctx context.Context, kind model.EntityKind, action string, changed bool) {
	for _, r := range m {
		r.RecordReconcile(ctx, kind, action, changed)
	}
}

func (m MultiRecorder) RecordUpstreamCall(ctx context.Context, operation, outcome string, latency time.Duration) {
	for _, r := range m {
		r.RecordUpstreamCall(ctx, operation, outcome, latency)
	}
}

func (m MultiRecorder) RecordStuckReclaimed(ctx context.Context, count int) {
	for _, r := range m {
		r.RecordStuckReclaimed(ctx, count)
	}
}

var _ metrics.MetricRecorder = MultiRecorder(nil)
