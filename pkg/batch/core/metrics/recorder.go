// Package metrics defines the observability ports of the sync core.
package metrics

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// MetricRecorder records run lifecycle and sync counters.
type MetricRecorder interface {
	// RecordRunStart is called once a run has been persisted as running.
	RecordRunStart(ctx context.Context, run *model.Run)
	// RecordRunEnd is called after a run has been finalized.
	RecordRunEnd(ctx context.Context, run *model.Run)
	// RecordReconcile counts one reconciliation decision for an entity kind.
	RecordReconcile(ctx context.Context, kind model.EntityKind, action string, changed bool)
	// RecordUpstreamCall counts one upstream call and its latency. Outcome is "ok", "retry" or "error".
	RecordUpstreamCall(ctx context.Context, operation, outcome string, latency time.Duration)
	// RecordStuckReclaimed counts runs reclaimed by the stuck-run sweep.
	RecordStuckReclaimed(ctx context.Context, count int)
}

// NoOpMetricRecorder discards everything.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder returns a recorder that discards everything.
func NewNoOpMetricRecorder() *NoOpMetricRecorder { return &NoOpMetricRecorder{} }

func (*NoOpMetricRecorder) RecordRunStart(context.Context, *model.Run) {}
func (*NoOpMetricRecorder) RecordRunEnd(context.Context, *model.Run)   {}
func (*NoOpMetricRecorder) RecordReconcile(context.Context, model.EntityKind, string, bool) {
}
func (*NoOpMetricRecorder) RecordUpstreamCall(context.Context, string, string, time.Duration) {}
func (*NoOpMetricRecorder) RecordStuckReclaimed(context.Context, int)                         {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)
