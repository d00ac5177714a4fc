package metrics

import (
	"context"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// Tracer opens spans around runs and annotates them.
type Tracer interface {
	// StartRunSpan starts a span for run and returns the derived context and a func ending it.
	StartRunSpan(ctx context.Context, run *model.Run) (context.Context, func())
	// RecordError attaches err to the span carried by ctx.
	RecordError(ctx context.Context, module string, err error)
	// RecordEvent adds a named event to the span carried by ctx.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}

// NoOpTracer traces nothing.
type NoOpTracer struct{}

// NewNoOpTracer returns a tracer that traces nothing.
func NewNoOpTracer() *NoOpTracer { return &NoOpTracer{} }

func (*NoOpTracer) StartRunSpan(ctx context.Context, _ *model.Run) (context.Context, func()) {
	return ctx, func() {}
}
func (*NoOpTracer) RecordError(context.Context, string, error)                    {}
func (*NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}

var _ Tracer = (*NoOpTracer)(nil)
