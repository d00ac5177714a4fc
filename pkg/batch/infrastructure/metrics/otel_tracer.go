package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

// InstrumentationName names the tracer and meter of this service.
const InstrumentationName = "github.com/giorgioGunawan/boxscore-backend"

// OpenTelemetryTracer implements metrics.Tracer with one span per run.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer returns a tracer drawing spans from tp.
func NewOpenTelemetryTracer(tp trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: tp.Tracer(InstrumentationName)}
}

// StartRunSpan opens "run.execute". The returned func reads the run's terminal
// state when it is called, so it must run after the run is finalized.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, run *model.Run) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "run.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("job.name", run.JobName),
			attribute.Int64("run.id", int64(run.ID)),
			attribute.String("run.trigger", string(run.TriggeredBy)),
		),
	)
	return ctx, func() {
		span.SetAttributes(
			attribute.String("run.status", string(run.Status)),
			attribute.Int("run.items_updated", run.ItemsUpdated),
		)
		if run.Status == model.RunStatusFailed {
			span.SetStatus(codes.Error, run.ErrorMessage)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
}

func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
