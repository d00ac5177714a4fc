// Package metrics implements the observability ports with Prometheus and OpenTelemetry.
package metrics

import (
	"context"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

func newTelemetry(lc fx.Lifecycle, cfg *config.TelemetryConfig) (*Telemetry, error) {
	t, err := NewTelemetry(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: t.Shutdown})
	return t, nil
}

func newRecorder(prom *PrometheusRecorder, t *Telemetry) (metrics.MetricRecorder, error) {
	otelRecorder, err := NewOTelRecorder(t.MeterProvider)
	if err != nil {
		return nil, err
	}
	return MultiRecorder{prom, otelRecorder}, nil
}

func newTracer(t *Telemetry) metrics.Tracer {
	return NewOpenTelemetryTracer(t.TracerProvider)
}

// Module provides the Prometheus recorder, the OpenTelemetry providers and the
// MetricRecorder and Tracer ports built on them.
var Module = fx.Options(
	fx.Provide(
		NewPrometheusRecorder,
		newTelemetry,
		newRecorder,
		newTracer,
	),
)
