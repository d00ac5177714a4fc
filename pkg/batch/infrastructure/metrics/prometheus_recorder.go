package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

// PrometheusRecorder is the Prometheus implementation of metrics.MetricRecorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDuration     *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	runsInFlight    *prometheus.GaugeVec
	itemsUpdated    *prometheus.CounterVec
	reconcileTotal  *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	stuckReclaimed  prometheus.Counter
}

// NewPrometheusRecorder creates a recorder backed by its own registry, which also
// carries the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxscore_run_duration_seconds",
			Help:    "Duration of job runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"job", "status"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxscore_runs_total",
			Help: "Finished job runs by status and trigger.",
		}, []string{"job", "status", "trigger"}),
		runsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "boxscore_runs_in_flight",
			Help: "Runs currently executing.",
		}, []string{"job"}),
		itemsUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxscore_items_updated_total",
			Help: "Records changed by job runs.",
		}, []string{"job"}),
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxscore_reconcile_decisions_total",
			Help: "Reconciliation decisions by entity kind and action.",
		}, []string{"kind", "action", "changed"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxscore_upstream_requests_total",
			Help: "Upstream calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxscore_upstream_request_duration_seconds",
			Help:    "Latency of upstream calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		stuckReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boxscore_stuck_runs_reclaimed_total",
			Help: "Runs marked failed by the stuck-run sweep.",
		}),
	}
	registry.MustRegister(
		r.runDuration,
		r.runsTotal,
		r.runsInFlight,
		r.itemsUpdated,
		r.reconcileTotal,
		r.upstreamTotal,
		r.upstreamLatency,
		r.stuckReclaimed,
	)
	return r
}

// Registry returns the registry the recorder writes to.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RecordRunStart(_ context.Context, run *model.Run) {
	r.runsInFlight.WithLabelValues(run.JobName).Inc()
}

func (r *PrometheusRecorder) RecordRunEnd(_ context.Context, run *model.Run) {
	r.runsInFlight.WithLabelValues(run.JobName).Dec()
	status := string(run.Status)
	r.runsTotal.WithLabelValues(run.JobName, status, string(run.TriggeredBy)).Inc()
	if run.DurationSeconds != nil {
		r.runDuration.WithLabelValues(run.JobName, status).Observe(float64(*run.DurationSeconds))
	}
	if run.ItemsUpdated > 0 {
		r.itemsUpdated.WithLabelValues(run.JobName).Add(float64(run.ItemsUpdated))
	}
}

func (r *PrometheusRecorder) RecordReconcile(_ context.Context, kind model.EntityKind, action string, changed bool) {
	c := "false"
	if changed {
		c = "true"
	}
	r.reconcileTotal.WithLabelValues(string(kind), action, c).Inc()
}

func (r *PrometheusRecorder) RecordUpstreamCall(_ context.Context, operation, outcome string, latency time.Duration) {
	r.upstreamTotal.WithLabelValues(operation, outcome).Inc()
	r.upstreamLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

func (r *PrometheusRecorder) RecordStuckReclaimed(_ context.Context, count int) {
	if count > 0 {
		r.stuckReclaimed.Add(float64(count))
	}
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
