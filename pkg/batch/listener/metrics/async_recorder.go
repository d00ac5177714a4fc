package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// DefaultBufferSize is the event queue capacity when none is given.
const DefaultBufferSize = 256

type eventType int

const (
	eventRunStart eventType = iota
	eventRunEnd
	eventReconcile
	eventUpstreamCall
	eventStuckReclaimed
)

type event struct {
	typ       eventType
	run       *model.Run
	kind      model.EntityKind
	action    string
	changed   bool
	operation string
	outcome   string
	latency   time.Duration
	count     int
}

// AsyncMetricRecorder queues events and hands them to a synchronous recorder on a
// single worker goroutine. Events are dropped with a warning when the queue is full.
type AsyncMetricRecorder struct {
	queue  chan event
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	sync   metrics.MetricRecorder
}

// NewAsyncMetricRecorder starts the worker. bufferSize <= 0 uses DefaultBufferSize.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &AsyncMetricRecorder{
		queue:  make(chan event, bufferSize),
		stopCh: make(chan struct{}),
		sync:   syncRec,
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

func (r *AsyncMetricRecorder) loop() {
	defer r.wg.Done()
	for {
		select {
		case ev := <-r.queue:
			r.process(ev)
		case <-r.stopCh:
			n := len(r.queue)
			for i := 0; i < n; i++ {
				r.process(<-r.queue)
			}
			logger.Debugf("AsyncMetricRecorder stopped after draining %d events", n)
			return
		}
	}
}

func (r *AsyncMetricRecorder) process(ev event) {
	ctx := context.Background()
	switch ev.typ {
	case eventRunStart:
		r.sync.RecordRunStart(ctx, ev.run)
	case eventRunEnd:
		r.sync.RecordRunEnd(ctx, ev.run)
	case eventReconcile:
		r.sync.RecordReconcile(ctx, ev.kind, ev.action, ev.changed)
	case eventUpstreamCall:
		r.sync.RecordUpstreamCall(ctx, ev.operation, ev.outcome, ev.latency)
	case eventStuckReclaimed:
		r.sync.RecordStuckReclaimed(ctx, ev.count)
	}
}

// Close stops the worker after it has drained the queue. It is safe to call twice.
func (r *AsyncMetricRecorder) Close() {
	r.once.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *AsyncMetricRecorder) send(ev event) {
	select {
	case r.queue <- ev:
	default:
		logger.Warnf("AsyncMetricRecorder: queue full, dropping event %d", ev.typ)
	}
}

// snapshot copies run so later mutation by the executor does not race the worker.
func snapshot(run *model.Run) *model.Run {
	cp := *run
	return &cp
}

func (r *AsyncMetricRecorder) RecordRunStart(_ context.Context, run *model.Run) {
	r.send(event{typ: eventRunStart, run: snapshot(run)})
}

func (r *AsyncMetricRecorder) RecordRunEnd(_ context.Context, run *model.Run) {
	r.send(event{typ: eventRunEnd, run: snapshot(run)})
}

func (r *AsyncMetricRecorder) RecordReconcile(_ context.Context, kind model.EntityKind, action string, changed bool) {
	r.send(event{typ: eventReconcile, kind: kind, action: action, changed: changed})
}

func (r *AsyncMetricRecorder) RecordUpstreamCall(_ context.Context, operation, outcome string, latency time.Duration) {
	r.send(event{typ: eventUpstreamCall, operation: operation, outcome: outcome, latency: latency})
}

func (r *AsyncMetricRecorder) RecordStuckReclaimed(_ context.Context, count int) {
	r.send(event{typ: eventStuckReclaimed, count: count})
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)
