package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// Tracker accumulates the progress of one run and flushes it through a Reporter.
// Job bodies call Logf for human-readable lines, Add/Set for metrics, Error for
// entity-level failures, and Tick once per processed record.
type Tracker struct {
	reporter *Reporter
	runID    uint
	every    int
	now      func() time.Time
	log      *zap.SugaredLogger
	onEnded  func()

	mu         sync.Mutex
	details    model.RunDetails
	sinceFlush int
	flushes    int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// FlushEvery flushes automatically after n ticks.
func FlushEvery(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.every = n
		}
	}
}

// WithTrackerClock overrides the clock used to stamp log lines.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// OnRunEnded calls fn when a flush finds the run already terminal in storage,
// as happens when another process stopped it.
func OnRunEnded(fn func()) TrackerOption {
	return func(t *Tracker) { t.onEnded = fn }
}

// NewTracker creates a Tracker for runID.
func NewTracker(reporter *Reporter, runID uint, jobName string, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		reporter: reporter,
		runID:    runID,
		every:    5,
		now:      time.Now,
		log:      logger.With("run_id", runID, "job", jobName),
		details:  model.RunDetails{Metrics: map[string]interface{}{}},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RunID returns the tracked run.
func (t *Tracker) RunID() uint { return t.runID }

// SetParams records the trigger parameters of the run.
func (t *Tracker) SetParams(p model.TriggerParams) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.details.Params = &p
}

// Logf appends a progress line.
func (t *Tracker) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	t.log.Info(msg)
	t.mu.Lock()
	t.details.Log = append(t.details.Log, model.LogEntry{At: t.now().UTC(), Message: msg})
	t.mu.Unlock()
}

// Error records an entity-level failure. Processing is expected to continue.
func (t *Tracker) Error(entity string, err error) {
	msg := entity + ": " + exception.ExtractErrorMessage(err)
	t.log.Warnw("entity sync failed", "entity", entity, "error", err)
	t.mu.Lock()
	t.details.Errors = append(t.details.Errors, msg)
	t.details.Log = append(t.details.Log, model.LogEntry{At: t.now().UTC(), Message: "ERROR " + msg})
	t.mu.Unlock()
}

// Set stores a metric value.
func (t *Tracker) Set(key string, v interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.details.Metrics[key] = v
}

// Add increments an integer metric.
func (t *Tracker) Add(key string, delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, _ := t.details.Metrics[key].(int)
	t.details.Metrics[key] = cur + delta
}

// Count returns an integer metric.
func (t *Tracker) Count(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, _ := t.details.Metrics[key].(int)
	return v
}

// ErrorCount returns the number of entity-level failures so far.
func (t *Tracker) ErrorCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.details.Errors)
}

// Tick marks one processed record and flushes when the flush interval is reached.
func (t *Tracker) Tick(ctx context.Context) {
	t.mu.Lock()
	t.sinceFlush++
	due := t.sinceFlush >= t.every
	t.mu.Unlock()
	if due {
		t.Flush(ctx)
	}
}

// Flush persists the current snapshot.
func (t *Tracker) Flush(ctx context.Context) bool {
	snap := t.Snapshot()
	t.mu.Lock()
	t.sinceFlush = 0
	t.flushes++
	t.mu.Unlock()
	err := t.reporter.write(ctx, t.runID, snap)
	if errors.Is(err, repository.ErrRunNotRunning) && t.onEnded != nil {
		t.onEnded()
	}
	return err == nil
}

// Flushes returns how many times Flush ran.
func (t *Tracker) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}

// Snapshot returns a copy of the accumulated details.
func (t *Tracker) Snapshot() model.RunDetails {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.details.Clone()
}
