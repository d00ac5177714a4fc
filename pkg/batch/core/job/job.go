// Package job runs named job bodies as auditable runs.
package job

import (
	"context"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/progress"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
)

// MetricItemsUpdated is the progress metric bodies keep in step with their change count.
// It is used when a run ends before the body can return a Result.
const MetricItemsUpdated = "items_updated"

// MetricTraceID is the per-run correlation id kept among the run metrics.
const MetricTraceID = "trace_id"

// Context is what a job body receives alongside its context.Context.
type Context struct {
	RunID   uint
	JobName string
	Params  model.TriggerParams
	Token   *cancellation.Token
	// Session groups the body's writes into committed batches.
	Session *tx.Session
	// Progress accumulates the run's log and metrics.
	Progress *progress.Tracker
}

// Checkpoint returns a *cancellation.Cancelled error once the run has been cancelled.
// Bodies call it after every upstream fetch and every committed batch.
func (c *Context) Checkpoint() error {
	return c.Token.Check()
}

// Result is what a body reports on normal return.
type Result struct {
	// Status defaults to success when empty.
	Status       model.RunStatus
	ItemsUpdated int
	// Error is the message stored when Status is failed.
	Error string
}

// Body is the canonical implementation of a named job.
type Body func(ctx context.Context, jc *Context) (Result, error)

// Request asks the Executor to run a body.
type Request struct {
	JobName string
	Body    Body
	Origin  model.TriggerOrigin
	Params  model.TriggerParams
	// RunID reuses an existing running run instead of creating one.
	RunID uint
}

// RunListener observes run lifecycle events.
type RunListener interface {
	BeforeRun(ctx context.Context, run *model.Run)
	AfterRun(ctx context.Context, run *model.Run)
}
