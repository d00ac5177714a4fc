// Package reconcile decides whether an upstream value may overwrite a local record.
//
// The decision table, applied per entity:
//
//	local missing                      -> create from upstream, source=api
//	local pinned by a manual override  -> skip (no business field is touched)
//	local fresh and not forced         -> skip
//	local stale or forced              -> merge business fields, bump last_api_sync
//
// Only merges that modify at least one business field count as changes.
package reconcile

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
)

// Action is the outcome of one reconciliation.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionSkipOverride Action = "skip_override"
	ActionSkipFresh    Action = "skip_fresh"
)

// Policy carries the freshness rules for one reconciliation.
type Policy struct {
	// TTL is how long an API sync stays fresh.
	TTL time.Duration
	// Force treats every non-overridden record as stale.
	Force bool
	// StaleBefore, when set, makes a record synced at or before it stale regardless of TTL.
	StaleBefore time.Time
}

// Decision reports what Reconcile did.
type Decision struct {
	Action  Action
	Changed []string
}

// Counts reports whether the decision should count toward items_updated.
func (d Decision) Counts() bool {
	return d.Action == ActionCreate || (d.Action == ActionUpdate && len(d.Changed) > 0)
}

// NeedsWrite reports whether the caller must persist the record.
// Updates without business changes are still written to bump last_api_sync.
func (d Decision) NeedsWrite() bool {
	return d.Action == ActionCreate || d.Action == ActionUpdate
}

// Mergeable is a record that can absorb another record's business fields.
type Mergeable[T any] interface {
	model.Record
	MergeFrom(src T) []string
}

// Engine applies the decision table.
type Engine struct {
	now      func() time.Time
	recorder metrics.MetricRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for freshness checks and sync stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecorder reports every decision to r.
func WithRecorder(r metrics.MetricRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, recorder: metrics.NewNoOpMetricRecorder()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock in UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// Evaluate classifies an existing record without modifying it.
func (e *Engine) Evaluate(local model.Record, p Policy) Action {
	meta := local.Meta()
	if meta.IsManualOverride {
		return ActionSkipOverride
	}
	if p.Force {
		return ActionUpdate
	}
	if !p.StaleBefore.IsZero() && (meta.LastAPISync == nil || !meta.LastAPISync.After(p.StaleBefore)) {
		return ActionUpdate
	}
	if meta.SyncedWithin(e.Now(), p.TTL) {
		return ActionSkipFresh
	}
	return ActionUpdate
}

// Reconcile applies the decision table to local (ignored unless found) and incoming.
// On create, incoming is stamped as an API record and is what the caller persists.
// On update, local absorbs incoming's business fields and is what the caller persists.
func Reconcile[T Mergeable[T]](ctx context.Context, e *Engine, local T, found bool, incoming T, p Policy) Decision {
	var d Decision
	if !found {
		incoming.Meta().MarkCreatedFromAPI(e.Now())
		d = Decision{Action: ActionCreate}
	} else {
		d = Decision{Action: e.Evaluate(local, p)}
		if d.Action == ActionUpdate {
			d.Changed = local.MergeFrom(incoming)
			local.Meta().MarkSynced(e.Now())
		}
	}
	e.recorder.RecordReconcile(ctx, incoming.Kind(), string(d.Action), d.Counts())
	return d
}
