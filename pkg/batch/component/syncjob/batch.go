package syncjob

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// batch groups a body's store access into transactions of at most commitEvery
// records. Progress is flushed only between transactions: a due flush closes the
// open batch first, so the run row is never written while the body holds a
// transaction.
type batch struct {
	jc          *job.Context
	commitEvery int
	flushEvery  int

	pending      int
	sinceFlush   int
	pendingItems int
}

func newBatch(jc *job.Context, commitEvery, flushEvery int) *batch {
	return &batch{jc: jc, commitEvery: commitEvery, flushEvery: flushEvery}
}

// begin returns ctx bound to the open transaction, opening one if needed.
// Every read and write of a record goes through it.
func (b *batch) begin(ctx context.Context) (context.Context, error) {
	return b.jc.Session.Begin(ctx)
}

// changed counts one business change of the open batch toward items_updated.
func (b *batch) changed() {
	b.pendingItems++
}

// done marks one processed record and commits when a boundary is reached.
func (b *batch) done(ctx context.Context) error {
	b.pending++
	b.sinceFlush++
	if b.pending >= b.commitEvery || b.sinceFlush >= b.flushEvery {
		return b.checkpoint(ctx)
	}
	return nil
}

// checkpoint commits the open batch, flushes progress and checks the token.
func (b *batch) checkpoint(ctx context.Context) error {
	if err := b.commit(); err != nil {
		return err
	}
	b.jc.Progress.Flush(ctx)
	return b.jc.Checkpoint()
}

func (b *batch) commit() error {
	if err := b.jc.Session.Commit(); err != nil {
		return err
	}
	if b.pendingItems > 0 {
		b.jc.Progress.Add(job.MetricItemsUpdated, b.pendingItems)
	}
	b.pending, b.sinceFlush, b.pendingItems = 0, 0, 0
	return nil
}

// items returns the committed change count.
func (b *batch) items() int {
	return b.jc.Progress.Count(job.MetricItemsUpdated)
}

// tally counts the entities a body attempted and those that failed.
type tally struct {
	attempted int
	failed    int
}

func (t *tally) ok()   { t.attempted++ }
func (t *tally) fail() { t.attempted++; t.failed++ }

func (t *tally) allFailed() bool {
	return t.attempted > 0 && t.failed == t.attempted
}

func (t *tally) failureMessage(what string) string {
	return fmt.Sprintf("All %d %s failed", t.attempted, what)
}

// fetched is the outcome of one concurrent upstream fetch.
type fetched[T any] struct {
	val T
	err error
}

// fetchAll calls fn for every key with at most limit calls in flight. Entity-level
// errors are returned per key; only cancellation aborts the whole fetch.
func fetchAll[K, T any](ctx context.Context, jc *job.Context, limit int, keys []K, fn func(context.Context, K) (T, error)) ([]fetched[T], error) {
	out := make([]fetched[T], len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, k := range keys {
		g.Go(func() error {
			if err := jc.Checkpoint(); err != nil {
				return err
			}
			v, err := fn(gctx, k)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			out[i] = fetched[T]{val: v, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return out, jc.Checkpoint()
}

// lookup turns a Find result into (value, found).
func lookup[T any](v T, err error) (T, bool, error) {
	var zero T
	if errors.Is(err, repository.ErrEntityNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// apply reconciles incoming against local and persists the result when the
// decision requires it. Business changes are counted on b.
func apply[T reconcile.Mergeable[T]](ctx context.Context, e *reconcile.Engine, b *batch, local T, found bool, incoming T, p reconcile.Policy, save func(context.Context, T) error) (reconcile.Decision, error) {
	d := reconcile.Reconcile(ctx, e, local, found, incoming, p)
	if !d.NeedsWrite() {
		return d, nil
	}
	target := incoming
	if found {
		target = local
	}
	if err := save(ctx, target); err != nil {
		return d, fmt.Errorf("save %s: %w", target.Label(), err)
	}
	if d.Counts() {
		b.changed()
	}
	return d, nil
}
