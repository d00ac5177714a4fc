package schedule

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// TaskGroup owns the goroutines of manually triggered runs until they complete.
// Callers never hold references to spawned runs; Wait observes every one of them.
type TaskGroup struct {
	g      errgroup.Group
	active atomic.Int64
}

// NewTaskGroup returns a group running at most limit tasks at once. A limit <= 0 means unbounded.
func NewTaskGroup(limit int) *TaskGroup {
	t := &TaskGroup{}
	if limit > 0 {
		t.g.SetLimit(limit)
	}
	return t
}

// TryGo starts fn unless the group is at its limit.
func (t *TaskGroup) TryGo(fn func()) bool {
	t.active.Add(1)
	ok := t.g.TryGo(func() error {
		defer t.active.Add(-1)
		fn()
		return nil
	})
	if !ok {
		t.active.Add(-1)
	}
	return ok
}

// Active returns the number of tasks still running.
func (t *TaskGroup) Active() int {
	return int(t.active.Load())
}

// Wait blocks until every started task has returned.
func (t *TaskGroup) Wait() {
	_ = t.g.Wait()
}
