// Package cancellation implements cooperative cancellation of running jobs.
//
// A Registry maps run IDs to Tokens. The executor obtains a token when a run starts
// and releases it when the run reaches a terminal state; operators cancel through the
// registry; job bodies call Token.Check at their checkpoints. Tokens live in memory
// only, so a process restart forgets them.
package cancellation

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultReason is used when Cancel is called without a reason.
const DefaultReason = "Cancelled by user"

// Cancelled is returned by Token.Check once the token has been cancelled.
type Cancelled struct {
	RunID  uint
	Reason string
}

func (c *Cancelled) Error() string {
	return "job cancelled: " + c.Reason
}

// AsCancelled extracts a Cancelled from err's chain.
func AsCancelled(err error) (*Cancelled, bool) {
	var c *Cancelled
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// Token is the cancellation flag of one run.
type Token struct {
	runID uint
	now   func() time.Time

	mu          sync.Mutex
	cancelled   bool
	cancelledAt time.Time
	reason      string
}

// RunID returns the run the token belongs to.
func (t *Token) RunID() uint { return t.runID }

// Cancel sets the flag. A later Cancel replaces the reason.
func (t *Token) Cancel(reason string) {
	if reason == "" {
		reason = DefaultReason
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
	t.cancelledAt = t.now().UTC()
	t.reason = reason
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the cancellation reason, empty while not cancelled.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// CancelledAt returns when the token was cancelled, zero while not cancelled.
func (t *Token) CancelledAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelledAt
}

// Check returns a *Cancelled error if the token has been cancelled.
// A nil token never reports cancellation.
func (t *Token) Check() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cancelled {
		return nil
	}
	return &Cancelled{RunID: t.runID, Reason: t.reason}
}

// Registry is a concurrency-safe map of run IDs to tokens.
type Registry struct {
	now func() time.Time

	mu     sync.Mutex
	tokens map[uint]*Token
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used to stamp cancellations.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{now: time.Now, tokens: make(map[uint]*Token)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Obtain returns the token of runID, creating it if absent.
func (r *Registry) Obtain(runID uint) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[runID]; ok {
		return t
	}
	t := &Token{runID: runID, now: r.now}
	r.tokens[runID] = t
	return t
}

// Lookup returns the token of runID without creating one.
func (r *Registry) Lookup(runID uint) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[runID]
	return t, ok
}

// Cancel cancels the token of runID and reports whether one existed.
func (r *Registry) Cancel(runID uint, reason string) bool {
	r.mu.Lock()
	t, ok := r.tokens[runID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	t.Cancel(reason)
	return true
}

// Release removes the token of runID. Releasing an unknown run is a no-op.
func (r *Registry) Release(runID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, runID)
}

// Active returns the run IDs that currently hold a token, ascending.
func (r *Registry) Active() []uint {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.tokens))
	for id := range r.tokens {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of live tokens.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
