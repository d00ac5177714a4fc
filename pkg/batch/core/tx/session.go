package tx

import (
	"context"
	"fmt"
	"sync"
)

// Session is the transactional session owned by one run. Writes are grouped into
// batches: Begin opens a batch lazily, Commit ends it, and Rollback discards whatever
// batch is still open when the run ends abnormally.
type Session struct {
	mgr TransactionManager

	mu      sync.Mutex
	current Tx
	commits int
}

// NewSession creates a Session over mgr.
func NewSession(mgr TransactionManager) *Session {
	return &Session{mgr: mgr}
}

// Begin returns ctx bound to the open batch, opening one if needed.
func (s *Session) Begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		t, err := s.mgr.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		s.current = t
	}
	return WithTx(ctx, s.current), nil
}

// Commit commits the open batch. It is a no-op when none is open.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := s.current
	s.current = nil
	if err := s.mgr.Commit(t); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.commits++
	return nil
}

// Rollback discards the open batch and reports whether one was open.
func (s *Session) Rollback() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false, nil
	}
	t := s.current
	s.current = nil
	if err := s.mgr.Rollback(t); err != nil {
		return true, fmt.Errorf("rollback transaction: %w", err)
	}
	return true, nil
}

// Pending reports whether a batch is open.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Commits returns how many batches have been committed.
func (s *Session) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}
