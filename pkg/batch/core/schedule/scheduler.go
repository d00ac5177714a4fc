// Package schedule attaches job bodies to interval triggers, runs manual triggers
// in a supervised task group and reclaims runs left behind by a crashed process.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

var (
	// ErrUnknownJob is returned when a trigger names a job without a registered body.
	ErrUnknownJob = errors.New("unknown job")
	// ErrBusy is returned when every manual trigger slot is taken.
	ErrBusy = errors.New("too many manual runs in progress")
)

// Entry is one job of the catalog: its canonical body and its default interval.
// An Every of zero registers a manual-only job.
type Entry struct {
	Name        string
	Description string
	Every       time.Duration
	Body        job.Body
}

// Scheduler owns the interval triggers of the job catalog.
type Scheduler struct {
	exec *job.Executor
	jobs repository.JobDefinitionRepository
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]Entry
	ids     map[string]cron.EntryID
	started bool

	group  *TaskGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTriggerWorkers bounds how many manual runs execute at once.
func WithTriggerWorkers(n int) Option {
	return func(s *Scheduler) { s.group = NewTaskGroup(n) }
}

// New creates a Scheduler. Triggers do not fire until Start is called,
// but manual triggers are accepted immediately.
func New(exec *job.Executor, jobs repository.JobDefinitionRepository, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		exec:    exec,
		jobs:    jobs,
		entries: make(map[string]Entry),
		ids:     make(map[string]cron.EntryID),
		group:   NewTaskGroup(0),
		ctx:     ctx,
		cancel:  cancel,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds entries to the catalog and upserts their JobDefinitions by name.
// Existing definitions keep their counters and active flag.
func (s *Scheduler) Register(ctx context.Context, entries ...Entry) error {
	for _, e := range entries {
		if e.Name == "" || e.Body == nil {
			return fmt.Errorf("register job %q: name and body are required", e.Name)
		}
		def := &model.JobDefinition{
			Name:        e.Name,
			Description: e.Description,
			Schedule:    model.ScheduleFor(e.Every),
			IsActive:    true,
		}
		if _, err := s.jobs.Register(ctx, def); err != nil {
			return fmt.Errorf("register job %q: %w", e.Name, err)
		}
		s.mu.Lock()
		s.entries[e.Name] = e
		s.mu.Unlock()
		logger.Debugf("Registered job %s (%s)", e.Name, def.Schedule)
	}
	return nil
}

// Names returns the registered job names in order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the catalog entry of name.
func (s *Scheduler) Lookup(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	return e, ok
}

// Start attaches the trigger of every interval job and starts the trigger engine.
// Inactive jobs are attached too: each firing re-reads the active flag, so a job
// re-enabled from another process starts firing without a restart.
func (s *Scheduler) Start(ctx context.Context) error {
	defs, err := s.jobs.List(ctx)
	if err != nil {
		return fmt.Errorf("load job definitions: %w", err)
	}
	for _, def := range defs {
		if !def.IsActive {
			logger.Infof("Job %s is inactive; its trigger fires but runs are skipped until it is enabled", def.Name)
		}
		if err := s.Schedule(def.Name); err != nil && !errors.Is(err, ErrUnknownJob) {
			return err
		}
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	s.cron.Start()
	logger.Infof("Scheduler started with %d interval triggers", len(s.cron.Entries()))
	return nil
}

// Schedule attaches the interval trigger of name. Manual-only jobs and jobs already
// scheduled are left alone.
func (s *Scheduler) Schedule(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.Every <= 0 {
		return nil
	}
	if _, scheduled := s.ids[name]; scheduled {
		return nil
	}
	s.ids[name] = s.cron.Schedule(cron.Every(e.Every), cron.FuncJob(func() { s.fire(name) }))
	logger.Infof("Scheduled %s every %s", name, e.Every)
	return nil
}

// Unschedule removes the interval trigger of name, if attached.
func (s *Scheduler) Unschedule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[name]
	if !ok {
		return
	}
	s.cron.Remove(id)
	delete(s.ids, name)
	logger.Infof("Unscheduled %s", name)
}

// IsScheduled reports whether name currently has an interval trigger attached.
func (s *Scheduler) IsScheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[name]
	return ok
}

// NextRun returns the next fire time of name. It is unknown until the engine has started.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.ids[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(id).Next
	if next.IsZero() {
		return time.Time{}, false
	}
	return next.UTC(), true
}

func (s *Scheduler) fire(name string) {
	e, ok := s.Lookup(name)
	if !ok {
		return
	}
	_, err := s.exec.Run(s.ctx, job.Request{JobName: name, Body: e.Body, Origin: model.TriggerScheduled})
	switch {
	case err == nil:
	case errors.Is(err, job.ErrJobInactive):
		logger.Debugf("Skipping scheduled run of %s: %v", name, err)
	case errors.Is(err, job.ErrJobNotRegistered):
		logger.Warnf("Skipping scheduled run of %s: %v", name, err)
	default:
		logger.Errorf("Scheduled run of %s could not start: %v", name, err)
	}
}

// TriggerManual starts a manual run of name with params and returns as soon as the
// run is persisted. The body executes in the scheduler's task group.
func (s *Scheduler) TriggerManual(ctx context.Context, name string, params model.TriggerParams) (*model.Run, error) {
	e, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	req := job.Request{JobName: name, Body: e.Body, Origin: model.TriggerManual, Params: params}

	ready := make(chan *model.Run, 1)
	if !s.group.TryGo(func() {
		run, ok := <-ready
		if !ok {
			return
		}
		s.exec.Execute(s.ctx, run, req)
	}) {
		return nil, ErrBusy
	}

	run, err := s.exec.Prepare(ctx, req)
	if err != nil {
		close(ready)
		return nil, err
	}
	accepted := *run
	ready <- run
	logger.Infof("Manually triggered %s (run %d, params: %s)", name, accepted.ID, params)
	return &accepted, nil
}

// RunManual runs name synchronously and returns the finalized run.
func (s *Scheduler) RunManual(ctx context.Context, name string, params model.TriggerParams) (*model.Run, error) {
	e, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.exec.Run(ctx, job.Request{JobName: name, Body: e.Body, Origin: model.TriggerManual, Params: params})
}

// Wait blocks until every manual run started so far has finished.
func (s *Scheduler) Wait() {
	s.group.Wait()
}

// Stop detaches every trigger, signals running bodies to shut down and waits for
// them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	done := make(chan struct{})
	go func() {
		if started {
			<-s.cron.Stop().Done()
		}
		s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Infof("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
