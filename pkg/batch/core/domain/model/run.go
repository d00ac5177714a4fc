package model

import "time"

// RunStatus is the lifecycle state of a Run: running -> {success, failed}.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s RunStatus) Valid() bool {
	return s == RunStatusRunning || s.IsTerminal()
}

// TriggerOrigin records what started a run. The persisted values are "cron" and "manual".
type TriggerOrigin string

const (
	TriggerScheduled TriggerOrigin = "cron"
	TriggerManual    TriggerOrigin = "manual"
)

// Error messages written by the lifecycle machinery.
const (
	MsgStuckReclaimed   = "Job marked as failed - was stuck in running state for over 1 hour"
	MsgStuckDisplay     = "Job appears to be stuck (running for over 1 hour)"
	MsgUnknownFailure   = "Unknown error"
	ReasonStuckCleanup  = "Stuck job cleaned up"
	ReasonStoppedByUser = "Stopped by user"
	ReasonDeletedByUser = "Deleted by user"
)

// Run is one execution of a named job.
type Run struct {
	ID uint
	// JobID references the backing JobDefinition, 0 for manual runs.
	JobID           uint
	JobName         string
	TriggeredBy     TriggerOrigin
	StartedAt       time.Time
	CompletedAt     *time.Time
	Status          RunStatus
	DurationSeconds *int64
	ItemsUpdated    int
	ErrorMessage    string
	Details         RunDetails
	CreatedAt       time.Time
}

// NewRun returns a running Run started at now.
func NewRun(jobName string, jobID uint, origin TriggerOrigin, now time.Time) *Run {
	now = now.UTC()
	return &Run{
		JobID:       jobID,
		JobName:     jobName,
		TriggeredBy: origin,
		StartedAt:   now,
		Status:      RunStatusRunning,
		CreatedAt:   now,
	}
}

// Finish moves the run to a terminal status at now and computes its duration.
func (r *Run) Finish(status RunStatus, errorMessage string, now time.Time) {
	now = now.UTC()
	r.Status = status
	r.CompletedAt = &now
	r.ErrorMessage = errorMessage
	d := int64(now.Sub(r.StartedAt) / time.Second)
	if d < 0 {
		d = 0
	}
	r.DurationSeconds = &d
}

// SetDuration overrides the computed duration.
func (r *Run) SetDuration(d time.Duration) {
	secs := int64(d / time.Second)
	r.DurationSeconds = &secs
}

// Elapsed returns the wall-clock time since the run started.
func (r *Run) Elapsed(now time.Time) time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// IsStuck reports whether a running run has exceeded threshold.
func (r *Run) IsStuck(now time.Time, threshold time.Duration) bool {
	return r.Status == RunStatusRunning && now.Sub(r.StartedAt) > threshold
}
