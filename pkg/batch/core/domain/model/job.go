package model

import (
	"math"
	"time"
)

// ManualSchedule is the schedule string of a job without an interval trigger.
const ManualSchedule = "manual"

// JobDefinition is the persisted description of a recurring job.
// It is upserted by name at startup, mutated after each run and never deleted.
type JobDefinition struct {
	ID             uint
	Name           string
	Description    string
	Schedule       string
	IsActive       bool
	LastRunAt      *time.Time
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SuccessRate returns the share of successful runs as a percentage rounded to one decimal.
func (j *JobDefinition) SuccessRate() float64 {
	if j.TotalRuns == 0 {
		return 0
	}
	return math.Round(float64(j.SuccessfulRuns)/float64(j.TotalRuns)*1000) / 10
}

// ScheduleFor renders an interval as the schedule string stored on a JobDefinition.
func ScheduleFor(every time.Duration) string {
	if every <= 0 {
		return ManualSchedule
	}
	return "every " + formatInterval(every)
}

func formatInterval(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return itoa(int64(d/(24*time.Hour))) + "d"
	case d%time.Hour == 0:
		return itoa(int64(d/time.Hour)) + "h"
	case d%time.Minute == 0:
		return itoa(int64(d/time.Minute)) + "m"
	default:
		return d.String()
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}
