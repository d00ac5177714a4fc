package model

import "strconv"

// DefaultHoursBack is the look-back window of the finished-games job.
const DefaultHoursBack = 7

// DefaultBatchSize bounds the rows processed by batch-oriented jobs.
const DefaultBatchSize = 50

// TriggerParams are the per-invocation parameters a manual trigger may pass.
// Zero values mean "use the job default".
type TriggerParams struct {
	HoursBack int   `json:"hours_back,omitempty"`
	TeamID    int64 `json:"team_id,omitempty"`
	Limit     int   `json:"limit,omitempty"`
	Force     bool  `json:"force,omitempty"`
	BatchSize int   `json:"batch_size,omitempty"`
}

// HoursBackOrDefault returns HoursBack or DefaultHoursBack.
func (p TriggerParams) HoursBackOrDefault() int {
	if p.HoursBack > 0 {
		return p.HoursBack
	}
	return DefaultHoursBack
}

// BatchSizeOrDefault returns BatchSize or DefaultBatchSize.
func (p TriggerParams) BatchSizeOrDefault() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}

// String renders the non-default parameters for log lines.
func (p TriggerParams) String() string {
	s := ""
	add := func(k, v string) {
		if s != "" {
			s += " "
		}
		s += k + "=" + v
	}
	if p.HoursBack > 0 {
		add("hours_back", strconv.Itoa(p.HoursBack))
	}
	if p.TeamID != 0 {
		add("team_id", strconv.FormatInt(p.TeamID, 10))
	}
	if p.Limit > 0 {
		add("limit", strconv.Itoa(p.Limit))
	}
	if p.BatchSize > 0 {
		add("batch_size", strconv.Itoa(p.BatchSize))
	}
	if p.Force {
		add("force", "true")
	}
	if s == "" {
		return "defaults"
	}
	return s
}
