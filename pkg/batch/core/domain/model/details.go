package model

import (
	"fmt"
	"time"
)

// LogEntry is one timestamped progress line.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// String renders the entry as "[15:04:05] message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.UTC().Format("15:04:05"), e.Message)
}

// RunDetails is the structured payload of a Run: an append-only log,
// a metrics map and the entity-level errors collected while running.
type RunDetails struct {
	Log     []LogEntry             `json:"log,omitempty"`
	Metrics map[string]interface{} `json:"metrics,omitempty"`
	Errors  []string               `json:"errors,omitempty"`
	Params  *TriggerParams         `json:"params,omitempty"`
}

// Clone returns a deep-enough copy safe to hand to another goroutine.
func (d RunDetails) Clone() RunDetails {
	c := RunDetails{Params: d.Params}
	if d.Log != nil {
		c.Log = append([]LogEntry(nil), d.Log...)
	}
	if d.Errors != nil {
		c.Errors = append([]string(nil), d.Errors...)
	}
	if d.Metrics != nil {
		c.Metrics = make(map[string]interface{}, len(d.Metrics))
		for k, v := range d.Metrics {
			c.Metrics[k] = v
		}
	}
	return c
}

// IsEmpty reports whether nothing has been recorded.
func (d RunDetails) IsEmpty() bool {
	return len(d.Log) == 0 && len(d.Metrics) == 0 && len(d.Errors) == 0 && d.Params == nil
}

// MergeDetails combines the payload already persisted by progress reports with the
// payload produced at finalization. Metrics are unioned with the final values winning.
// The persisted log wins whenever it is non-empty because it holds the real-time lines
// the finalization step cannot reconstruct. Errors and params follow the same rule.
func MergeDetails(persisted, final RunDetails) RunDetails {
	out := RunDetails{}
	if len(persisted.Metrics)+len(final.Metrics) > 0 {
		out.Metrics = make(map[string]interface{}, len(persisted.Metrics)+len(final.Metrics))
		for k, v := range persisted.Metrics {
			out.Metrics[k] = v
		}
		for k, v := range final.Metrics {
			out.Metrics[k] = v
		}
	}
	out.Log = final.Log
	if len(persisted.Log) > 0 {
		out.Log = persisted.Log
		if len(final.Log) > len(persisted.Log) && hasPrefix(final.Log, persisted.Log) {
			out.Log = final.Log
		}
	}
	out.Errors = final.Errors
	if len(persisted.Errors) > len(final.Errors) {
		out.Errors = persisted.Errors
	}
	out.Params = final.Params
	if out.Params == nil {
		out.Params = persisted.Params
	}
	return out
}

func hasPrefix(log, prefix []LogEntry) bool {
	for i := range prefix {
		if log[i].Message != prefix[i].Message || !log[i].At.Equal(prefix[i].At) {
			return false
		}
	}
	return true
}
