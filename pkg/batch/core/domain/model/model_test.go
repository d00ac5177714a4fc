package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 11, 3, 2, 0, 0, 0, time.UTC)

func TestJobDefinition_SuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, (&JobDefinition{}).SuccessRate())
	assert.Equal(t, 66.7, (&JobDefinition{TotalRuns: 3, SuccessfulRuns: 2}).SuccessRate())
	assert.Equal(t, 100.0, (&JobDefinition{TotalRuns: 4, SuccessfulRuns: 4}).SuccessRate())
}

func TestScheduleFor(t *testing.T) {
	assert.Equal(t, "every 2h", ScheduleFor(2*time.Hour))
	assert.Equal(t, "every 3d", ScheduleFor(72*time.Hour))
	assert.Equal(t, "every 90m", ScheduleFor(90*time.Minute))
	assert.Equal(t, ManualSchedule, ScheduleFor(0))
}

func TestRun_Finish(t *testing.T) {
	r := NewRun("update_schedules", 3, TriggerScheduled, t0)
	assert.Equal(t, RunStatusRunning, r.Status)
	assert.False(t, r.Status.IsTerminal())

	r.Finish(RunStatusFailed, "boom", t0.Add(95*time.Second))
	assert.True(t, r.Status.IsTerminal())
	assert.Equal(t, int64(95), *r.DurationSeconds)
	assert.Equal(t, "boom", r.ErrorMessage)

	// A clock that went backwards never yields a negative duration.
	r2 := NewRun("x", 0, TriggerManual, t0)
	r2.Finish(RunStatusSuccess, "", t0.Add(-time.Minute))
	assert.Equal(t, int64(0), *r2.DurationSeconds)
}

func TestRun_IsStuck(t *testing.T) {
	r := NewRun("x", 0, TriggerManual, t0)
	assert.False(t, r.IsStuck(t0.Add(59*time.Minute), time.Hour))
	assert.True(t, r.IsStuck(t0.Add(61*time.Minute), time.Hour))
	r.Finish(RunStatusSuccess, "", t0.Add(2*time.Hour))
	assert.False(t, r.IsStuck(t0.Add(3*time.Hour), time.Hour))
}

func TestMergeDetails(t *testing.T) {
	persisted := RunDetails{
		Log:     []LogEntry{{At: t0, Message: "fetched 10 games"}},
		Metrics: map[string]interface{}{"games_checked": 10, "phase": "games"},
	}
	final := RunDetails{
		Log:     []LogEntry{{At: t0.Add(time.Minute), Message: "finalized"}},
		Metrics: map[string]interface{}{"phase": "done", "items_updated": 4},
		Errors:  []string{"game 1: timeout"},
	}

	got := MergeDetails(persisted, final)
	assert.Equal(t, persisted.Log, got.Log, "persisted log wins")
	assert.Equal(t, map[string]interface{}{"games_checked": 10, "phase": "done", "items_updated": 4}, got.Metrics)
	assert.Equal(t, []string{"game 1: timeout"}, got.Errors)

	// The final log is taken when nothing was persisted yet.
	got = MergeDetails(RunDetails{}, final)
	assert.Equal(t, final.Log, got.Log)

	// A final log that extends the persisted one keeps every persisted line.
	extended := RunDetails{Log: append(append([]LogEntry(nil), persisted.Log...), LogEntry{At: t0.Add(2 * time.Minute), Message: "done"})}
	got = MergeDetails(persisted, extended)
	assert.Len(t, got.Log, 2)
}

func TestGame_MergeFrom(t *testing.T) {
	g := &Game{ExternalID: "G1", Status: GameStatusScheduled, StartTime: t0}
	changed := g.MergeFrom(&Game{Status: GameStatusFinal, HomeScore: intPtr(101), AwayScore: intPtr(97), StartTime: t0})
	assert.ElementsMatch(t, []string{"status", "home_score", "away_score"}, changed)
	assert.Equal(t, 101, *g.HomeScore)

	// Same values again: nothing changes.
	assert.Empty(t, g.MergeFrom(&Game{Status: GameStatusFinal, HomeScore: intPtr(101), AwayScore: intPtr(97)}))
}

func TestPlayer_MergeFromTeamChange(t *testing.T) {
	lal, bos := uint(1), uint(2)
	p := &Player{FullName: "A B", TeamID: &lal}
	assert.Equal(t, []string{"team_id"}, p.MergeFrom(&Player{FullName: "A B", TeamID: &bos}))
	assert.Equal(t, uint(2), *p.TeamID)
	assert.Equal(t, []string{"team_id"}, p.MergeFrom(&Player{FullName: "A B"}), "released to free agency")
	assert.Nil(t, p.TeamID)
}

func TestNormalizeGameStatus(t *testing.T) {
	assert.Equal(t, GameStatusFinal, NormalizeGameStatus("Final/OT"))
	assert.Equal(t, GameStatusScheduled, NormalizeGameStatus(" "))
	assert.Equal(t, "q3 5:12", NormalizeGameStatus("Q3 5:12"))
	assert.True(t, IsFinalStatus("FINAL"))
	assert.False(t, IsFinalStatus("Halftime"))
}

func TestSourceMeta_Lifecycle(t *testing.T) {
	var m SourceMeta
	assert.False(t, m.SyncedWithin(t0, time.Hour))

	m.MarkCreatedFromAPI(t0)
	assert.Equal(t, SourceAPI, m.Source)
	assert.True(t, m.SyncedWithin(t0.Add(59*time.Minute), time.Hour))
	assert.False(t, m.SyncedWithin(t0.Add(61*time.Minute), time.Hour))

	m.MarkOverride("scorer correction", t0.Add(time.Hour))
	assert.True(t, m.IsManualOverride)
	assert.Equal(t, SourceManual, m.Source)
	assert.NotNil(t, m.LastManualEdit)

	m.ClearOverride(t0.Add(2 * time.Hour))
	assert.False(t, m.IsManualOverride)
	assert.Empty(t, m.OverrideReason)
	assert.Equal(t, SourceManual, m.Source, "clearing does not rewrite provenance")
}

func TestTriggerParams(t *testing.T) {
	p := TriggerParams{}
	assert.Equal(t, DefaultHoursBack, p.HoursBackOrDefault())
	assert.Equal(t, DefaultBatchSize, p.BatchSizeOrDefault())
	assert.Equal(t, "defaults", p.String())
	assert.Equal(t, "hours_back=24 team_id=1610612747 force=true", TriggerParams{HoursBack: 24, TeamID: 1610612747, Force: true}.String())
}

func intPtr(v int) *int { return &v }
