package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

var now = time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return now }))
}

func ptr[T any](v T) *T { return &v }

func syncedAt(t time.Time) model.SourceMeta {
	return model.SourceMeta{Source: model.SourceAPI, LastAPISync: ptr(t)}
}

func upstreamFinal() *model.Game {
	return &model.Game{ExternalID: "G1", Status: model.GameStatusFinal, HomeScore: ptr(101), AwayScore: ptr(97)}
}

func TestReconcile_CreateWhenMissing(t *testing.T) {
	incoming := upstreamFinal()
	d := Reconcile(context.Background(), newEngine(), (*model.Game)(nil), false, incoming, Policy{TTL: time.Hour})

	assert.Equal(t, ActionCreate, d.Action)
	assert.True(t, d.Counts())
	assert.True(t, d.NeedsWrite())
	assert.Equal(t, model.SourceAPI, incoming.Source)
	assert.False(t, incoming.IsManualOverride)
	require.NotNil(t, incoming.LastAPISync)
	assert.Equal(t, now, *incoming.LastAPISync)
}

func TestReconcile_OverrideIsNeverTouched(t *testing.T) {
	policies := []Policy{
		{TTL: time.Hour},
		{TTL: time.Hour, Force: true},
		{TTL: 0},
		{TTL: time.Hour, StaleBefore: now},
	}
	for _, p := range policies {
		local := &model.Game{ExternalID: "G1", Status: model.GameStatusScheduled}
		local.MarkOverride("official correction", now.Add(-48*time.Hour))
		before := *local

		d := Reconcile(context.Background(), newEngine(), local, true, upstreamFinal(), p)

		assert.Equal(t, ActionSkipOverride, d.Action)
		assert.False(t, d.Counts())
		assert.False(t, d.NeedsWrite())
		assert.Equal(t, before, *local)
	}
}

func TestReconcile_FreshIsSkippedUnlessForced(t *testing.T) {
	local := &model.Game{ExternalID: "G1", Status: model.GameStatusScheduled, SourceMeta: syncedAt(now.Add(-10 * time.Minute))}
	d := Reconcile(context.Background(), newEngine(), local, true, upstreamFinal(), Policy{TTL: time.Hour})
	assert.Equal(t, ActionSkipFresh, d.Action)
	assert.False(t, d.Counts())
	assert.Equal(t, model.GameStatusScheduled, local.Status)
	assert.Equal(t, now.Add(-10*time.Minute), *local.LastAPISync)

	d = Reconcile(context.Background(), newEngine(), local, true, upstreamFinal(), Policy{TTL: time.Hour, Force: true})
	assert.Equal(t, ActionUpdate, d.Action)
	assert.True(t, d.Counts())
	assert.Equal(t, model.GameStatusFinal, local.Status)
	assert.Equal(t, now, *local.LastAPISync)
}

func TestReconcile_StaleOrNeverSyncedIsUpdated(t *testing.T) {
	for _, meta := range []model.SourceMeta{syncedAt(now.Add(-2 * time.Hour)), {Source: model.SourceAPI}} {
		local := &model.Game{ExternalID: "G1", Status: model.GameStatusScheduled, SourceMeta: meta}
		d := Reconcile(context.Background(), newEngine(), local, true, upstreamFinal(), Policy{TTL: time.Hour})

		assert.Equal(t, ActionUpdate, d.Action)
		assert.ElementsMatch(t, []string{"status", "home_score", "away_score"}, d.Changed)
		assert.Equal(t, 101, *local.HomeScore)
		assert.Equal(t, now, *local.LastAPISync)
	}
}

func TestReconcile_UpdateWithoutChangeDoesNotCount(t *testing.T) {
	local := upstreamFinal()
	local.SourceMeta = syncedAt(now.Add(-2 * time.Hour))

	d := Reconcile(context.Background(), newEngine(), local, true, upstreamFinal(), Policy{TTL: time.Hour})
	assert.Equal(t, ActionUpdate, d.Action)
	assert.Empty(t, d.Changed)
	assert.False(t, d.Counts())
	assert.True(t, d.NeedsWrite(), "last_api_sync is still bumped")
	assert.Equal(t, now, *local.LastAPISync)
}

func TestReconcile_StaleBefore(t *testing.T) {
	tip := now.Add(-3 * time.Hour)
	local := &model.PlayerGameStats{PlayerID: 1, GameID: 1, Pts: 10, SourceMeta: syncedAt(tip.Add(-time.Hour))}

	// Synced before tip-off: stale even though within TTL.
	d := Reconcile(context.Background(), newEngine(), local, true, &model.PlayerGameStats{Pts: 31}, Policy{TTL: 24 * time.Hour, StaleBefore: tip})
	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, 31, local.Pts)

	// Synced after tip-off and within TTL: fresh.
	d = Reconcile(context.Background(), newEngine(), local, true, &model.PlayerGameStats{Pts: 40}, Policy{TTL: 24 * time.Hour, StaleBefore: tip})
	assert.Equal(t, ActionSkipFresh, d.Action)
	assert.Equal(t, 31, local.Pts)
}

func TestOverrideHelpers(t *testing.T) {
	local := &model.TeamStanding{TeamID: 1, Wins: 10, Losses: 5, SourceMeta: syncedAt(now.Add(-time.Hour))}
	changed := SetOverride[*model.TeamStanding](local, &model.TeamStanding{Wins: 11, Losses: 5}, "forfeit", now)
	assert.Contains(t, changed, "wins")
	assert.True(t, local.IsManualOverride)
	assert.Equal(t, model.SourceManual, local.Source)
	assert.Equal(t, "forfeit", local.OverrideReason)

	ClearOverride(local, now.Add(time.Minute))
	assert.False(t, local.IsManualOverride)
	assert.Equal(t, 11, local.Wins)

	// Once cleared, a stale reconciliation may overwrite the operator's value again.
	d := Reconcile(context.Background(), newEngine(), local, true, &model.TeamStanding{Wins: 10, Losses: 5}, Policy{TTL: time.Minute})
	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, 10, local.Wins)

	team := NewManualRecord(&model.Team{Name: "Expansion", Abbreviation: "EXP"}, "new franchise", now)
	assert.True(t, team.IsManualOverride)
	assert.Equal(t, now, *team.LastManualEdit)
}
