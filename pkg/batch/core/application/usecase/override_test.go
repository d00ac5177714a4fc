package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/inmemory"
)

func newOverrideService(t *testing.T) (*OverrideService, repository.EntityStore) {
	t.Helper()
	store := inmemory.NewStore()
	svc := NewOverrideService(store.Entities(), nil)
	svc.SetClock(func() time.Time { return testNow })
	return svc, store.Entities()
}

func TestOverride_SetPinsGame(t *testing.T) {
	svc, store := newOverrideService(t)
	ctx := context.Background()
	synced := testNow.Add(-time.Hour)
	game := &model.Game{ExternalID: "0022400001", Status: model.GameStatusScheduled, HomeTeamID: 1, AwayTeamID: 2,
		SourceMeta: model.SourceMeta{Source: model.SourceAPI, LastAPISync: &synced}}
	require.NoError(t, store.SaveGame(ctx, game))

	res, err := svc.Set(ctx, model.KindGame, game.ID, map[string]interface{}{
		"status":     "final",
		"home_score": "101",
		"away_score": 97,
	}, "scorer correction")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"status", "home_score", "away_score"}, res.Changed)

	got, err := store.FindGameByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Status)
	require.True(t, got.HasScores())
	assert.Equal(t, 101, *got.HomeScore)
	assert.Equal(t, 97, *got.AwayScore)
	assert.Equal(t, uint(1), got.HomeTeamID, "untouched fields keep their values")
	assert.True(t, got.IsManualOverride)
	assert.Equal(t, model.SourceManual, got.Source)
	assert.Equal(t, "scorer correction", got.OverrideReason)
	require.NotNil(t, got.LastManualEdit)
	assert.True(t, got.LastManualEdit.Equal(testNow))
}

func TestOverride_ClearKeepsValues(t *testing.T) {
	svc, store := newOverrideService(t)
	ctx := context.Background()
	st := &model.TeamStanding{TeamID: 3, Season: "2025-26", SeasonType: "Regular Season", Wins: 10, Losses: 4}
	require.NoError(t, store.SaveStanding(ctx, st))

	_, err := svc.Set(ctx, model.KindStanding, st.ID, map[string]interface{}{"wins": 11}, "forfeit")
	require.NoError(t, err)

	rec, err := svc.Clear(ctx, model.KindStanding, st.ID)
	require.NoError(t, err)
	assert.False(t, rec.Meta().IsManualOverride)

	got, err := store.FindStandingByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Wins)
	assert.False(t, got.IsManualOverride)
	assert.Empty(t, got.OverrideReason)
}

func TestOverride_CreateManual(t *testing.T) {
	svc, store := newOverrideService(t)
	ctx := context.Background()

	rec, err := svc.CreateManual(ctx, model.KindPlayer, map[string]interface{}{
		"external_id": 2544,
		"full_name":   "LeBron James",
		"position":    "F",
	}, "two-way signing")
	require.NoError(t, err)

	p, ok := rec.(*model.Player)
	require.True(t, ok)
	got, err := store.FindPlayerByExternalID(ctx, 2544)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "LeBron James", got.FullName)
	assert.True(t, got.IsManualOverride)
	assert.Equal(t, model.SourceManual, got.Source)
}

func TestOverride_RejectsBadInput(t *testing.T) {
	svc, store := newOverrideService(t)
	ctx := context.Background()
	team := &model.Team{ExternalID: 1610612747, Name: "Los Angeles Lakers", Abbreviation: "LAL"}
	require.NoError(t, store.SaveTeam(ctx, team))

	_, err := svc.Set(ctx, model.KindTeam, team.ID, map[string]interface{}{"id": 9}, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Set(ctx, model.KindTeam, team.ID, map[string]interface{}{"mascot": "none"}, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Set(ctx, "coach", 1, map[string]interface{}{}, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Set(ctx, model.KindTeam, 404, map[string]interface{}{"name": "x"}, "")
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)

	got, err := store.FindTeamByID(ctx, team.ID)
	require.NoError(t, err)
	assert.False(t, got.IsManualOverride)
}
