package sql_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	_ "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/migration"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	sqlrepo "github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/sql"
)

var testNow = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

// setupSQLiteStore migrates a fresh database file and opens a Store on it.
func setupSQLiteStore(t *testing.T) (*sqlrepo.Store, tx.TransactionManager) {
	t.Helper()
	cfg := dbconfig.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "store.db"),
	}
	require.NoError(t, migration.NewMigrator(cfg, "SILENT").Up(context.Background()))

	db, err := gormadapter.Open(cfg, "SILENT")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := sqlrepo.NewStore(db)
	store.SetClock(func() time.Time { return testNow })
	return store, gormadapter.NewGormTransactionManager(db)
}

func TestSQLiteJobDefinitions_Lifecycle(t *testing.T) {
	store, _ := setupSQLiteStore(t)
	jobs := store.JobDefinitions()
	ctx := context.Background()

	def, err := jobs.Register(ctx, &model.JobDefinition{Name: "update_schedules", Description: "v1", Schedule: "every 3d"})
	require.NoError(t, err)
	assert.NotZero(t, def.ID)
	assert.True(t, def.IsActive)
	assert.Equal(t, testNow, def.CreatedAt)

	_, err = jobs.SetActive(ctx, def.ID, false)
	require.NoError(t, err)
	lastRun := testNow.Add(-time.Minute)
	require.NoError(t, jobs.RecordOutcome(ctx, def.ID, true, &lastRun))
	require.NoError(t, jobs.RecordOutcome(ctx, def.ID, false, nil))

	again, err := jobs.Register(ctx, &model.JobDefinition{Name: "update_schedules", Description: "v2", Schedule: "every 1d"})
	require.NoError(t, err)
	assert.Equal(t, def.ID, again.ID)
	assert.Equal(t, "v2", again.Description)
	assert.Equal(t, "every 1d", again.Schedule)
	assert.False(t, again.IsActive, "re-registration keeps the active flag")
	assert.Equal(t, int64(2), again.TotalRuns)
	assert.Equal(t, int64(1), again.SuccessfulRuns)
	assert.Equal(t, int64(1), again.FailedRuns)
	require.NotNil(t, again.LastRunAt)
	assert.Equal(t, lastRun, *again.LastRunAt)
	assert.Equal(t, time.UTC, again.LastRunAt.Location())

	_, err = jobs.Register(ctx, &model.JobDefinition{Name: "archive_run_history", Schedule: model.ManualSchedule})
	require.NoError(t, err)
	all, err := jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "archive_run_history", all[0].Name)

	_, err = jobs.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
	assert.ErrorIs(t, jobs.RecordOutcome(ctx, 999, true, nil), repository.ErrJobNotFound)
	_, err = jobs.SetActive(ctx, 999, true)
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestSQLiteRuns_Lifecycle(t *testing.T) {
	store, _ := setupSQLiteStore(t)
	jobs, runs := store.JobDefinitions(), store.Runs()
	ctx := context.Background()

	def, err := jobs.Register(ctx, &model.JobDefinition{Name: "update_finished_games", Schedule: "every 2h"})
	require.NoError(t, err)

	scheduled := model.NewRun("update_finished_games", def.ID, model.TriggerScheduled, testNow.Add(-2*time.Hour))
	params := model.TriggerParams{HoursBack: 12}
	scheduled.Details = model.RunDetails{Params: &params}
	require.NoError(t, runs.Create(ctx, scheduled))
	manual := model.NewRun("update_schedules", 0, model.TriggerManual, testNow.Add(-time.Minute))
	require.NoError(t, runs.Create(ctx, manual))

	loaded, err := runs.FindByID(ctx, manual.ID)
	require.NoError(t, err)
	assert.Zero(t, loaded.JobID, "manual runs are not backed by a definition")
	assert.Equal(t, model.RunStatusRunning, loaded.Status)
	assert.Equal(t, time.UTC, loaded.StartedAt.Location())

	progress := model.RunDetails{
		Log:     []model.LogEntry{{At: testNow, Message: "Checking 3 games"}},
		Metrics: map[string]interface{}{"games_checked": 3},
		Params:  &params,
	}
	require.NoError(t, runs.UpdateDetails(ctx, scheduled.ID, progress))
	loaded, err = runs.FindByID(ctx, scheduled.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Details.Log, 1)
	assert.Equal(t, "Checking 3 games", loaded.Details.Log[0].Message)
	assert.EqualValues(t, 3, loaded.Details.Metrics["games_checked"])
	require.NotNil(t, loaded.Details.Params)
	assert.Equal(t, 12, loaded.Details.Params.HoursBack)

	stuck, err := runs.FindRunningStartedBefore(ctx, testNow.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, scheduled.ID, stuck[0].ID)

	loaded.ItemsUpdated = 4
	loaded.Finish(model.RunStatusSuccess, "", testNow)
	require.NoError(t, runs.Finalize(ctx, loaded))
	final, err := runs.FindByID(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSuccess, final.Status)
	require.NotNil(t, final.DurationSeconds)
	assert.Equal(t, int64(7200), *final.DurationSeconds)
	assert.Equal(t, 4, final.ItemsUpdated)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, testNow, *final.CompletedAt)
	assert.ErrorIs(t, runs.UpdateDetails(ctx, scheduled.ID, progress), repository.ErrRunNotRunning,
		"a finished run no longer accepts progress")
	final, err = runs.FindByID(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSuccess, final.Status)

	page, total, err := runs.List(ctx, repository.RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, manual.ID, page[0].ID, "newest first")

	page, total, err = runs.List(ctx, repository.RunFilter{JobID: &def.ID, Status: model.RunStatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, scheduled.ID, page[0].ID)

	page, _, err = runs.List(ctx, repository.RunFilter{JobName: "update_schedules", Offset: 1})
	require.NoError(t, err)
	assert.Empty(t, page)

	archivable, err := runs.FindTerminalStartedBefore(ctx, testNow, 10)
	require.NoError(t, err)
	require.Len(t, archivable, 1)
	assert.Equal(t, scheduled.ID, archivable[0].ID)

	n, err := runs.DeleteByIDs(ctx, []uint{scheduled.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, runs.Delete(ctx, manual.ID))
	assert.ErrorIs(t, runs.Delete(ctx, manual.ID), repository.ErrRunNotFound)
	_, err = runs.FindByID(ctx, manual.ID)
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
	assert.ErrorIs(t, runs.UpdateDetails(ctx, manual.ID, model.RunDetails{}), repository.ErrRunNotFound)
}

func TestSQLiteEntities_SaveAndFind(t *testing.T) {
	store, _ := setupSQLiteStore(t)
	entities := store.Entities()
	ctx := context.Background()

	team := &model.Team{ExternalID: 1610612747, Name: "Lakers", Abbreviation: "LAL", City: "Los Angeles"}
	team.MarkCreatedFromAPI(testNow)
	require.NoError(t, entities.SaveTeam(ctx, team))
	require.NotZero(t, team.ID)

	byAbbr, err := entities.FindTeamByAbbreviation(ctx, "lal")
	require.NoError(t, err)
	assert.Equal(t, team.ID, byAbbr.ID)
	assert.Equal(t, model.SourceAPI, byAbbr.Source)
	require.NotNil(t, byAbbr.LastAPISync)
	assert.Equal(t, testNow, *byAbbr.LastAPISync)

	byAbbr.MarkOverride("trade pending", testNow)
	byAbbr.City = "LA"
	require.NoError(t, entities.SaveTeam(ctx, byAbbr))
	reloaded, err := entities.FindTeamByExternalID(ctx, 1610612747)
	require.NoError(t, err)
	assert.Equal(t, "LA", reloaded.City)
	assert.True(t, reloaded.IsManualOverride)
	assert.Equal(t, "trade pending", reloaded.OverrideReason)
	assert.Equal(t, testNow, reloaded.CreatedAt)

	ghost := &model.Team{ID: 404, Name: "Ghost", Abbreviation: "GHO"}
	assert.ErrorIs(t, entities.SaveTeam(ctx, ghost), repository.ErrEntityNotFound)
	_, err = entities.FindTeamByID(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)

	home, away := 110, 102
	for i, start := range []time.Time{testNow.Add(-3 * time.Hour), testNow.Add(-10 * time.Hour), testNow.Add(time.Hour)} {
		g := &model.Game{
			ExternalID: []string{"0022500001", "0022500002", "0022500003"}[i],
			Season:     "2025-26", SeasonType: "Regular Season",
			HomeTeamID: team.ID, AwayTeamID: team.ID,
			StartTime: start, Status: model.GameStatusScheduled,
		}
		if i == 0 {
			g.Status, g.HomeScore, g.AwayScore = model.GameStatusFinal, &home, &away
		}
		g.MarkCreatedFromAPI(testNow)
		require.NoError(t, entities.SaveGame(ctx, g))
	}
	window, err := entities.ListGamesStartedBetween(ctx, testNow.Add(-7*time.Hour), testNow)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "0022500001", window[0].ExternalID)
	require.True(t, window[0].HasScores())
	assert.Equal(t, 110, *window[0].HomeScore)
}

func TestSQLiteEntities_ListStaleSeasonStats(t *testing.T) {
	store, _ := setupSQLiteStore(t)
	entities := store.Entities()
	ctx := context.Background()

	var playerIDs []uint
	for i := int64(1); i <= 4; i++ {
		p := &model.Player{ExternalID: 200 + i, FullName: "Player"}
		p.MarkCreatedFromAPI(testNow)
		require.NoError(t, entities.SavePlayer(ctx, p))
		playerIDs = append(playerIDs, p.ID)
	}
	fresh, stale := testNow.Add(-time.Hour), testNow.Add(-96*time.Hour)
	rows := []struct {
		synced   *time.Time
		override bool
	}{
		{&fresh, false},
		{&stale, false},
		{nil, false},
		{nil, true},
	}
	for i, r := range rows {
		st := &model.PlayerSeasonStats{PlayerID: playerIDs[i], Season: "2025-26", SeasonType: "Regular Season"}
		st.Source = model.SourceAPI
		st.LastAPISync = r.synced
		st.IsManualOverride = r.override
		require.NoError(t, entities.SaveSeasonStats(ctx, st))
	}

	out, err := entities.ListStaleSeasonStats(ctx, "2025-26", "Regular Season", testNow.Add(-72*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, playerIDs[2], out[0].PlayerID, "never-synced rows come first")
	assert.Equal(t, playerIDs[1], out[1].PlayerID)

	all, err := entities.ListStaleSeasonStats(ctx, "2025-26", "Regular Season", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "overridden rows are never listed")
}

func TestSQLiteEntities_JoinContextTransaction(t *testing.T) {
	store, txManager := setupSQLiteStore(t)
	entities := store.Entities()
	ctx := context.Background()

	session := tx.NewSession(txManager)
	txCtx, err := session.Begin(ctx)
	require.NoError(t, err)
	discarded := &model.Team{ExternalID: 1, Name: "Discarded", Abbreviation: "DIS"}
	require.NoError(t, entities.SaveTeam(txCtx, discarded))
	rolled, err := session.Rollback()
	require.NoError(t, err)
	assert.True(t, rolled)

	txCtx, err = session.Begin(ctx)
	require.NoError(t, err)
	kept := &model.Team{ExternalID: 2, Name: "Kept", Abbreviation: "KEP"}
	require.NoError(t, entities.SaveTeam(txCtx, kept))
	require.NoError(t, session.Commit())

	teams, err := entities.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "KEP", teams[0].Abbreviation)
}
