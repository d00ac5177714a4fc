// Package syncjob holds the canonical bodies of the scheduled sync jobs.
//
// Every body follows the same shape: fetch from the upstream source (concurrently
// where the job fans out), check the cancellation token, then reconcile the fetched
// records one by one through a batch that commits every sync.commit_every records.
// Upstream failures are logged against the entity and processing continues; a run
// fails only when every entity it attempted failed.
package syncjob

import (
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

// Job names.
const (
	JobUpdateFinishedGames        = "update_finished_games"
	JobUpdatePlayerSeasonAverages = "update_player_season_averages"
	JobUpdateSchedules            = "update_schedules"
	JobUpdatePlayersTeam          = "update_players_team"
	JobUpdateTeamResults          = "update_team_results"
)

// DefaultResultsLimit is how many completed games per team update_team_results revisits.
const DefaultResultsLimit = 5

// finishedAfter is how long after tip-off a game is expected to be over.
// It only orders the games checked first.
const finishedAfter = 2 * time.Hour

// Jobs binds the sync bodies to their collaborators.
type Jobs struct {
	store  repository.EntityStore
	source port.UpstreamSource
	engine *reconcile.Engine
	cfg    config.SyncConfig
}

// New creates the sync jobs.
func New(store repository.EntityStore, source port.UpstreamSource, engine *reconcile.Engine, cfg config.SyncConfig) *Jobs {
	if cfg.CommitEvery <= 0 {
		cfg.CommitEvery = 25
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 5
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	return &Jobs{store: store, source: source, engine: engine, cfg: cfg}
}

// Entries returns the catalog entries of the sync jobs. Intervals in overrides
// replace the defaults; a zero override makes the job manual-only.
func (j *Jobs) Entries(overrides map[string]time.Duration) []schedule.Entry {
	entries := []schedule.Entry{
		{
			Name:        JobUpdateFinishedGames,
			Description: "Update scores of recently finished games, then standings and player box scores",
			Every:       2 * time.Hour,
			Body:        j.UpdateFinishedGames,
		},
		{
			Name:        JobUpdatePlayerSeasonAverages,
			Description: "Refresh stale player season averages from career lines",
			Every:       72 * time.Hour,
			Body:        j.UpdatePlayerSeasonAverages,
		},
		{
			Name:        JobUpdateSchedules,
			Description: "Sync teams and every team's season schedule",
			Every:       72 * time.Hour,
			Body:        j.UpdateSchedules,
		},
		{
			Name:        JobUpdatePlayersTeam,
			Description: "Sync team rosters onto players",
			Every:       7 * 24 * time.Hour,
			Body:        j.UpdatePlayersTeam,
		},
		{
			Name:        JobUpdateTeamResults,
			Description: "Sync league standings and the latest completed games of every team",
			Every:       24 * time.Hour,
			Body:        j.UpdateTeamResults,
		},
	}
	for i := range entries {
		if every, ok := overrides[entries[i].Name]; ok {
			entries[i].Every = every
		}
	}
	return entries
}

// finish closes the run: it commits the open batch and reports a failure when
// every attempted entity failed.
func finish(b *batch, t *tally, what string) (job.Result, error) {
	if err := b.commit(); err != nil {
		return job.Result{}, err
	}
	res := job.Result{ItemsUpdated: b.items()}
	if t.allFailed() {
		res.Status = model.RunStatusFailed
		res.Error = t.failureMessage(what)
	}
	return res, nil
}
