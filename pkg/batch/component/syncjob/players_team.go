package syncjob

import (
	"context"
	"slices"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// UpdatePlayersTeam fetches every team's roster and moves players onto the team
// that lists them. Players unknown locally are created.
func (j *Jobs) UpdatePlayersTeam(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	b := newBatch(jc, j.cfg.CommitEvery, j.cfg.ProgressEvery)
	var t tally

	teams, err := j.loadTeams(ctx)
	if err != nil {
		return job.Result{}, err
	}
	if len(teams) == 0 {
		jc.Progress.Logf("No teams stored yet, run %s first", JobUpdateSchedules)
		return finish(b, &t, "rosters")
	}
	targets, err := selectTeams(teams, p.TeamID)
	if err != nil {
		return job.Result{Status: model.RunStatusFailed, Error: err.Error()}, nil
	}
	jc.Progress.Logf("Fetching rosters of %d teams", len(targets))
	jc.Progress.Flush(ctx)

	rosters, err := fetchAll(ctx, jc, j.cfg.FetchConcurrency, targets, func(ctx context.Context, team *model.Team) ([]port.RosterEntry, error) {
		return j.source.TeamRoster(ctx, team.ExternalID, j.cfg.Season)
	})
	if err != nil {
		return job.Result{}, err
	}

	policy := reconcile.Policy{TTL: j.cfg.TTL.PlayerInfo, Force: p.Force}
	for i, team := range targets {
		r := rosters[i]
		if r.err != nil {
			t.fail()
			jc.Progress.Error(team.Label(), r.err)
			continue
		}
		t.ok()
		moved, created := 0, 0
		for _, entry := range r.val {
			txCtx, err := b.begin(ctx)
			if err != nil {
				return job.Result{}, err
			}
			local, found, err := lookup(j.store.FindPlayerByExternalID(txCtx, entry.PlayerID))
			if err != nil {
				return job.Result{}, err
			}
			d, err := apply(txCtx, j.engine, b, local, found, playerFromRoster(entry, team.ID), policy, j.store.SavePlayer)
			if err != nil {
				return job.Result{}, err
			}
			switch {
			case d.Action == reconcile.ActionCreate:
				created++
			case slices.Contains(d.Changed, "team_id"):
				moved++
				jc.Progress.Logf("%s joined %s", entry.Name, team.Abbreviation)
			}
			if d.Counts() {
				jc.Progress.Add("players_updated", 1)
			}
			if err := b.done(ctx); err != nil {
				return job.Result{}, err
			}
		}
		jc.Progress.Logf("%s: %d on roster, %d joined, %d new", team.Abbreviation, len(r.val), moved, created)
	}
	return finish(b, &t, "rosters")
}
