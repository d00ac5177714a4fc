package syncjob

import (
	"context"
	"fmt"
	"sort"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// UpdateSchedules reconciles the teams known upstream, then every team's season
// schedule. Games against a team unknown locally are skipped.
func (j *Jobs) UpdateSchedules(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	b := newBatch(jc, j.cfg.CommitEvery, j.cfg.ProgressEvery)
	var t tally

	records, err := j.source.Teams(ctx)
	if cerr := jc.Checkpoint(); cerr != nil {
		return job.Result{}, cerr
	}
	if err != nil {
		t.fail()
		jc.Progress.Error("teams", err)
		return finish(b, &t, "teams")
	}
	if err := j.syncTeams(ctx, jc, b, records); err != nil {
		return job.Result{}, err
	}
	if err := b.checkpoint(ctx); err != nil {
		return job.Result{}, err
	}

	teams, err := j.loadTeams(ctx)
	if err != nil {
		return job.Result{}, err
	}
	targets, err := selectTeams(teams, p.TeamID)
	if err != nil {
		return job.Result{Status: model.RunStatusFailed, Error: err.Error()}, nil
	}
	jc.Progress.Logf("Fetching %s %s schedules of %d teams", j.cfg.Season, j.cfg.SeasonType, len(targets))
	jc.Progress.Flush(ctx)

	schedules, err := fetchAll(ctx, jc, j.cfg.FetchConcurrency, targets, func(ctx context.Context, team *model.Team) ([]port.GameRecord, error) {
		return j.source.TeamSchedule(ctx, team.ExternalID, j.cfg.Season, j.cfg.SeasonType)
	})
	if err != nil {
		return job.Result{}, err
	}

	policy := reconcile.Policy{TTL: j.cfg.TTL.Games, Force: p.Force}
	seen := make(map[string]bool)
	for i, team := range targets {
		r := schedules[i]
		if r.err != nil {
			t.fail()
			jc.Progress.Error(team.Label(), r.err)
			continue
		}
		t.ok()
		changed := 0
		for _, rec := range r.val {
			if seen[rec.ExternalID] {
				continue
			}
			seen[rec.ExternalID] = true
			counted, err := j.reconcileGame(ctx, jc, b, teams, rec, policy)
			if err != nil {
				return job.Result{}, err
			}
			if counted {
				changed++
			}
		}
		jc.Progress.Logf("%s: %d games in schedule, %d changed", team.Abbreviation, len(r.val), changed)
	}
	return finish(b, &t, "teams")
}

// syncTeams reconciles the upstream team list.
func (j *Jobs) syncTeams(ctx context.Context, jc *job.Context, b *batch, records []port.TeamRecord) error {
	policy := reconcile.Policy{TTL: j.cfg.TTL.PlayerInfo, Force: jc.Params.Force}
	for _, rec := range records {
		txCtx, err := b.begin(ctx)
		if err != nil {
			return err
		}
		local, found, err := lookup(j.store.FindTeamByExternalID(txCtx, rec.ExternalID))
		if err != nil {
			return err
		}
		d, err := apply(txCtx, j.engine, b, local, found, teamFromRecord(rec), policy, j.store.SaveTeam)
		if err != nil {
			return err
		}
		if d.Counts() {
			jc.Progress.Add("teams_changed", 1)
		}
		if err := b.done(ctx); err != nil {
			return err
		}
	}
	jc.Progress.Logf("Teams: %d upstream, %d changed", len(records), jc.Progress.Count("teams_changed"))
	return nil
}

// reconcileGame reconciles one upstream game and reports whether it counted as a change.
func (j *Jobs) reconcileGame(ctx context.Context, jc *job.Context, b *batch, teams teamIndex, rec port.GameRecord, policy reconcile.Policy) (bool, error) {
	incoming, ok := gameFromRecord(rec, teams, j.cfg.Season, j.cfg.SeasonType)
	if !ok {
		jc.Progress.Logf("Game %s: unknown team (%d vs %d), skipping", rec.ExternalID, rec.HomeTeamID, rec.AwayTeamID)
		return false, nil
	}
	txCtx, err := b.begin(ctx)
	if err != nil {
		return false, err
	}
	local, found, err := lookup(j.store.FindGameByExternalID(txCtx, rec.ExternalID))
	if err != nil {
		return false, err
	}
	d, err := apply(txCtx, j.engine, b, local, found, incoming, policy, j.store.SaveGame)
	if err != nil {
		return false, err
	}
	if d.Counts() {
		jc.Progress.Add("games_changed", 1)
	}
	return d.Counts(), b.done(ctx)
}

// selectTeams returns the team with upstream id teamID, or every team when it is zero,
// ordered by abbreviation.
func selectTeams(teams teamIndex, teamID int64) ([]*model.Team, error) {
	if teamID != 0 {
		team, ok := teams[teamID]
		if !ok {
			return nil, fmt.Errorf("team %d is not known locally", teamID)
		}
		return []*model.Team{team}, nil
	}
	out := make([]*model.Team, 0, len(teams))
	for _, team := range teams {
		out = append(out, team)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Abbreviation < out[k].Abbreviation })
	return out, nil
}
