package syncjob

import (
	"context"
	"sort"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// UpdateTeamResults reconciles the league standings, then the most recent
// completed games of every team.
func (j *Jobs) UpdateTeamResults(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	b := newBatch(jc, j.cfg.CommitEvery, j.cfg.ProgressEvery)
	var t tally

	teams, err := j.loadTeams(ctx)
	if err != nil {
		return job.Result{}, err
	}
	targets, err := selectTeams(teams, p.TeamID)
	if err != nil {
		return job.Result{Status: model.RunStatusFailed, Error: err.Error()}, nil
	}
	if len(targets) == 0 {
		jc.Progress.Logf("No teams stored yet, run %s first", JobUpdateSchedules)
		return finish(b, &t, "teams")
	}
	selected := make(map[uint]bool, len(targets))
	for _, team := range targets {
		selected[team.ID] = true
	}

	standings, err := j.source.LeagueStandings(ctx, j.cfg.Season, j.cfg.SeasonType)
	if cerr := jc.Checkpoint(); cerr != nil {
		return job.Result{}, cerr
	}
	if err != nil {
		t.fail()
		jc.Progress.Error("league standings", err)
	} else {
		t.ok()
		policy := reconcile.Policy{TTL: j.cfg.TTL.Standings, Force: p.Force}
		for _, rec := range standings {
			team, ok := teams[rec.TeamID]
			if !ok || !selected[team.ID] {
				continue
			}
			d, err := j.reconcileStanding(ctx, b, rec, team, policy)
			if err != nil {
				return job.Result{}, err
			}
			if d.Counts() {
				jc.Progress.Add("standings_updated", 1)
			}
			if err := b.done(ctx); err != nil {
				return job.Result{}, err
			}
		}
		jc.Progress.Logf("Standings: %d rows, %d updated", len(standings), jc.Progress.Count("standings_updated"))
	}
	if err := b.checkpoint(ctx); err != nil {
		return job.Result{}, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultResultsLimit
	}
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
		recent := latestCompleted(r.val, limit)
		changed := 0
		for _, rec := range recent {
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
		jc.Progress.Logf("%s: %d recent results, %d changed", team.Abbreviation, len(recent), changed)
	}
	return finish(b, &t, "teams")
}

// latestCompleted returns up to limit final games, most recent first.
func latestCompleted(games []port.GameRecord, limit int) []port.GameRecord {
	var done []port.GameRecord
	for _, g := range games {
		if g.IsFinal() {
			done = append(done, g)
		}
	}
	sort.SliceStable(done, func(i, k int) bool { return done[i].StartTime.After(done[k].StartTime) })
	if len(done) > limit {
		done = done[:limit]
	}
	return done
}
