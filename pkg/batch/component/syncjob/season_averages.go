package syncjob

import (
	"context"
	"errors"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// errNoSeasonLine is logged for players whose career has no line for the season.
var errNoSeasonLine = errors.New("no career line for the season")

type averagesTarget struct {
	stats  *model.PlayerSeasonStats
	player *model.Player
}

// UpdatePlayerSeasonAverages refreshes up to batch_size current-season rows that are
// stale (never synced or older than the season-averages TTL) from career lines.
// Overridden rows are never selected.
func (j *Jobs) UpdatePlayerSeasonAverages(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	b := newBatch(jc, j.cfg.CommitEvery, j.cfg.ProgressEvery)
	var t tally

	syncedBefore := j.engine.Now().Add(-j.cfg.TTL.SeasonAverages)
	if p.Force {
		syncedBefore = time.Time{}
	}
	rows, err := j.store.ListStaleSeasonStats(ctx, j.cfg.Season, j.cfg.SeasonType, syncedBefore, p.BatchSizeOrDefault())
	if err != nil {
		return job.Result{}, err
	}
	jc.Progress.Logf("Batch size %d: %d stale %s rows for %s", p.BatchSizeOrDefault(), len(rows), j.cfg.SeasonType, j.cfg.Season)
	jc.Progress.Set("players_selected", len(rows))
	if len(rows) == 0 {
		return finish(b, &t, "players")
	}

	targets := make([]averagesTarget, 0, len(rows))
	for _, st := range rows {
		pl, err := j.store.FindPlayerByID(ctx, st.PlayerID)
		if errors.Is(err, repository.ErrEntityNotFound) {
			jc.Progress.Logf("Season stats %d reference missing player %d, skipping", st.ID, st.PlayerID)
			continue
		}
		if err != nil {
			return job.Result{}, err
		}
		targets = append(targets, averagesTarget{stats: st, player: pl})
	}
	jc.Progress.Flush(ctx)

	careers, err := fetchAll(ctx, jc, j.cfg.FetchConcurrency, targets, func(ctx context.Context, tg averagesTarget) ([]port.CareerSeason, error) {
		return j.source.PlayerCareer(ctx, tg.player.ExternalID)
	})
	if err != nil {
		return job.Result{}, err
	}

	policy := reconcile.Policy{TTL: j.cfg.TTL.SeasonAverages, Force: p.Force}
	for i, tg := range targets {
		r := careers[i]
		if r.err != nil {
			t.fail()
			jc.Progress.Error(tg.player.Label(), r.err)
			continue
		}
		line, ok := seasonLine(r.val, tg.stats.Season)
		if !ok {
			t.fail()
			jc.Progress.Error(tg.player.Label(), errNoSeasonLine)
			continue
		}
		t.ok()

		txCtx, err := b.begin(ctx)
		if err != nil {
			return job.Result{}, err
		}
		d, err := apply(txCtx, j.engine, b, tg.stats, true, seasonStatsFromCareer(line, tg.stats), policy, j.store.SaveSeasonStats)
		if err != nil {
			return job.Result{}, err
		}
		if d.Counts() {
			jc.Progress.Add("players_updated", 1)
			jc.Progress.Logf("%s: %.1f pts %.1f reb %.1f ast in %d games", tg.player.FullName, line.Pts, line.Reb, line.Ast, line.GamesPlayed)
		}
		if err := b.done(ctx); err != nil {
			return job.Result{}, err
		}
	}
	return finish(b, &t, "players")
}
