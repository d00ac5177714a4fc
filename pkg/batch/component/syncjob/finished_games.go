package syncjob

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
)

// UpdateFinishedGames checks the games that started within the look-back window,
// records final scores, refreshes the standings of the teams involved and stores
// the box score lines of every final game.
//
// Only the upstream status decides whether a game is finished. Elapsed time since
// tip-off just orders the games so the ones most likely over are checked first.
func (j *Jobs) UpdateFinishedGames(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	now := j.engine.Now()
	from := now.Add(-time.Duration(p.HoursBackOrDefault()) * time.Hour)
	b := newBatch(jc, j.cfg.CommitEvery, j.cfg.ProgressEvery)
	var t tally

	jc.Progress.Logf("Looking for games that started in the last %d hours (%s to %s UTC)",
		p.HoursBackOrDefault(), from.Format(time.DateTime), now.Format(time.DateTime))

	teams, err := j.loadTeams(ctx)
	if err != nil {
		return job.Result{}, err
	}
	games, err := j.store.ListGamesStartedBetween(ctx, from, now)
	if err != nil {
		return job.Result{}, err
	}
	jc.Progress.Set("games_found", len(games))
	if len(games) == 0 {
		jc.Progress.Logf("No games found in the window, nothing to do")
		return finish(b, &t, "entities")
	}

	candidates := gamesToCheck(games, now, p.Force)
	jc.Progress.Logf("Found %d games, %d to check upstream", len(games), len(candidates))
	jc.Progress.Flush(ctx)

	justFinal, err := j.checkGames(ctx, jc, b, &t, teams, candidates)
	if err != nil {
		return job.Result{}, err
	}

	involved := make(map[uint]bool)
	var finals []*model.Game
	for _, g := range games {
		involved[g.HomeTeamID] = true
		involved[g.AwayTeamID] = true
		if g.IsFinal() {
			finals = append(finals, g)
		}
	}

	if err := j.refreshStandings(ctx, jc, b, &t, teams, involved, justFinal); err != nil {
		return job.Result{}, err
	}

	if len(finals) == 0 {
		jc.Progress.Logf("No final games, skipping player box scores")
	}
	for _, g := range finals {
		if err := j.syncBoxScores(ctx, jc, b, &t, teams, g); err != nil {
			return job.Result{}, err
		}
	}

	res, err := finish(b, &t, "entities")
	if err == nil {
		jc.Progress.Logf("Done: %d games, %d standings, %d box score lines updated",
			jc.Progress.Count("games_updated"), jc.Progress.Count("standings_updated"), jc.Progress.Count("player_stats_updated"))
	}
	return res, err
}

// gamesToCheck returns the games whose local state is incomplete (every game when
// forced), games expected to be over first.
func gamesToCheck(games []*model.Game, now time.Time, force bool) []*model.Game {
	var out []*model.Game
	for _, g := range games {
		if force || !g.IsFinal() || !g.HasScores() {
			out = append(out, g)
		}
	}
	cutoff := now.Add(-finishedAfter)
	sort.SliceStable(out, func(i, k int) bool {
		iDue, kDue := !out[i].StartTime.After(cutoff), !out[k].StartTime.After(cutoff)
		if iDue != kDue {
			return iDue
		}
		return out[i].StartTime.Before(out[k].StartTime)
	})
	return out
}

// checkGames fetches the candidates concurrently and records the ones upstream
// reports as final. It returns the local ids of teams whose game just finished.
func (j *Jobs) checkGames(ctx context.Context, jc *job.Context, b *batch, t *tally, teams teamIndex, candidates []*model.Game) (map[uint]bool, error) {
	justFinal := make(map[uint]bool)
	if len(candidates) == 0 {
		jc.Progress.Logf("All games already have final scores")
		return justFinal, nil
	}

	results, err := fetchAll(ctx, jc, j.cfg.FetchConcurrency, candidates, func(ctx context.Context, g *model.Game) (*port.GameRecord, error) {
		return j.source.GameSummary(ctx, g.ExternalID)
	})
	if err != nil {
		return nil, err
	}

	for i, g := range candidates {
		label := fmt.Sprintf("%s @ %s", teams.abbr(g.AwayTeamID), teams.abbr(g.HomeTeamID))
		r := results[i]
		if r.err != nil {
			t.fail()
			jc.Progress.Error("game "+g.ExternalID, r.err)
			continue
		}
		t.ok()
		if !r.val.IsFinal() {
			jc.Progress.Logf("%s: still in progress (%s)", label, r.val.Status)
			continue
		}

		incoming, ok := gameFromRecord(*r.val, teams, g.Season, g.SeasonType)
		if !ok {
			incoming = &model.Game{
				Status:    model.NormalizeGameStatus(r.val.Status),
				StartTime: r.val.StartTime,
				HomeScore: r.val.HomeScore,
				AwayScore: r.val.AwayScore,
			}
		}
		oldStatus, oldScore := g.Status, scoreLine(g)

		txCtx, err := b.begin(ctx)
		if err != nil {
			return nil, err
		}
		// A game still listed as incomplete is stale whatever its last sync.
		d, err := apply(txCtx, j.engine, b, g, true, incoming, reconcile.Policy{Force: true}, j.store.SaveGame)
		if err != nil {
			return nil, err
		}
		switch {
		case d.Action == reconcile.ActionSkipOverride:
			jc.Progress.Logf("%s: manual override, leaving as is", label)
		case d.Counts():
			jc.Progress.Add("games_updated", 1)
			justFinal[g.HomeTeamID] = true
			justFinal[g.AwayTeamID] = true
			jc.Progress.Logf("%s: %s -> %s, score %s -> %s", label, oldStatus, g.Status, oldScore, scoreLine(g))
		}
		if err := b.done(ctx); err != nil {
			return nil, err
		}
	}
	return justFinal, nil
}

func scoreLine(g *model.Game) string {
	if !g.HasScores() {
		return "N/A"
	}
	return fmt.Sprintf("%d-%d", *g.HomeScore, *g.AwayScore)
}

// refreshStandings fetches the league standings once and reconciles the rows of
// the involved teams. Teams whose game just finished bypass the TTL.
func (j *Jobs) refreshStandings(ctx context.Context, jc *job.Context, b *batch, t *tally, teams teamIndex, involved, justFinal map[uint]bool) error {
	if len(involved) == 0 {
		return nil
	}
	if err := b.checkpoint(ctx); err != nil {
		return err
	}
	standings, err := j.source.LeagueStandings(ctx, j.cfg.Season, j.cfg.SeasonType)
	if cerr := jc.Checkpoint(); cerr != nil {
		return cerr
	}
	if err != nil {
		t.fail()
		jc.Progress.Error("league standings", err)
		return nil
	}
	t.ok()

	for _, rec := range standings {
		team, ok := teams[rec.TeamID]
		if !ok || !involved[team.ID] {
			continue
		}
		policy := reconcile.Policy{TTL: j.cfg.TTL.Standings, Force: jc.Params.Force || justFinal[team.ID]}
		d, err := j.reconcileStanding(ctx, b, rec, team, policy)
		if err != nil {
			return err
		}
		if d.Counts() {
			jc.Progress.Add("standings_updated", 1)
			jc.Progress.Logf("Standings %s: %d-%d", team.Abbreviation, rec.Wins, rec.Losses)
		}
		if err := b.done(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jobs) reconcileStanding(ctx context.Context, b *batch, rec port.StandingRecord, team *model.Team, policy reconcile.Policy) (reconcile.Decision, error) {
	txCtx, err := b.begin(ctx)
	if err != nil {
		return reconcile.Decision{}, err
	}
	local, found, err := lookup(j.store.FindStanding(txCtx, team.ID, j.cfg.Season, j.cfg.SeasonType))
	if err != nil {
		return reconcile.Decision{}, err
	}
	incoming := standingFromRecord(rec, team.ID, j.cfg.Season, j.cfg.SeasonType)
	return apply(txCtx, j.engine, b, local, found, incoming, policy, j.store.SaveStanding)
}

// syncBoxScores stores the line of every rostered player of both teams for g.
// Game logs are fetched concurrently; a player without a line for g is skipped.
func (j *Jobs) syncBoxScores(ctx context.Context, jc *job.Context, b *batch, t *tally, teams teamIndex, g *model.Game) error {
	txCtx, err := b.begin(ctx)
	if err != nil {
		return err
	}
	home, err := j.store.ListPlayersByTeam(txCtx, g.HomeTeamID)
	if err != nil {
		return err
	}
	away, err := j.store.ListPlayersByTeam(txCtx, g.AwayTeamID)
	if err != nil {
		return err
	}
	players := append(home, away...)
	if err := b.checkpoint(ctx); err != nil {
		return err
	}
	if len(players) == 0 {
		return nil
	}

	label := fmt.Sprintf("%s @ %s", teams.abbr(g.AwayTeamID), teams.abbr(g.HomeTeamID))
	jc.Progress.Logf("%s: fetching game logs of %d players", label, len(players))
	logs, err := fetchAll(ctx, jc, j.cfg.FetchConcurrency, players, func(ctx context.Context, pl *model.Player) ([]port.GameLogEntry, error) {
		return j.source.PlayerGameLog(ctx, pl.ExternalID, g.Season, g.SeasonType)
	})
	if err != nil {
		return err
	}

	policy := reconcile.Policy{TTL: j.cfg.TTL.PlayerStats, StaleBefore: g.StartTime, Force: jc.Params.Force}
	withLine := 0
	for i, pl := range players {
		r := logs[i]
		if r.err != nil {
			t.fail()
			jc.Progress.Error(pl.Label(), r.err)
			continue
		}
		t.ok()
		entry, ok := findLogEntry(r.val, g.ExternalID)
		if !ok {
			continue
		}
		withLine++

		txCtx, err := b.begin(ctx)
		if err != nil {
			return err
		}
		local, found, err := lookup(j.store.FindGameStats(txCtx, pl.ID, g.ID))
		if err != nil {
			return err
		}
		d, err := apply(txCtx, j.engine, b, local, found, gameStatsFromLog(entry, pl.ID, g.ID), policy, j.store.SaveGameStats)
		if err != nil {
			return err
		}
		if d.Counts() {
			jc.Progress.Add("player_stats_updated", 1)
		}
		if err := b.done(ctx); err != nil {
			return err
		}
	}
	jc.Progress.Logf("%s: %d of %d players have a line", label, withLine, len(players))
	return nil
}

func findLogEntry(log []port.GameLogEntry, gameID string) (port.GameLogEntry, bool) {
	for _, e := range log {
		if e.GameID == gameID {
			return e, true
		}
	}
	return port.GameLogEntry{}, false
}
