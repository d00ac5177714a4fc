package inmemory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// Entities returns the Store as an EntityStore.
func (s *Store) Entities() repository.EntityStore { return entities{s} }

type entities struct{ s *Store }

var _ repository.EntityStore = entities{}

// find returns a copy of the first row matching pred.
func find[T any](s *Store, rows map[uint]*T, pred func(*T) bool) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	for _, id := range ids {
		if pred(rows[id]) {
			c := *rows[id]
			return &c, nil
		}
	}
	return nil, repository.ErrEntityNotFound
}

// filter returns copies of every row matching pred, in ID order.
func filter[T any](s *Store, rows map[uint]*T, pred func(*T) bool) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	var out []*T
	for _, id := range ids {
		if pred(rows[id]) {
			c := *rows[id]
			out = append(out, &c)
		}
	}
	return out
}

// save inserts (id == 0) or replaces a row and stamps its metadata.
func save[T any](s *Store, table string, rows map[uint]*T, id *uint, meta *model.SourceMeta, row *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if *id == 0 {
		*id = s.id(table)
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = now
		}
	} else if _, ok := rows[*id]; !ok {
		return repository.ErrEntityNotFound
	}
	meta.UpdatedAt = now
	c := *row
	rows[*id] = &c
	return nil
}

func (e entities) ListTeams(context.Context) ([]*model.Team, error) {
	out := filter(e.s, e.s.teams, func(*model.Team) bool { return true })
	sort.Slice(out, func(i, k int) bool { return out[i].Abbreviation < out[k].Abbreviation })
	return out, nil
}

func (e entities) FindTeamByID(_ context.Context, id uint) (*model.Team, error) {
	return find(e.s, e.s.teams, func(t *model.Team) bool { return t.ID == id })
}

func (e entities) FindTeamByExternalID(_ context.Context, externalID int64) (*model.Team, error) {
	return find(e.s, e.s.teams, func(t *model.Team) bool { return t.ExternalID == externalID })
}

func (e entities) FindTeamByAbbreviation(_ context.Context, abbr string) (*model.Team, error) {
	return find(e.s, e.s.teams, func(t *model.Team) bool { return strings.EqualFold(t.Abbreviation, abbr) })
}

func (e entities) SaveTeam(_ context.Context, t *model.Team) error {
	return save(e.s, "teams", e.s.teams, &t.ID, &t.SourceMeta, t)
}

func (e entities) FindPlayerByID(_ context.Context, id uint) (*model.Player, error) {
	return find(e.s, e.s.players, func(p *model.Player) bool { return p.ID == id })
}

func (e entities) FindPlayerByExternalID(_ context.Context, externalID int64) (*model.Player, error) {
	return find(e.s, e.s.players, func(p *model.Player) bool { return p.ExternalID == externalID })
}

func (e entities) ListPlayersByTeam(_ context.Context, teamID uint) ([]*model.Player, error) {
	return filter(e.s, e.s.players, func(p *model.Player) bool { return p.TeamID != nil && *p.TeamID == teamID }), nil
}

func (e entities) SavePlayer(_ context.Context, p *model.Player) error {
	return save(e.s, "players", e.s.players, &p.ID, &p.SourceMeta, p)
}

func (e entities) FindGameByID(_ context.Context, id uint) (*model.Game, error) {
	return find(e.s, e.s.games, func(g *model.Game) bool { return g.ID == id })
}

func (e entities) FindGameByExternalID(_ context.Context, externalID string) (*model.Game, error) {
	return find(e.s, e.s.games, func(g *model.Game) bool { return g.ExternalID == externalID })
}

func (e entities) ListGamesStartedBetween(_ context.Context, from, to time.Time) ([]*model.Game, error) {
	out := filter(e.s, e.s.games, func(g *model.Game) bool {
		return !g.StartTime.Before(from) && g.StartTime.Before(to)
	})
	sort.SliceStable(out, func(i, k int) bool { return out[i].StartTime.Before(out[k].StartTime) })
	return out, nil
}

func (e entities) SaveGame(_ context.Context, g *model.Game) error {
	return save(e.s, "games", e.s.games, &g.ID, &g.SourceMeta, g)
}

func (e entities) FindSeasonStatsByID(_ context.Context, id uint) (*model.PlayerSeasonStats, error) {
	return find(e.s, e.s.seasonStats, func(st *model.PlayerSeasonStats) bool { return st.ID == id })
}

func (e entities) FindSeasonStats(_ context.Context, playerID uint, season, seasonType string) (*model.PlayerSeasonStats, error) {
	return find(e.s, e.s.seasonStats, func(st *model.PlayerSeasonStats) bool {
		return st.PlayerID == playerID && st.Season == season && st.SeasonType == seasonType
	})
}

func (e entities) ListStaleSeasonStats(_ context.Context, season, seasonType string, syncedBefore time.Time, limit int) ([]*model.PlayerSeasonStats, error) {
	out := filter(e.s, e.s.seasonStats, func(st *model.PlayerSeasonStats) bool {
		if st.Season != season || st.SeasonType != seasonType || st.IsManualOverride {
			return false
		}
		return syncedBefore.IsZero() || st.LastAPISync == nil || st.LastAPISync.Before(syncedBefore)
	})
	sort.SliceStable(out, func(i, k int) bool {
		a, b := out[i].LastAPISync, out[k].LastAPISync
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (e entities) SaveSeasonStats(_ context.Context, st *model.PlayerSeasonStats) error {
	return save(e.s, "season_stats", e.s.seasonStats, &st.ID, &st.SourceMeta, st)
}

func (e entities) FindGameStatsByID(_ context.Context, id uint) (*model.PlayerGameStats, error) {
	return find(e.s, e.s.gameStats, func(st *model.PlayerGameStats) bool { return st.ID == id })
}

func (e entities) FindGameStats(_ context.Context, playerID, gameID uint) (*model.PlayerGameStats, error) {
	return find(e.s, e.s.gameStats, func(st *model.PlayerGameStats) bool {
		return st.PlayerID == playerID && st.GameID == gameID
	})
}

func (e entities) SaveGameStats(_ context.Context, st *model.PlayerGameStats) error {
	return save(e.s, "game_stats", e.s.gameStats, &st.ID, &st.SourceMeta, st)
}

func (e entities) FindStandingByID(_ context.Context, id uint) (*model.TeamStanding, error) {
	return find(e.s, e.s.standings, func(st *model.TeamStanding) bool { return st.ID == id })
}

func (e entities) FindStanding(_ context.Context, teamID uint, season, seasonType string) (*model.TeamStanding, error) {
	return find(e.s, e.s.standings, func(st *model.TeamStanding) bool {
		return st.TeamID == teamID && st.Season == season && st.SeasonType == seasonType
	})
}

func (e entities) SaveStanding(_ context.Context, st *model.TeamStanding) error {
	return save(e.s, "standings", e.s.standings, &st.ID, &st.SourceMeta, st)
}
