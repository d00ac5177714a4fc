package syncjob

import (
	"context"
	"strings"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// teamIndex resolves upstream team ids to local teams.
type teamIndex map[int64]*model.Team

func (j *Jobs) loadTeams(ctx context.Context) (teamIndex, error) {
	teams, err := j.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(teamIndex, len(teams))
	for _, t := range teams {
		idx[t.ExternalID] = t
	}
	return idx, nil
}

// byLocalID returns the team with local id, if indexed.
func (idx teamIndex) byLocalID(id uint) (*model.Team, bool) {
	for _, t := range idx {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// abbr returns the abbreviation of local team id for log lines.
func (idx teamIndex) abbr(id uint) string {
	if t, ok := idx.byLocalID(id); ok {
		return t.Abbreviation
	}
	return "???"
}

func teamFromRecord(r port.TeamRecord) *model.Team {
	return &model.Team{
		ExternalID:   r.ExternalID,
		Name:         r.Name,
		Abbreviation: strings.ToUpper(r.Abbreviation),
		City:         r.City,
		Conference:   r.Conference,
		Division:     r.Division,
	}
}

// gameFromRecord converts r; ok is false when either team is unknown locally.
func gameFromRecord(r port.GameRecord, teams teamIndex, season, seasonType string) (*model.Game, bool) {
	home, okHome := teams[r.HomeTeamID]
	away, okAway := teams[r.AwayTeamID]
	if !okHome || !okAway {
		return nil, false
	}
	if r.Season != "" {
		season = r.Season
	}
	if r.SeasonType != "" {
		seasonType = r.SeasonType
	}
	return &model.Game{
		ExternalID: r.ExternalID,
		Season:     season,
		SeasonType: seasonType,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		StartTime:  r.StartTime.UTC(),
		Status:     model.NormalizeGameStatus(r.Status),
		HomeScore:  r.HomeScore,
		AwayScore:  r.AwayScore,
	}, true
}

func playerFromRoster(r port.RosterEntry, teamID uint) *model.Player {
	id := teamID
	return &model.Player{
		ExternalID:   r.PlayerID,
		FullName:     r.Name,
		TeamID:       &id,
		Position:     r.Position,
		JerseyNumber: r.Number,
	}
}

func standingFromRecord(r port.StandingRecord, teamID uint, season, seasonType string) *model.TeamStanding {
	return &model.TeamStanding{
		TeamID:         teamID,
		Season:         season,
		SeasonType:     seasonType,
		Wins:           r.Wins,
		Losses:         r.Losses,
		WinPct:         r.WinPct,
		ConferenceRank: r.ConferenceRank,
		DivisionRank:   r.DivisionRank,
		GamesBack:      r.GamesBack,
		Streak:         r.Streak,
		LastTen:        r.LastTen,
	}
}

func gameStatsFromLog(e port.GameLogEntry, playerID, gameID uint) *model.PlayerGameStats {
	return &model.PlayerGameStats{
		PlayerID:  playerID,
		GameID:    gameID,
		Minutes:   e.Minutes,
		Pts:       e.Pts,
		Reb:       e.Reb,
		Ast:       e.Ast,
		Stl:       e.Stl,
		Blk:       e.Blk,
		Fgm:       e.Fgm,
		Fga:       e.Fga,
		Fg3m:      e.Fg3m,
		Fg3a:      e.Fg3a,
		Ftm:       e.Ftm,
		Fta:       e.Fta,
		Turnovers: e.Turnovers,
		PlusMinus: e.PlusMinus,
	}
}

// seasonLine picks the career line of season. A player traded mid-season has one
// line per team plus a combined line, which wins.
func seasonLine(career []port.CareerSeason, season string) (port.CareerSeason, bool) {
	var found *port.CareerSeason
	for i := range career {
		c := &career[i]
		if c.Season != season {
			continue
		}
		if c.TeamAbbreviation == port.TotalTeamAbbreviation {
			return *c, true
		}
		if found == nil {
			found = c
		}
	}
	if found == nil {
		return port.CareerSeason{}, false
	}
	return *found, true
}

func seasonStatsFromCareer(c port.CareerSeason, base *model.PlayerSeasonStats) *model.PlayerSeasonStats {
	return &model.PlayerSeasonStats{
		PlayerID:    base.PlayerID,
		Season:      base.Season,
		SeasonType:  base.SeasonType,
		GamesPlayed: c.GamesPlayed,
		Minutes:     c.Minutes,
		Pts:         c.Pts,
		Reb:         c.Reb,
		Ast:         c.Ast,
		Stl:         c.Stl,
		Blk:         c.Blk,
		FgPct:       c.FgPct,
		Fg3Pct:      c.Fg3Pct,
		FtPct:       c.FtPct,
	}
}
