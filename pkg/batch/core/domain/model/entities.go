package model

import (
	"fmt"
	"strings"
	"time"
)

// Team is a franchise known to the upstream source.
type Team struct {
	ID           uint
	ExternalID   int64
	Name         string
	Abbreviation string
	City         string
	Conference   string
	Division     string
	SourceMeta
}

func (t *Team) Kind() EntityKind { return KindTeam }
func (t *Team) Label() string    { return "team " + t.Abbreviation }

// MergeFrom copies src's business fields and returns the names of those that changed.
func (t *Team) MergeFrom(src *Team) []string {
	var c changes
	c.str("name", &t.Name, src.Name)
	c.str("abbreviation", &t.Abbreviation, src.Abbreviation)
	if src.City != "" {
		c.str("city", &t.City, src.City)
	}
	if src.Conference != "" {
		c.str("conference", &t.Conference, src.Conference)
	}
	if src.Division != "" {
		c.str("division", &t.Division, src.Division)
	}
	return c
}

// Player is a rostered athlete. TeamID is nil for free agents.
type Player struct {
	ID           uint
	ExternalID   int64
	FullName     string
	TeamID       *uint
	Position     string
	JerseyNumber string
	SourceMeta
}

func (p *Player) Kind() EntityKind { return KindPlayer }
func (p *Player) Label() string    { return "player " + p.FullName }

// MergeFrom copies src's business fields and returns the names of those that changed.
func (p *Player) MergeFrom(src *Player) []string {
	var c changes
	if src.FullName != "" {
		c.str("full_name", &p.FullName, src.FullName)
	}
	c.uintPtr("team_id", &p.TeamID, src.TeamID)
	if src.Position != "" {
		c.str("position", &p.Position, src.Position)
	}
	if src.JerseyNumber != "" {
		c.str("jersey_number", &p.JerseyNumber, src.JerseyNumber)
	}
	return c
}

// Game statuses as stored locally. Upstream statuses are stored verbatim.
const (
	GameStatusScheduled = "scheduled"
	GameStatusFinal     = "final"
)

// Game is a scheduled or completed game.
type Game struct {
	ID         uint
	ExternalID string
	Season     string
	SeasonType string
	HomeTeamID uint
	AwayTeamID uint
	StartTime  time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
	SourceMeta
}

func (g *Game) Kind() EntityKind { return KindGame }
func (g *Game) Label() string    { return "game " + g.ExternalID }

// IsFinal reports whether the stored status says the game has finished.
func (g *Game) IsFinal() bool {
	return IsFinalStatus(g.Status)
}

// HasScores reports whether both scores are known.
func (g *Game) HasScores() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// Involves reports whether teamID played in the game.
func (g *Game) Involves(teamID uint) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// MergeFrom copies src's business fields and returns the names of those that changed.
func (g *Game) MergeFrom(src *Game) []string {
	var c changes
	if src.Status != "" {
		c.str("status", &g.Status, src.Status)
	}
	if src.HomeScore != nil {
		c.intPtr("home_score", &g.HomeScore, src.HomeScore)
	}
	if src.AwayScore != nil {
		c.intPtr("away_score", &g.AwayScore, src.AwayScore)
	}
	c.time("start_time", &g.StartTime, src.StartTime)
	if src.HomeTeamID != 0 {
		c.uint("home_team_id", &g.HomeTeamID, src.HomeTeamID)
	}
	if src.AwayTeamID != 0 {
		c.uint("away_team_id", &g.AwayTeamID, src.AwayTeamID)
	}
	return c
}

// IsFinalStatus is the single authority on whether an upstream status means "finished".
func IsFinalStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "final")
}

// NormalizeGameStatus maps upstream status strings onto the stored vocabulary.
func NormalizeGameStatus(status string) string {
	s := strings.TrimSpace(status)
	switch {
	case s == "":
		return GameStatusScheduled
	case IsFinalStatus(s):
		return GameStatusFinal
	default:
		return strings.ToLower(s)
	}
}

// PlayerSeasonStats are a player's per-game averages for one season and season type.
type PlayerSeasonStats struct {
	ID          uint
	PlayerID    uint
	Season      string
	SeasonType  string
	GamesPlayed int
	Minutes     float64
	Pts         float64
	Reb         float64
	Ast         float64
	Stl         float64
	Blk         float64
	FgPct       *float64
	Fg3Pct      *float64
	FtPct       *float64
	SourceMeta
}

func (s *PlayerSeasonStats) Kind() EntityKind { return KindSeasonStats }
func (s *PlayerSeasonStats) Label() string {
	return fmt.Sprintf("season stats player=%d %s", s.PlayerID, s.Season)
}

// MergeFrom copies src's business fields and returns the names of those that changed.
func (s *PlayerSeasonStats) MergeFrom(src *PlayerSeasonStats) []string {
	var c changes
	c.int("games_played", &s.GamesPlayed, src.GamesPlayed)
	c.float("minutes", &s.Minutes, src.Minutes)
	c.float("pts", &s.Pts, src.Pts)
	c.float("reb", &s.Reb, src.Reb)
	c.float("ast", &s.Ast, src.Ast)
	c.float("stl", &s.Stl, src.Stl)
	c.float("blk", &s.Blk, src.Blk)
	c.floatPtr("fg_pct", &s.FgPct, src.FgPct)
	c.floatPtr("fg3_pct", &s.Fg3Pct, src.Fg3Pct)
	c.floatPtr("ft_pct", &s.FtPct, src.FtPct)
	return c
}

// PlayerGameStats is one player's box score line for one game.
type PlayerGameStats struct {
	ID        uint
	PlayerID  uint
	GameID    uint
	Minutes   float64
	Pts       int
	Reb       int
	Ast       int
	Stl       int
	Blk       int
	Fgm       int
	Fga       int
	Fg3m      int
	Fg3a      int
	Ftm       int
	Fta       int
	Turnovers int
	PlusMinus int
	SourceMeta
}

func (s *PlayerGameStats) Kind() EntityKind { return KindGameStats }
func (s *PlayerGameStats) Label() string {
	return fmt.Sprintf("game stats player=%d game=%d", s.PlayerID, s.GameID)
}

// MergeFrom copies src's business fields and returns the names of those that changed.
func (s *PlayerGameStats) MergeFrom(src *PlayerGameStats) []string {
	var c changes
	c.float("minutes", &s.Minutes, src.Minutes)
	c.int("pts", &s.Pts, src.Pts)
	c.int("reb", &s.Reb, src.Reb)
	c.int("ast", &s.Ast, src.Ast)
	c.int("stl", &s.Stl, src.Stl)
	c.int("blk", &s.Blk, src.Blk)
	c.int("fgm", &s.Fgm, src.Fgm)
	c.int("fga", &s.Fga, src.Fga)
	c.int("fg3m", &s.Fg3m, src.Fg3m)
	c.int("fg3a", &s.Fg3a, src.Fg3a)
	c.int("ftm", &s.Ftm, src.Ftm)
	c.int("fta", &s.Fta, src.Fta)
	c.int("turnovers", &s.Turnovers, src.Turnovers)
	c.int("plus_minus", &s.PlusMinus, src.PlusMinus)
	return c
}

// TeamStanding is a team's league standing for one season and season type.
type TeamStanding struct {
	ID             uint
	TeamID         uint
	Season         string
	SeasonType     string
	Wins           int
	Losses         int
	WinPct         float64
	ConferenceRank int
	DivisionRank   int
	GamesBack      float64
	Streak         string
	LastTen        string
	SourceMeta
}

func (s *TeamStanding) Kind() EntityKind { return KindStanding }
func (s *TeamStanding) Label() string {
	return fmt.Sprintf("standing team=%d %s", s.TeamID, s.Season)
}

// MergeFrom copies src's business fields and returns the names of those that changed.
func (s *TeamStanding) MergeFrom(src *TeamStanding) []string {
	var c changes
	c.int("wins", &s.Wins, src.Wins)
	c.int("losses", &s.Losses, src.Losses)
	c.float("win_pct", &s.WinPct, src.WinPct)
	c.int("conference_rank", &s.ConferenceRank, src.ConferenceRank)
	c.int("division_rank", &s.DivisionRank, src.DivisionRank)
	c.float("games_back", &s.GamesBack, src.GamesBack)
	c.str("streak", &s.Streak, src.Streak)
	c.str("last_ten", &s.LastTen, src.LastTen)
	return c
}
