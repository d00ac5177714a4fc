// Package port defines the collaborators the sync core consumes but does not implement.
package port

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// UpstreamSource is the external sports-data provider. Each call returns normalized
// records or an error; transient failures are reported as retryable
// exception.BatchError values and retried by the caller's decorator, never by the source.
type UpstreamSource interface {
	// Teams returns every team the provider knows.
	Teams(ctx context.Context) ([]TeamRecord, error)

	// GameSummary returns the current state of one game.
	//
	// Parameters:
	//   ctx: The context for the call.
	//   gameID: The provider's game identifier.
	//
	// Returns:
	//   *GameRecord: The game, with scores when the provider has them.
	//   error: exception.ErrNotFound when the provider does not know the game.
	GameSummary(ctx context.Context, gameID string) (*GameRecord, error)

	// TeamSchedule returns every game of a team's season, played or not.
	TeamSchedule(ctx context.Context, teamID int64, season, seasonType string) ([]GameRecord, error)

	// TeamRoster returns the current roster of a team.
	TeamRoster(ctx context.Context, teamID int64, season string) ([]RosterEntry, error)

	// LeagueStandings returns one row per team.
	LeagueStandings(ctx context.Context, season, seasonType string) ([]StandingRecord, error)

	// PlayerGameLog returns the per-game lines of a player for one season, most recent first.
	PlayerGameLog(ctx context.Context, playerID int64, season, seasonType string) ([]GameLogEntry, error)

	// PlayerCareer returns per-game averages for every season a player appeared in.
	PlayerCareer(ctx context.Context, playerID int64) ([]CareerSeason, error)
}

// TeamRecord is a team as reported upstream.
type TeamRecord struct {
	ExternalID   int64  `json:"team_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city,omitempty"`
	Conference   string `json:"conference,omitempty"`
	Division     string `json:"division,omitempty"`
}

// GameRecord is a game as reported upstream. Teams are referenced by their upstream ids.
type GameRecord struct {
	ExternalID string    `json:"game_id"`
	Season     string    `json:"season,omitempty"`
	SeasonType string    `json:"season_type,omitempty"`
	HomeTeamID int64     `json:"home_team_id"`
	AwayTeamID int64     `json:"away_team_id"`
	StartTime  time.Time `json:"start_time"`
	// Status is the provider's free-form status text, e.g. "Final", "Q3 5:12", "7:30 pm ET".
	Status    string `json:"status"`
	HomeScore *int   `json:"home_score,omitempty"`
	AwayScore *int   `json:"away_score,omitempty"`
}

// IsFinal reports whether the provider considers the game finished.
func (g GameRecord) IsFinal() bool {
	return model.IsFinalStatus(g.Status)
}

// RosterEntry is one player of a team roster.
type RosterEntry struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Number   string `json:"number,omitempty"`
	Position string `json:"position,omitempty"`
}

// StandingRecord is one team's row of the league standings.
type StandingRecord struct {
	TeamID         int64   `json:"team_id"`
	Conference     string  `json:"conference,omitempty"`
	Division       string  `json:"division,omitempty"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinPct         float64 `json:"win_pct"`
	ConferenceRank int     `json:"conference_rank"`
	DivisionRank   int     `json:"division_rank"`
	GamesBack      float64 `json:"games_back"`
	Streak         string  `json:"streak,omitempty"`
	LastTen        string  `json:"last_ten,omitempty"`
}

// GameLogEntry is one player's line in one game.
type GameLogEntry struct {
	GameID    string    `json:"game_id"`
	GameDate  time.Time `json:"game_date"`
	Minutes   float64   `json:"minutes"`
	Pts       int       `json:"pts"`
	Reb       int       `json:"reb"`
	Ast       int       `json:"ast"`
	Stl       int       `json:"stl"`
	Blk       int       `json:"blk"`
	Fgm       int       `json:"fgm"`
	Fga       int       `json:"fga"`
	Fg3m      int       `json:"fg3m"`
	Fg3a      int       `json:"fg3a"`
	Ftm       int       `json:"ftm"`
	Fta       int       `json:"fta"`
	Turnovers int       `json:"turnovers"`
	PlusMinus int       `json:"plus_minus"`
}

// CareerSeason is one season of a player's career line, in per-game averages.
type CareerSeason struct {
	Season           string   `json:"season"`
	TeamAbbreviation string   `json:"team_abbreviation,omitempty"`
	GamesPlayed      int      `json:"games_played"`
	Minutes          float64  `json:"minutes"`
	Pts              float64  `json:"pts"`
	Reb              float64  `json:"reb"`
	Ast              float64  `json:"ast"`
	Stl              float64  `json:"stl"`
	Blk              float64  `json:"blk"`
	FgPct            *float64 `json:"fg_pct,omitempty"`
	Fg3Pct           *float64 `json:"fg3_pct,omitempty"`
	FtPct            *float64 `json:"ft_pct,omitempty"`
}

// TotalTeamAbbreviation marks the combined line of a player traded mid-season.
const TotalTeamAbbreviation = "TOT"
