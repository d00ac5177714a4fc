package repository

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// Save methods insert when the record ID is zero and update every column otherwise.
// Find methods return ErrEntityNotFound when nothing matches.

// TeamRepository persists teams.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]*model.Team, error)
	FindTeamByID(ctx context.Context, id uint) (*model.Team, error)
	FindTeamByExternalID(ctx context.Context, externalID int64) (*model.Team, error)
	FindTeamByAbbreviation(ctx context.Context, abbr string) (*model.Team, error)
	SaveTeam(ctx context.Context, team *model.Team) error
}

// PlayerRepository persists players.
type PlayerRepository interface {
	FindPlayerByID(ctx context.Context, id uint) (*model.Player, error)
	FindPlayerByExternalID(ctx context.Context, externalID int64) (*model.Player, error)
	ListPlayersByTeam(ctx context.Context, teamID uint) ([]*model.Player, error)
	SavePlayer(ctx context.Context, player *model.Player) error
}

// GameRepository persists games.
type GameRepository interface {
	FindGameByID(ctx context.Context, id uint) (*model.Game, error)
	FindGameByExternalID(ctx context.Context, externalID string) (*model.Game, error)
	// ListGamesStartedBetween returns games with from <= start_time < to, oldest first.
	ListGamesStartedBetween(ctx context.Context, from, to time.Time) ([]*model.Game, error)
	SaveGame(ctx context.Context, game *model.Game) error
}

// SeasonStatsRepository persists player season averages.
type SeasonStatsRepository interface {
	FindSeasonStatsByID(ctx context.Context, id uint) (*model.PlayerSeasonStats, error)
	FindSeasonStats(ctx context.Context, playerID uint, season, seasonType string) (*model.PlayerSeasonStats, error)
	// ListStaleSeasonStats returns non-overridden rows of the season whose last API sync is
	// absent or before syncedBefore, least recently synced first. A zero syncedBefore
	// disables the staleness filter.
	ListStaleSeasonStats(ctx context.Context, season, seasonType string, syncedBefore time.Time, limit int) ([]*model.PlayerSeasonStats, error)
	SaveSeasonStats(ctx context.Context, stats *model.PlayerSeasonStats) error
}

// GameStatsRepository persists player box score lines.
type GameStatsRepository interface {
	FindGameStatsByID(ctx context.Context, id uint) (*model.PlayerGameStats, error)
	FindGameStats(ctx context.Context, playerID, gameID uint) (*model.PlayerGameStats, error)
	SaveGameStats(ctx context.Context, stats *model.PlayerGameStats) error
}

// StandingRepository persists team standings.
type StandingRepository interface {
	FindStandingByID(ctx context.Context, id uint) (*model.TeamStanding, error)
	FindStanding(ctx context.Context, teamID uint, season, seasonType string) (*model.TeamStanding, error)
	SaveStanding(ctx context.Context, standing *model.TeamStanding) error
}

// EntityStore is the transactional store of synced entities.
// Writes join the transaction carried by ctx, if any.
type EntityStore interface {
	TeamRepository
	PlayerRepository
	GameRepository
	SeasonStatsRepository
	GameStatsRepository
	StandingRepository
}
