package sql

import (
	"time"

	"gorm.io/datatypes"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// Timestamps are written by the repository itself so the injected clock is honoured;
// gorm's auto time tracking is disabled on every row type.

// JobDefinitionEntity is the persisted row of a JobDefinition.
type JobDefinitionEntity struct {
	ID             uint       `gorm:"primaryKey"`
	Name           string     `gorm:"column:name"`
	Description    string     `gorm:"column:description"`
	Schedule       string     `gorm:"column:schedule"`
	IsActive       bool       `gorm:"column:is_active"`
	LastRunAt      *time.Time `gorm:"column:last_run_at"`
	TotalRuns      int64      `gorm:"column:total_runs"`
	SuccessfulRuns int64      `gorm:"column:successful_runs"`
	FailedRuns     int64      `gorm:"column:failed_runs"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (JobDefinitionEntity) TableName() string { return "job_definitions" }

// RunEntity is the persisted row of a Run. Manual runs store a NULL job_id.
type RunEntity struct {
	ID              uint                                `gorm:"primaryKey"`
	JobID           *uint                               `gorm:"column:job_id"`
	JobName         string                              `gorm:"column:job_name"`
	TriggeredBy     string                              `gorm:"column:triggered_by"`
	StartedAt       time.Time                           `gorm:"column:started_at"`
	CompletedAt     *time.Time                          `gorm:"column:completed_at"`
	Status          string                              `gorm:"column:status"`
	DurationSeconds *int64                              `gorm:"column:duration_seconds"`
	ItemsUpdated    int                                 `gorm:"column:items_updated"`
	ErrorMessage    string                              `gorm:"column:error_message"`
	Details         datatypes.JSONType[model.RunDetails] `gorm:"column:details"`
	CreatedAt       time.Time                           `gorm:"column:created_at;autoCreateTime:false"`
}

func (RunEntity) TableName() string { return "runs" }

// SourceColumns are the source-tracking columns shared by every synced table.
type SourceColumns struct {
	Source           string     `gorm:"column:source"`
	IsManualOverride bool       `gorm:"column:is_manual_override"`
	OverrideReason   string     `gorm:"column:override_reason"`
	LastAPISync      *time.Time `gorm:"column:last_api_sync"`
	LastManualEdit   *time.Time `gorm:"column:last_manual_edit"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

type TeamEntity struct {
	ID           uint   `gorm:"primaryKey"`
	ExternalID   int64  `gorm:"column:external_id"`
	Name         string `gorm:"column:name"`
	Abbreviation string `gorm:"column:abbreviation"`
	City         string `gorm:"column:city"`
	Conference   string `gorm:"column:conference"`
	Division     string `gorm:"column:division"`
	SourceColumns `gorm:"embedded"`
}

func (TeamEntity) TableName() string { return "teams" }

type PlayerEntity struct {
	ID           uint   `gorm:"primaryKey"`
	ExternalID   int64  `gorm:"column:external_id"`
	FullName     string `gorm:"column:full_name"`
	TeamID       *uint  `gorm:"column:team_id"`
	Position     string `gorm:"column:position"`
	JerseyNumber string `gorm:"column:jersey_number"`
	SourceColumns `gorm:"embedded"`
}

func (PlayerEntity) TableName() string { return "players" }

type GameEntity struct {
	ID         uint      `gorm:"primaryKey"`
	ExternalID string    `gorm:"column:external_id"`
	Season     string    `gorm:"column:season"`
	SeasonType string    `gorm:"column:season_type"`
	HomeTeamID uint      `gorm:"column:home_team_id"`
	AwayTeamID uint      `gorm:"column:away_team_id"`
	StartTime  time.Time `gorm:"column:start_time"`
	Status     string    `gorm:"column:status"`
	HomeScore  *int      `gorm:"column:home_score"`
	AwayScore  *int      `gorm:"column:away_score"`
	SourceColumns `gorm:"embedded"`
}

func (GameEntity) TableName() string { return "games" }

type PlayerSeasonStatsEntity struct {
	ID          uint     `gorm:"primaryKey"`
	PlayerID    uint     `gorm:"column:player_id"`
	Season      string   `gorm:"column:season"`
	SeasonType  string   `gorm:"column:season_type"`
	GamesPlayed int      `gorm:"column:games_played"`
	Minutes     float64  `gorm:"column:minutes"`
	Pts         float64  `gorm:"column:pts"`
	Reb         float64  `gorm:"column:reb"`
	Ast         float64  `gorm:"column:ast"`
	Stl         float64  `gorm:"column:stl"`
	Blk         float64  `gorm:"column:blk"`
	FgPct       *float64 `gorm:"column:fg_pct"`
	Fg3Pct      *float64 `gorm:"column:fg3_pct"`
	FtPct       *float64 `gorm:"column:ft_pct"`
	SourceColumns `gorm:"embedded"`
}

func (PlayerSeasonStatsEntity) TableName() string { return "player_season_stats" }

type PlayerGameStatsEntity struct {
	ID        uint    `gorm:"primaryKey"`
	PlayerID  uint    `gorm:"column:player_id"`
	GameID    uint    `gorm:"column:game_id"`
	Minutes   float64 `gorm:"column:minutes"`
	Pts       int     `gorm:"column:pts"`
	Reb       int     `gorm:"column:reb"`
	Ast       int     `gorm:"column:ast"`
	Stl       int     `gorm:"column:stl"`
	Blk       int     `gorm:"column:blk"`
	Fgm       int     `gorm:"column:fgm"`
	Fga       int     `gorm:"column:fga"`
	Fg3m      int     `gorm:"column:fg3m"`
	Fg3a      int     `gorm:"column:fg3a"`
	Ftm       int     `gorm:"column:ftm"`
	Fta       int     `gorm:"column:fta"`
	Turnovers int     `gorm:"column:turnovers"`
	PlusMinus int     `gorm:"column:plus_minus"`
	SourceColumns `gorm:"embedded"`
}

func (PlayerGameStatsEntity) TableName() string { return "player_game_stats" }

type TeamStandingEntity struct {
	ID             uint    `gorm:"primaryKey"`
	TeamID         uint    `gorm:"column:team_id"`
	Season         string  `gorm:"column:season"`
	SeasonType     string  `gorm:"column:season_type"`
	Wins           int     `gorm:"column:wins"`
	Losses         int     `gorm:"column:losses"`
	WinPct         float64 `gorm:"column:win_pct"`
	ConferenceRank int     `gorm:"column:conference_rank"`
	DivisionRank   int     `gorm:"column:division_rank"`
	GamesBack      float64 `gorm:"column:games_back"`
	Streak         string  `gorm:"column:streak"`
	LastTen        string  `gorm:"column:last_ten"`
	SourceColumns `gorm:"embedded"`
}

func (TeamStandingEntity) TableName() string { return "team_standings" }
