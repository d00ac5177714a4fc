package sql

import (
	"time"

	"gorm.io/datatypes"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toDomainJobDefinition(e *JobDefinitionEntity) *model.JobDefinition {
	return &model.JobDefinition{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Schedule:       e.Schedule,
		IsActive:       e.IsActive,
		LastRunAt:      utcPtr(e.LastRunAt),
		TotalRuns:      e.TotalRuns,
		SuccessfulRuns: e.SuccessfulRuns,
		FailedRuns:     e.FailedRuns,
		CreatedAt:      e.CreatedAt.UTC(),
		UpdatedAt:      e.UpdatedAt.UTC(),
	}
}

func fromDomainRun(r *model.Run) *RunEntity {
	var jobID *uint
	if r.JobID != 0 {
		id := r.JobID
		jobID = &id
	}
	return &RunEntity{
		ID:              r.ID,
		JobID:           jobID,
		JobName:         r.JobName,
		TriggeredBy:     string(r.TriggeredBy),
		StartedAt:       r.StartedAt.UTC(),
		CompletedAt:     utcPtr(r.CompletedAt),
		Status:          string(r.Status),
		DurationSeconds: r.DurationSeconds,
		ItemsUpdated:    r.ItemsUpdated,
		ErrorMessage:    r.ErrorMessage,
		Details:         datatypes.NewJSONType(r.Details),
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func toDomainRun(e *RunEntity) *model.Run {
	var jobID uint
	if e.JobID != nil {
		jobID = *e.JobID
	}
	details := e.Details.Data()
	for i := range details.Log {
		details.Log[i].At = details.Log[i].At.UTC()
	}
	return &model.Run{
		ID:              e.ID,
		JobID:           jobID,
		JobName:         e.JobName,
		TriggeredBy:     model.TriggerOrigin(e.TriggeredBy),
		StartedAt:       e.StartedAt.UTC(),
		CompletedAt:     utcPtr(e.CompletedAt),
		Status:          model.RunStatus(e.Status),
		DurationSeconds: e.DurationSeconds,
		ItemsUpdated:    e.ItemsUpdated,
		ErrorMessage:    e.ErrorMessage,
		Details:         details,
		CreatedAt:       e.CreatedAt.UTC(),
	}
}

func fromSourceMeta(m model.SourceMeta) SourceColumns {
	return SourceColumns{
		Source:           string(m.Source),
		IsManualOverride: m.IsManualOverride,
		OverrideReason:   m.OverrideReason,
		LastAPISync:      utcPtr(m.LastAPISync),
		LastManualEdit:   utcPtr(m.LastManualEdit),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func toSourceMeta(c SourceColumns) model.SourceMeta {
	source := model.Source(c.Source)
	if source == "" {
		source = model.SourceAPI
	}
	return model.SourceMeta{
		Source:           source,
		IsManualOverride: c.IsManualOverride,
		OverrideReason:   c.OverrideReason,
		LastAPISync:      utcPtr(c.LastAPISync),
		LastManualEdit:   utcPtr(c.LastManualEdit),
		CreatedAt:        c.CreatedAt.UTC(),
		UpdatedAt:        c.UpdatedAt.UTC(),
	}
}

func fromDomainTeam(t *model.Team) *TeamEntity {
	return &TeamEntity{
		ID:            t.ID,
		ExternalID:    t.ExternalID,
		Name:          t.Name,
		Abbreviation:  t.Abbreviation,
		City:          t.City,
		Conference:    t.Conference,
		Division:      t.Division,
		SourceColumns: fromSourceMeta(t.SourceMeta),
	}
}

func toDomainTeam(e *TeamEntity) *model.Team {
	return &model.Team{
		ID:           e.ID,
		ExternalID:   e.ExternalID,
		Name:         e.Name,
		Abbreviation: e.Abbreviation,
		City:         e.City,
		Conference:   e.Conference,
		Division:     e.Division,
		SourceMeta:   toSourceMeta(e.SourceColumns),
	}
}

func fromDomainPlayer(p *model.Player) *PlayerEntity {
	return &PlayerEntity{
		ID:            p.ID,
		ExternalID:    p.ExternalID,
		FullName:      p.FullName,
		TeamID:        p.TeamID,
		Position:      p.Position,
		JerseyNumber:  p.JerseyNumber,
		SourceColumns: fromSourceMeta(p.SourceMeta),
	}
}

func toDomainPlayer(e *PlayerEntity) *model.Player {
	return &model.Player{
		ID:           e.ID,
		ExternalID:   e.ExternalID,
		FullName:     e.FullName,
		TeamID:       e.TeamID,
		Position:     e.Position,
		JerseyNumber: e.JerseyNumber,
		SourceMeta:   toSourceMeta(e.SourceColumns),
	}
}

func fromDomainGame(g *model.Game) *GameEntity {
	return &GameEntity{
		ID:            g.ID,
		ExternalID:    g.ExternalID,
		Season:        g.Season,
		SeasonType:    g.SeasonType,
		HomeTeamID:    g.HomeTeamID,
		AwayTeamID:    g.AwayTeamID,
		StartTime:     g.StartTime.UTC(),
		Status:        g.Status,
		HomeScore:     g.HomeScore,
		AwayScore:     g.AwayScore,
		SourceColumns: fromSourceMeta(g.SourceMeta),
	}
}

func toDomainGame(e *GameEntity) *model.Game {
	return &model.Game{
		ID:         e.ID,
		ExternalID: e.ExternalID,
		Season:     e.Season,
		SeasonType: e.SeasonType,
		HomeTeamID: e.HomeTeamID,
		AwayTeamID: e.AwayTeamID,
		StartTime:  e.StartTime.UTC(),
		Status:     e.Status,
		HomeScore:  e.HomeScore,
		AwayScore:  e.AwayScore,
		SourceMeta: toSourceMeta(e.SourceColumns),
	}
}

func fromDomainSeasonStats(s *model.PlayerSeasonStats) *PlayerSeasonStatsEntity {
	return &PlayerSeasonStatsEntity{
		ID:            s.ID,
		PlayerID:      s.PlayerID,
		Season:        s.Season,
		SeasonType:    s.SeasonType,
		GamesPlayed:   s.GamesPlayed,
		Minutes:       s.Minutes,
		Pts:           s.Pts,
		Reb:           s.Reb,
		Ast:           s.Ast,
		Stl:           s.Stl,
		Blk:           s.Blk,
		FgPct:         s.FgPct,
		Fg3Pct:        s.Fg3Pct,
		FtPct:         s.FtPct,
		SourceColumns: fromSourceMeta(s.SourceMeta),
	}
}

func toDomainSeasonStats(e *PlayerSeasonStatsEntity) *model.PlayerSeasonStats {
	return &model.PlayerSeasonStats{
		ID:          e.ID,
		PlayerID:    e.PlayerID,
		Season:      e.Season,
		SeasonType:  e.SeasonType,
		GamesPlayed: e.GamesPlayed,
		Minutes:     e.Minutes,
		Pts:         e.Pts,
		Reb:         e.Reb,
		Ast:         e.Ast,
		Stl:         e.Stl,
		Blk:         e.Blk,
		FgPct:       e.FgPct,
		Fg3Pct:      e.Fg3Pct,
		FtPct:       e.FtPct,
		SourceMeta:  toSourceMeta(e.SourceColumns),
	}
}

func fromDomainGameStats(s *model.PlayerGameStats) *PlayerGameStatsEntity {
	return &PlayerGameStatsEntity{
		ID:            s.ID,
		PlayerID:      s.PlayerID,
		GameID:        s.GameID,
		Minutes:       s.Minutes,
		Pts:           s.Pts,
		Reb:           s.Reb,
		Ast:           s.Ast,
		Stl:           s.Stl,
		Blk:           s.Blk,
		Fgm:           s.Fgm,
		Fga:           s.Fga,
		Fg3m:          s.Fg3m,
		Fg3a:          s.Fg3a,
		Ftm:           s.Ftm,
		Fta:           s.Fta,
		Turnovers:     s.Turnovers,
		PlusMinus:     s.PlusMinus,
		SourceColumns: fromSourceMeta(s.SourceMeta),
	}
}

func toDomainGameStats(e *PlayerGameStatsEntity) *model.PlayerGameStats {
	return &model.PlayerGameStats{
		ID:         e.ID,
		PlayerID:   e.PlayerID,
		GameID:     e.GameID,
		Minutes:    e.Minutes,
		Pts:        e.Pts,
		Reb:        e.Reb,
		Ast:        e.Ast,
		Stl:        e.Stl,
		Blk:        e.Blk,
		Fgm:        e.Fgm,
		Fga:        e.Fga,
		Fg3m:       e.Fg3m,
		Fg3a:       e.Fg3a,
		Ftm:        e.Ftm,
		Fta:        e.Fta,
		Turnovers:  e.Turnovers,
		PlusMinus:  e.PlusMinus,
		SourceMeta: toSourceMeta(e.SourceColumns),
	}
}

func fromDomainStanding(s *model.TeamStanding) *TeamStandingEntity {
	return &TeamStandingEntity{
		ID:             s.ID,
		TeamID:         s.TeamID,
		Season:         s.Season,
		SeasonType:     s.SeasonType,
		Wins:           s.Wins,
		Losses:         s.Losses,
		WinPct:         s.WinPct,
		ConferenceRank: s.ConferenceRank,
		DivisionRank:   s.DivisionRank,
		GamesBack:      s.GamesBack,
		Streak:         s.Streak,
		LastTen:        s.LastTen,
		SourceColumns:  fromSourceMeta(s.SourceMeta),
	}
}

func toDomainStanding(e *TeamStandingEntity) *model.TeamStanding {
	return &model.TeamStanding{
		ID:             e.ID,
		TeamID:         e.TeamID,
		Season:         e.Season,
		SeasonType:     e.SeasonType,
		Wins:           e.Wins,
		Losses:         e.Losses,
		WinPct:         e.WinPct,
		ConferenceRank: e.ConferenceRank,
		DivisionRank:   e.DivisionRank,
		GamesBack:      e.GamesBack,
		Streak:         e.Streak,
		LastTen:        e.LastTen,
		SourceMeta:     toSourceMeta(e.SourceColumns),
	}
}
