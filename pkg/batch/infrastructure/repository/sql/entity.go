package sql

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// Entities returns the Store as an EntityStore.
func (s *Store) Entities() repository.EntityStore { return entities{s} }

type entities struct{ s *Store }

// findOne loads the first row matching query and converts it.
func findOne[R any, D any](ctx context.Context, s *Store, op string, conv func(*R) *D, query string, args ...interface{}) (*D, error) {
	var row R
	if err := s.joined(ctx).Where(query, args...).Order("id").First(&row).Error; err != nil {
		return nil, notFound(op, err, repository.ErrEntityNotFound)
	}
	return conv(&row), nil
}

func convertAll[R any, D any](rows []R, conv func(*R) *D) []*D {
	out := make([]*D, len(rows))
	for i := range rows {
		out[i] = conv(&rows[i])
	}
	return out
}

// touch stamps the metadata of a record about to be saved.
func (e entities) touch(meta *model.SourceMeta, id uint) {
	now := e.s.stamp()
	if id == 0 && meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
}

// saveRow inserts row when id is zero and rewrites every column but id and created_at otherwise.
func saveRow[R any](ctx context.Context, s *Store, op string, row *R, id uint) error {
	db := s.joined(ctx)
	if id == 0 {
		return storeError(op, db.Create(row).Error)
	}
	res := db.Model(row).Select("*").Omit("id", "created_at").Updates(row)
	if res.Error != nil {
		return storeError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrEntityNotFound
	}
	return nil
}

func (e entities) ListTeams(ctx context.Context) ([]*model.Team, error) {
	var rows []TeamEntity
	if err := e.s.joined(ctx).Order("abbreviation").Find(&rows).Error; err != nil {
		return nil, storeError("list teams", err)
	}
	return convertAll(rows, toDomainTeam), nil
}

func (e entities) FindTeamByID(ctx context.Context, id uint) (*model.Team, error) {
	return findOne(ctx, e.s, "find team", toDomainTeam, "id = ?", id)
}

func (e entities) FindTeamByExternalID(ctx context.Context, externalID int64) (*model.Team, error) {
	return findOne(ctx, e.s, "find team", toDomainTeam, "external_id = ?", externalID)
}

func (e entities) FindTeamByAbbreviation(ctx context.Context, abbr string) (*model.Team, error) {
	return findOne(ctx, e.s, "find team", toDomainTeam, "UPPER(abbreviation) = UPPER(?)", abbr)
}

func (e entities) SaveTeam(ctx context.Context, t *model.Team) error {
	e.touch(&t.SourceMeta, t.ID)
	row := fromDomainTeam(t)
	if err := saveRow(ctx, e.s, "save team", row, t.ID); err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (e entities) FindPlayerByID(ctx context.Context, id uint) (*model.Player, error) {
	return findOne(ctx, e.s, "find player", toDomainPlayer, "id = ?", id)
}

func (e entities) FindPlayerByExternalID(ctx context.Context, externalID int64) (*model.Player, error) {
	return findOne(ctx, e.s, "find player", toDomainPlayer, "external_id = ?", externalID)
}

func (e entities) ListPlayersByTeam(ctx context.Context, teamID uint) ([]*model.Player, error) {
	var rows []PlayerEntity
	if err := e.s.joined(ctx).Where("team_id = ?", teamID).Order("id").Find(&rows).Error; err != nil {
		return nil, storeError("list players", err)
	}
	return convertAll(rows, toDomainPlayer), nil
}

func (e entities) SavePlayer(ctx context.Context, p *model.Player) error {
	e.touch(&p.SourceMeta, p.ID)
	row := fromDomainPlayer(p)
	if err := saveRow(ctx, e.s, "save player", row, p.ID); err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (e entities) FindGameByID(ctx context.Context, id uint) (*model.Game, error) {
	return findOne(ctx, e.s, "find game", toDomainGame, "id = ?", id)
}

func (e entities) FindGameByExternalID(ctx context.Context, externalID string) (*model.Game, error) {
	return findOne(ctx, e.s, "find game", toDomainGame, "external_id = ?", externalID)
}

func (e entities) ListGamesStartedBetween(ctx context.Context, from, to time.Time) ([]*model.Game, error) {
	var rows []GameEntity
	err := e.s.joined(ctx).
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Order("start_time").Order("id").Find(&rows).Error
	if err != nil {
		return nil, storeError("list games", err)
	}
	return convertAll(rows, toDomainGame), nil
}

func (e entities) SaveGame(ctx context.Context, g *model.Game) error {
	e.touch(&g.SourceMeta, g.ID)
	row := fromDomainGame(g)
	if err := saveRow(ctx, e.s, "save game", row, g.ID); err != nil {
		return err
	}
	g.ID = row.ID
	return nil
}

func (e entities) FindSeasonStatsByID(ctx context.Context, id uint) (*model.PlayerSeasonStats, error) {
	return findOne(ctx, e.s, "find season stats", toDomainSeasonStats, "id = ?", id)
}

func (e entities) FindSeasonStats(ctx context.Context, playerID uint, season, seasonType string) (*model.PlayerSeasonStats, error) {
	return findOne(ctx, e.s, "find season stats", toDomainSeasonStats,
		"player_id = ? AND season = ? AND season_type = ?", playerID, season, seasonType)
}

func (e entities) ListStaleSeasonStats(ctx context.Context, season, seasonType string, syncedBefore time.Time, limit int) ([]*model.PlayerSeasonStats, error) {
	q := e.s.joined(ctx).
		Where("season = ? AND season_type = ? AND is_manual_override = ?", season, seasonType, false)
	if !syncedBefore.IsZero() {
		q = q.Where("(last_api_sync IS NULL OR last_api_sync < ?)", syncedBefore.UTC())
	}
	q = q.Order("CASE WHEN last_api_sync IS NULL THEN 0 ELSE 1 END").Order("last_api_sync").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []PlayerSeasonStatsEntity
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeError("list stale season stats", err)
	}
	return convertAll(rows, toDomainSeasonStats), nil
}

func (e entities) SaveSeasonStats(ctx context.Context, st *model.PlayerSeasonStats) error {
	e.touch(&st.SourceMeta, st.ID)
	row := fromDomainSeasonStats(st)
	if err := saveRow(ctx, e.s, "save season stats", row, st.ID); err != nil {
		return err
	}
	st.ID = row.ID
	return nil
}

func (e entities) FindGameStatsByID(ctx context.Context, id uint) (*model.PlayerGameStats, error) {
	return findOne(ctx, e.s, "find game stats", toDomainGameStats, "id = ?", id)
}

func (e entities) FindGameStats(ctx context.Context, playerID, gameID uint) (*model.PlayerGameStats, error) {
	return findOne(ctx, e.s, "find game stats", toDomainGameStats, "player_id = ? AND game_id = ?", playerID, gameID)
}

func (e entities) SaveGameStats(ctx context.Context, st *model.PlayerGameStats) error {
	e.touch(&st.SourceMeta, st.ID)
	row := fromDomainGameStats(st)
	if err := saveRow(ctx, e.s, "save game stats", row, st.ID); err != nil {
		return err
	}
	st.ID = row.ID
	return nil
}

func (e entities) FindStandingByID(ctx context.Context, id uint) (*model.TeamStanding, error) {
	return findOne(ctx, e.s, "find standing", toDomainStanding, "id = ?", id)
}

func (e entities) FindStanding(ctx context.Context, teamID uint, season, seasonType string) (*model.TeamStanding, error) {
	return findOne(ctx, e.s, "find standing", toDomainStanding,
		"team_id = ? AND season = ? AND season_type = ?", teamID, season, seasonType)
}

func (e entities) SaveStanding(ctx context.Context, st *model.TeamStanding) error {
	e.touch(&st.SourceMeta, st.ID)
	row := fromDomainStanding(st)
	if err := saveRow(ctx, e.s, "save standing", row, st.ID); err != nil {
		return err
	}
	st.ID = row.ID
	return nil
}
