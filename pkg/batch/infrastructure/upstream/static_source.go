package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
)

// Fixture is the document a StaticSource serves. Schedules are derived from Games.
type Fixture struct {
	Teams     []port.TeamRecord             `json:"teams"`
	Games     []port.GameRecord             `json:"games"`
	Rosters   map[int64][]port.RosterEntry  `json:"rosters"`
	Standings []port.StandingRecord         `json:"standings"`
	GameLogs  map[int64][]port.GameLogEntry `json:"game_logs"`
	Careers   map[int64][]port.CareerSeason `json:"careers"`
}

// StaticSource serves a fixture held in memory. It is used for local development
// and by tests that need a deterministic upstream.
type StaticSource struct {
	fixture Fixture
}

// NewStaticSource serves fixture.
func NewStaticSource(fixture Fixture) *StaticSource {
	return &StaticSource{fixture: fixture}
}

// LoadStaticSource reads a JSON fixture from path.
func LoadStaticSource(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upstream fixture %s: %w", path, err)
	}
	var fixture Fixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("decode upstream fixture %s: %w", path, err)
	}
	return NewStaticSource(fixture), nil
}

func (s *StaticSource) Teams(ctx context.Context) ([]port.TeamRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]port.TeamRecord(nil), s.fixture.Teams...), nil
}

func (s *StaticSource) GameSummary(ctx context.Context, gameID string) (*port.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, g := range s.fixture.Games {
		if g.ExternalID == gameID {
			g := g
			return &g, nil
		}
	}
	return nil, exception.NewBatchError(moduleName, "game "+gameID, exception.ErrNotFound, false)
}

func (s *StaticSource) TeamSchedule(ctx context.Context, teamID int64, season, seasonType string) ([]port.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []port.GameRecord
	for _, g := range s.fixture.Games {
		if g.HomeTeamID != teamID && g.AwayTeamID != teamID {
			continue
		}
		if !matches(g.Season, season) || !matches(g.SeasonType, seasonType) {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *StaticSource) TeamRoster(ctx context.Context, teamID int64, _ string) ([]port.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]port.RosterEntry(nil), s.fixture.Rosters[teamID]...), nil
}

func (s *StaticSource) LeagueStandings(ctx context.Context, _, _ string) ([]port.StandingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]port.StandingRecord(nil), s.fixture.Standings...), nil
}

func (s *StaticSource) PlayerGameLog(ctx context.Context, playerID int64, _, _ string) ([]port.GameLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]port.GameLogEntry(nil), s.fixture.GameLogs[playerID]...), nil
}

func (s *StaticSource) PlayerCareer(ctx context.Context, playerID int64) ([]port.CareerSeason, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	career, ok := s.fixture.Careers[playerID]
	if !ok {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("career of player %d", playerID), exception.ErrNotFound, false)
	}
	return append([]port.CareerSeason(nil), career...), nil
}

// matches treats an empty value on either side as a wildcard.
func matches(have, want string) bool {
	return have == "" || want == "" || have == want
}

var _ port.UpstreamSource = (*StaticSource)(nil)
