package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/upstream"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
)

func newStatsServer(t *testing.T, handler http.HandlerFunc) *upstream.HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return upstream.NewHTTPSource(srv.URL+"/", "secret", time.Second)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPSource_DecodesRecords(t *testing.T) {
	home, away := 101, 97
	src := newStatsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/teams":
			writeJSON(w, []port.TeamRecord{{ExternalID: 1, Name: "Lakers", Abbreviation: "LAL"}})
		case "/games/G1":
			writeJSON(w, port.GameRecord{ExternalID: "G1", HomeTeamID: 1, AwayTeamID: 2, Status: "Final", HomeScore: &home, AwayScore: &away})
		case "/teams/1/schedule":
			assert.Equal(t, "2025-26", r.URL.Query().Get("season"))
			assert.Equal(t, "Regular Season", r.URL.Query().Get("season_type"))
			writeJSON(w, []port.GameRecord{{ExternalID: "G1"}, {ExternalID: "G2"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	teams, err := src.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "LAL", teams[0].Abbreviation)

	game, err := src.GameSummary(ctx, "G1")
	require.NoError(t, err)
	assert.True(t, game.IsFinal())
	assert.Equal(t, 101, *game.HomeScore)
	assert.Equal(t, 97, *game.AwayScore)

	schedule, err := src.TeamSchedule(ctx, 1, "2025-26", "Regular Season")
	require.NoError(t, err)
	assert.Len(t, schedule, 2)
}

func TestHTTPSource_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		temporary bool
		target    error
	}{
		{name: "not found", status: http.StatusNotFound, temporary: false, target: exception.ErrNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, temporary: true, target: exception.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, temporary: true},
		{name: "bad request", status: http.StatusBadRequest, temporary: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newStatsServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := src.GameSummary(context.Background(), "G9")
			require.Error(t, err)
			assert.Equal(t, tt.temporary, exception.IsTemporary(err))
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
			var be *exception.BatchError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "upstream", be.Module)
		})
	}
}

func TestHTTPSource_MalformedBodyIsPermanent(t *testing.T) {
	src := newStatsServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	_, err := src.LeagueStandings(context.Background(), "2025-26", "Regular Season")
	require.Error(t, err)
	assert.False(t, exception.IsTemporary(err))
}

func TestHTTPSource_CancelledContext(t *testing.T) {
	src := newStatsServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []port.TeamRecord{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Teams(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, exception.IsTemporary(err))
}
