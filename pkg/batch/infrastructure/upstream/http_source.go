// Package upstream implements the sports-data source the sync jobs read from.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

const (
	moduleName = "upstream"

	// DefaultTimeout bounds a request when the configuration leaves it unset.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps the body read from the provider (32MB).
	MaxResponseSize = 32 * 1024 * 1024

	userAgent = "boxscore-sync/1.0"
)

// HTTPSource reads normalized JSON records from the stats API.
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL, apiKey string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Teams(ctx context.Context) ([]port.TeamRecord, error) {
	var out []port.TeamRecord
	err := s.get(ctx, "/teams", nil, &out)
	return out, err
}

func (s *HTTPSource) GameSummary(ctx context.Context, gameID string) (*port.GameRecord, error) {
	var out port.GameRecord
	if err := s.get(ctx, "/games/"+url.PathEscape(gameID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HTTPSource) TeamSchedule(ctx context.Context, teamID int64, season, seasonType string) ([]port.GameRecord, error) {
	var out []port.GameRecord
	err := s.get(ctx, "/teams/"+strconv.FormatInt(teamID, 10)+"/schedule", seasonQuery(season, seasonType), &out)
	return out, err
}

func (s *HTTPSource) TeamRoster(ctx context.Context, teamID int64, season string) ([]port.RosterEntry, error) {
	var out []port.RosterEntry
	err := s.get(ctx, "/teams/"+strconv.FormatInt(teamID, 10)+"/roster", seasonQuery(season, ""), &out)
	return out, err
}

func (s *HTTPSource) LeagueStandings(ctx context.Context, season, seasonType string) ([]port.StandingRecord, error) {
	var out []port.StandingRecord
	err := s.get(ctx, "/standings", seasonQuery(season, seasonType), &out)
	return out, err
}

func (s *HTTPSource) PlayerGameLog(ctx context.Context, playerID int64, season, seasonType string) ([]port.GameLogEntry, error) {
	var out []port.GameLogEntry
	err := s.get(ctx, "/players/"+strconv.FormatInt(playerID, 10)+"/gamelog", seasonQuery(season, seasonType), &out)
	return out, err
}

func (s *HTTPSource) PlayerCareer(ctx context.Context, playerID int64) ([]port.CareerSeason, error) {
	var out []port.CareerSeason
	err := s.get(ctx, "/players/"+strconv.FormatInt(playerID, 10)+"/career", nil, &out)
	return out, err
}

func seasonQuery(season, seasonType string) url.Values {
	q := url.Values{}
	if season != "" {
		q.Set("season", season)
	}
	if seasonType != "" {
		q.Set("season_type", seasonType)
	}
	return q
}

// get performs one GET and decodes the JSON body into out.
// Transport failures, 429 and 5xx responses are reported as retryable.
func (s *HTTPSource) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to create request", err, false)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	logger.Debugf("upstream GET %s", target)
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return exception.NewBatchError(moduleName, "GET "+path+" failed", err, true)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := statusError(path, resp.StatusCode); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to read response of "+path, err, true)
	}
	if int64(len(body)) > MaxResponseSize {
		return exception.NewBatchErrorf(moduleName, false, "response of %s exceeds %d bytes", path, MaxResponseSize)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return exception.NewBatchError(moduleName, "failed to decode response of "+path, err, false)
	}
	return nil
}

func statusError(path string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return exception.NewBatchError(moduleName, "GET "+path, exception.ErrNotFound, false)
	case code == http.StatusTooManyRequests:
		return exception.NewBatchError(moduleName, "GET "+path, exception.ErrRateLimited, true)
	case code >= 500:
		return exception.NewBatchErrorf(moduleName, true, "GET %s returned %d", path, code)
	default:
		return exception.NewBatchError(moduleName, "GET "+path, fmt.Errorf("unexpected status %d", code), false)
	}
}

var _ port.UpstreamSource = (*HTTPSource)(nil)
