package upstream

import (
	"context"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// SourceParams holds the dependencies injected via DI.
type SourceParams struct {
	fx.In
	Config   *config.UpstreamConfig
	Recorder metrics.MetricRecorder `optional:"true"`
}

// NewSource builds the configured source wrapped in the rate and retry policy.
// A static fixture wins over a base URL; with neither, every call fails.
func NewSource(p SourceParams) (port.UpstreamSource, error) {
	var inner port.UpstreamSource
	switch {
	case p.Config.StaticFile != "":
		static, err := LoadStaticSource(p.Config.StaticFile)
		if err != nil {
			return nil, err
		}
		logger.Infof("Upstream: serving static fixture %s", p.Config.StaticFile)
		inner = static
	case p.Config.BaseURL != "":
		logger.Infof("Upstream: %s (request delay %s, %d attempts)", p.Config.BaseURL, p.Config.RequestDelay, p.Config.MaxRetries)
		inner = NewHTTPSource(p.Config.BaseURL, p.Config.APIKey, p.Config.Timeout)
	default:
		logger.Warnf("Upstream: neither base_url nor static_file is configured; sync jobs will fail")
		inner = Unconfigured{}
	}
	return NewResilient(inner, Policy{
		RequestDelay: p.Config.RequestDelay,
		RetryDelay:   p.Config.RetryDelay,
		MaxRetries:   p.Config.MaxRetries,
	}, p.Recorder), nil
}

// Module provides port.UpstreamSource.
var Module = fx.Provide(NewSource)

// ErrUnconfigured is the cause of every Unconfigured call.
var ErrUnconfigured = exception.NewBatchError(moduleName, "upstream source is not configured", nil, false)

// Unconfigured fails every call without retrying.
type Unconfigured struct{}

func (Unconfigured) Teams(context.Context) ([]port.TeamRecord, error) { return nil, ErrUnconfigured }
func (Unconfigured) GameSummary(context.Context, string) (*port.GameRecord, error) {
	return nil, ErrUnconfigured
}
func (Unconfigured) TeamSchedule(context.Context, int64, string, string) ([]port.GameRecord, error) {
	return nil, ErrUnconfigured
}
func (Unconfigured) TeamRoster(context.Context, int64, string) ([]port.RosterEntry, error) {
	return nil, ErrUnconfigured
}
func (Unconfigured) LeagueStandings(context.Context, string, string) ([]port.StandingRecord, error) {
	return nil, ErrUnconfigured
}
func (Unconfigured) PlayerGameLog(context.Context, int64, string, string) ([]port.GameLogEntry, error) {
	return nil, ErrUnconfigured
}
func (Unconfigured) PlayerCareer(context.Context, int64) ([]port.CareerSeason, error) {
	return nil, ErrUnconfigured
}

var _ port.UpstreamSource = Unconfigured{}
