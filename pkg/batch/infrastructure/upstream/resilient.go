package upstream

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// Call outcomes reported to the MetricRecorder.
const (
	OutcomeOK    = "ok"
	OutcomeRetry = "retry"
	OutcomeError = "error"
)

// Policy is the rate and retry budget applied around every upstream call.
type Policy struct {
	// RequestDelay is the minimum spacing between two calls. Zero disables the limit.
	RequestDelay time.Duration
	// RetryDelay is the first backoff interval; later intervals double.
	RetryDelay time.Duration
	// MaxRetries is the total number of attempts per call.
	MaxRetries int
}

// Resilient wraps an UpstreamSource with a shared rate limiter and exponential
// retry of transient failures. Permanent failures and context errors are returned
// after the first attempt.
type Resilient struct {
	next     port.UpstreamSource
	limiter  *rate.Limiter
	policy   Policy
	recorder metrics.MetricRecorder
}

// NewResilient decorates next.
func NewResilient(next port.UpstreamSource, policy Policy, recorder metrics.MetricRecorder) *Resilient {
	limit := rate.Inf
	if policy.RequestDelay > 0 {
		limit = rate.Every(policy.RequestDelay)
	}
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Resilient{
		next:     next,
		limiter:  rate.NewLimiter(limit, 1),
		policy:   policy,
		recorder: recorder,
	}
}

func (r *Resilient) newBackOff() backoff.BackOff {
	if r.policy.RetryDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.RetryDelay
	b.Multiplier = 2
	b.MaxInterval = 30 * r.policy.RetryDelay
	return b
}

// call runs fn under the limiter and retry policy.
func call[T any](ctx context.Context, r *Resilient, operation string, fn func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		var zero T
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		start := time.Now()
		v, err := fn(ctx)
		elapsed := time.Since(start)
		switch {
		case err == nil:
			r.recorder.RecordUpstreamCall(ctx, operation, OutcomeOK, elapsed)
			return v, nil
		case exception.IsTemporary(err):
			r.recorder.RecordUpstreamCall(ctx, operation, OutcomeRetry, elapsed)
			return zero, err
		default:
			r.recorder.RecordUpstreamCall(ctx, operation, OutcomeError, elapsed)
			return zero, backoff.Permanent(err)
		}
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.policy.MaxRetries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warnf("upstream %s failed, retrying in %s: %v", operation, wait, err)
		}),
	)
}

func (r *Resilient) Teams(ctx context.Context) ([]port.TeamRecord, error) {
	return call(ctx, r, "teams", r.next.Teams)
}

func (r *Resilient) GameSummary(ctx context.Context, gameID string) (*port.GameRecord, error) {
	return call(ctx, r, "game_summary", func(ctx context.Context) (*port.GameRecord, error) {
		return r.next.GameSummary(ctx, gameID)
	})
}

func (r *Resilient) TeamSchedule(ctx context.Context, teamID int64, season, seasonType string) ([]port.GameRecord, error) {
	return call(ctx, r, "team_schedule", func(ctx context.Context) ([]port.GameRecord, error) {
		return r.next.TeamSchedule(ctx, teamID, season, seasonType)
	})
}

func (r *Resilient) TeamRoster(ctx context.Context, teamID int64, season string) ([]port.RosterEntry, error) {
	return call(ctx, r, "team_roster", func(ctx context.Context) ([]port.RosterEntry, error) {
		return r.next.TeamRoster(ctx, teamID, season)
	})
}

func (r *Resilient) LeagueStandings(ctx context.Context, season, seasonType string) ([]port.StandingRecord, error) {
	return call(ctx, r, "league_standings", func(ctx context.Context) ([]port.StandingRecord, error) {
		return r.next.LeagueStandings(ctx, season, seasonType)
	})
}

func (r *Resilient) PlayerGameLog(ctx context.Context, playerID int64, season, seasonType string) ([]port.GameLogEntry, error) {
	return call(ctx, r, "player_game_log", func(ctx context.Context) ([]port.GameLogEntry, error) {
		return r.next.PlayerGameLog(ctx, playerID, season, seasonType)
	})
}

func (r *Resilient) PlayerCareer(ctx context.Context, playerID int64) ([]port.CareerSeason, error) {
	return call(ctx, r, "player_career", func(ctx context.Context) ([]port.CareerSeason, error) {
		return r.next.PlayerCareer(ctx, playerID)
	})
}

var _ port.UpstreamSource = (*Resilient)(nil)
