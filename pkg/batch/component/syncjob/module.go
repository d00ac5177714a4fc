package syncjob

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/port"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

// EntriesGroup is the fx value group collecting catalog entries.
const EntriesGroup = "job_entries"

// Params are the dependencies of the sync jobs.
type Params struct {
	fx.In
	Store  repository.EntityStore
	Source port.UpstreamSource
	Engine *reconcile.Engine
	Sync   *config.SyncConfig
}

// EntriesResult contributes the sync entries to the catalog group.
type EntriesResult struct {
	fx.Out
	Entries []schedule.Entry `group:"job_entries,flatten"`
}

// NewJobs builds the sync jobs from the fx graph.
func NewJobs(p Params) *Jobs {
	return New(p.Store, p.Source, p.Engine, *p.Sync)
}

// NewEntries exposes the sync jobs as catalog entries with the configured intervals.
func NewEntries(jobs *Jobs, cfg *config.SchedulerConfig) EntriesResult {
	return EntriesResult{Entries: jobs.Entries(cfg.Jobs)}
}

// Module provides the sync jobs and their catalog entries.
var Module = fx.Options(
	fx.Provide(NewJobs, NewEntries),
)
