package archive

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

type entryResult struct {
	fx.Out
	Entry schedule.Entry `group:"job_entries"`
}

func newJob(runs repository.RunRepository, resolver *storage.Resolver, cfg *config.ArchiveConfig) *Job {
	return New(runs, resolver, *cfg)
}

func newEntry(j *Job) entryResult {
	return entryResult{Entry: j.Entry()}
}

// Module provides the archive job and adds it to the job catalog.
var Module = fx.Options(
	fx.Provide(newJob, newEntry),
)
