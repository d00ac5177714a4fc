package repository

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// JobDefinitionRepository persists JobDefinitions.
type JobDefinitionRepository interface {
	// Register creates the definition if absent. For an existing definition only the
	// description and schedule are refreshed; counters and the active flag are kept.
	Register(ctx context.Context, def *model.JobDefinition) (*model.JobDefinition, error)
	FindByID(ctx context.Context, id uint) (*model.JobDefinition, error)
	FindByName(ctx context.Context, name string) (*model.JobDefinition, error)
	// List returns all definitions ordered by name.
	List(ctx context.Context) ([]*model.JobDefinition, error)
	SetActive(ctx context.Context, id uint, active bool) (*model.JobDefinition, error)
	// RecordOutcome atomically increments total_runs and either successful_runs or
	// failed_runs. A non-nil lastRunAt also updates last_run_at.
	RecordOutcome(ctx context.Context, id uint, success bool, lastRunAt *time.Time) error
}
