package repository

import (
	"context"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// RunFilter selects runs for listing. Zero values do not filter.
type RunFilter struct {
	JobID   *uint
	JobName string
	Status  model.RunStatus
	Limit   int
	Offset  int
}

// RunRepository persists Runs. Every write commits on its own; runs never join a
// job body's transaction.
type RunRepository interface {
	// Create inserts run and assigns its ID.
	Create(ctx context.Context, run *model.Run) error
	FindByID(ctx context.Context, id uint) (*model.Run, error)
	// UpdateDetails overwrites the detail payload of a running run. It returns
	// ErrRunNotRunning once the run is terminal.
	UpdateDetails(ctx context.Context, id uint, details model.RunDetails) error
	// Finalize writes the terminal fields of run (status, completion, duration,
	// items, error and details).
	Finalize(ctx context.Context, run *model.Run) error
	// List returns one page ordered by started_at descending, plus the total match count.
	List(ctx context.Context, filter RunFilter) ([]*model.Run, int64, error)
	// FindRunningStartedBefore returns running runs whose start precedes t.
	FindRunningStartedBefore(ctx context.Context, t time.Time) ([]*model.Run, error)
	// FindTerminalStartedBefore returns up to limit terminal runs started before t, oldest first.
	FindTerminalStartedBefore(ctx context.Context, t time.Time, limit int) ([]*model.Run, error)
	Delete(ctx context.Context, id uint) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
