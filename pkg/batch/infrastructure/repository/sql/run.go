package sql

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// Runs returns the Store as a RunRepository.
func (s *Store) Runs() repository.RunRepository { return runs{s} }

type runs struct{ s *Store }

func (r runs) Create(ctx context.Context, run *model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.s.stamp()
	}
	row := fromDomainRun(run)
	if err := r.s.standalone(ctx).Create(row).Error; err != nil {
		return storeError("create run", err)
	}
	run.ID = row.ID
	return nil
}

func (r runs) FindByID(ctx context.Context, id uint) (*model.Run, error) {
	var row RunEntity
	if err := r.s.standalone(ctx).First(&row, id).Error; err != nil {
		return nil, notFound("find run", err, repository.ErrRunNotFound)
	}
	return toDomainRun(&row), nil
}

func (r runs) UpdateDetails(ctx context.Context, id uint, details model.RunDetails) error {
	db := r.s.standalone(ctx)
	res := db.Model(&RunEntity{}).Where("id = ? AND status = ?", id, string(model.RunStatusRunning)).
		Update("details", datatypes.NewJSONType(details))
	if res.Error != nil {
		return storeError("update run details", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.Model(&RunEntity{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return storeError("update run details", err)
	}
	if n == 0 {
		return repository.ErrRunNotFound
	}
	return repository.ErrRunNotRunning
}

func (r runs) Finalize(ctx context.Context, run *model.Run) error {
	row := fromDomainRun(run)
	res := r.s.standalone(ctx).Model(&RunEntity{}).Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":           row.Status,
			"completed_at":     row.CompletedAt,
			"duration_seconds": row.DurationSeconds,
			"items_updated":    row.ItemsUpdated,
			"error_message":    row.ErrorMessage,
			"details":          row.Details,
		})
	if res.Error != nil {
		return storeError("finalize run", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrRunNotFound
	}
	return nil
}

func (r runs) List(ctx context.Context, f repository.RunFilter) ([]*model.Run, int64, error) {
	q := r.s.standalone(ctx).Model(&RunEntity{})
	if f.JobID != nil {
		q = q.Where("job_id = ?", *f.JobID)
	}
	if f.JobName != "" {
		q = q.Where("job_name = ?", f.JobName)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	// The count and the page query each get their own copy of the conditions.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeError("count runs", err)
	}

	var rows []RunEntity
	page := q.Order("started_at DESC").Order("id DESC").Offset(f.Offset)
	if f.Limit > 0 {
		page = page.Limit(f.Limit)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, storeError("list runs", err)
	}
	return toDomainRuns(rows), total, nil
}

func (r runs) FindRunningStartedBefore(ctx context.Context, t time.Time) ([]*model.Run, error) {
	var rows []RunEntity
	err := r.s.standalone(ctx).
		Where("status = ? AND started_at < ?", string(model.RunStatusRunning), t.UTC()).
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, storeError("find stuck runs", err)
	}
	return toDomainRuns(rows), nil
}

func (r runs) FindTerminalStartedBefore(ctx context.Context, t time.Time, limit int) ([]*model.Run, error) {
	var rows []RunEntity
	q := r.s.standalone(ctx).
		Where("status IN ? AND started_at < ?",
			[]string{string(model.RunStatusSuccess), string(model.RunStatusFailed)}, t.UTC()).
		Order("started_at").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeError("find archivable runs", err)
	}
	return toDomainRuns(rows), nil
}

func (r runs) Delete(ctx context.Context, id uint) error {
	res := r.s.standalone(ctx).Delete(&RunEntity{}, id)
	if res.Error != nil {
		return storeError("delete run", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrRunNotFound
	}
	return nil
}

func (r runs) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.s.standalone(ctx).Where("id IN ?", ids).Delete(&RunEntity{})
	if res.Error != nil {
		return 0, storeError("delete runs", res.Error)
	}
	return res.RowsAffected, nil
}

func toDomainRuns(rows []RunEntity) []*model.Run {
	out := make([]*model.Run, len(rows))
	for i := range rows {
		out[i] = toDomainRun(&rows[i])
	}
	return out
}
