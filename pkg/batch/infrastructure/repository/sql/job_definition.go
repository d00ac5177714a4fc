package sql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// JobDefinitions returns the Store as a JobDefinitionRepository.
func (s *Store) JobDefinitions() repository.JobDefinitionRepository { return jobDefinitions{s} }

type jobDefinitions struct{ s *Store }

func (r jobDefinitions) Register(ctx context.Context, def *model.JobDefinition) (*model.JobDefinition, error) {
	now := r.s.stamp()
	row := &JobDefinitionEntity{
		Name:        def.Name,
		Description: def.Description,
		Schedule:    def.Schedule,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.s.standalone(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "schedule", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, storeError("register job definition "+def.Name, err)
	}
	return r.FindByName(ctx, def.Name)
}

func (r jobDefinitions) FindByID(ctx context.Context, id uint) (*model.JobDefinition, error) {
	var row JobDefinitionEntity
	if err := r.s.standalone(ctx).First(&row, id).Error; err != nil {
		return nil, notFound("find job definition", err, repository.ErrJobNotFound)
	}
	return toDomainJobDefinition(&row), nil
}

func (r jobDefinitions) FindByName(ctx context.Context, name string) (*model.JobDefinition, error) {
	var row JobDefinitionEntity
	if err := r.s.standalone(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return nil, notFound("find job definition", err, repository.ErrJobNotFound)
	}
	return toDomainJobDefinition(&row), nil
}

func (r jobDefinitions) List(ctx context.Context) ([]*model.JobDefinition, error) {
	var rows []JobDefinitionEntity
	if err := r.s.standalone(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, storeError("list job definitions", err)
	}
	out := make([]*model.JobDefinition, len(rows))
	for i := range rows {
		out[i] = toDomainJobDefinition(&rows[i])
	}
	return out, nil
}

func (r jobDefinitions) SetActive(ctx context.Context, id uint, active bool) (*model.JobDefinition, error) {
	res := r.s.standalone(ctx).Model(&JobDefinitionEntity{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": r.s.stamp()})
	if res.Error != nil {
		return nil, storeError("set job definition active", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrJobNotFound
	}
	return r.FindByID(ctx, id)
}

func (r jobDefinitions) RecordOutcome(ctx context.Context, id uint, success bool, lastRunAt *time.Time) error {
	counter := "failed_runs"
	if success {
		counter = "successful_runs"
	}
	updates := map[string]interface{}{
		"total_runs": gorm.Expr("total_runs + ?", 1),
		counter:      gorm.Expr(counter+" + ?", 1),
		"updated_at": r.s.stamp(),
	}
	if lastRunAt != nil {
		updates["last_run_at"] = lastRunAt.UTC()
	}
	res := r.s.standalone(ctx).Model(&JobDefinitionEntity{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storeError("record job outcome", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrJobNotFound
	}
	return nil
}
