package usecase

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

// ControlParams are the fx-injected collaborators of the ControlService.
type ControlParams struct {
	fx.In
	Jobs      repository.JobDefinitionRepository
	Runs      repository.RunRepository
	Registry  *cancellation.Registry
	Scheduler *schedule.Scheduler
	Sweeper   *schedule.Sweeper
}

// Module provides the control surface and the override service.
var Module = fx.Options(
	fx.Provide(
		func(p ControlParams) *ControlService {
			return NewControlService(p.Jobs, p.Runs, p.Registry, p.Scheduler, p.Sweeper)
		},
		NewOverrideService,
	),
)
