package sql

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// Module provides the gorm-backed Store behind every repository port.
// It expects a *gorm.DB, normally from the gorm adapter module.
var Module = fx.Options(
	fx.Provide(
		func(db *gorm.DB) *Store { return NewStore(db) },
		func(s *Store) repository.JobDefinitionRepository { return s.JobDefinitions() },
		func(s *Store) repository.RunRepository { return s.Runs() },
		func(s *Store) repository.EntityStore { return s.Entities() },
	),
)
