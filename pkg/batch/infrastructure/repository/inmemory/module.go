package inmemory

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
)

// Module provides the in-memory store behind every repository port, with a
// transaction manager that applies writes immediately.
var Module = fx.Options(
	fx.Provide(
		NewStore,
		func(s *Store) repository.JobDefinitionRepository { return s.JobDefinitions() },
		func(s *Store) repository.RunRepository { return s.Runs() },
		func(s *Store) repository.EntityStore { return s.Entities() },
		func() tx.TransactionManager { return tx.NoopTransactionManager{} },
	),
)
