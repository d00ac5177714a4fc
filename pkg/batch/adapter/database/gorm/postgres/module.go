package postgres

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
)

// Module exports the PostgreSQL DBProvider.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.ResultTags(`group:"`+database.DBProviderGroup+`"`),
		),
	),
)
