package local

import (
	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
)

// Module contributes the local provider to the storage_providers group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewProvider,
		fx.ResultTags(`group:"`+storage.StorageProviderGroup+`"`),
	)),
)
