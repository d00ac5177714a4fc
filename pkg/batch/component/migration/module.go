package migration

import "go.uber.org/fx"

// Module provides the Migrator of the default connection.
var Module = fx.Options(
	fx.Provide(NewDefaultMigrator),
)
