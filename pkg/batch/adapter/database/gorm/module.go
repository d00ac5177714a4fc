package gorm

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// ConnectionParams collects the registered providers for NewDefaultConnection.
type ConnectionParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Providers []database.DBProvider `group:"db_providers"`
}

// NewDefaultConnection opens the "default" connection through the provider matching its type
// and closes every provider when the application stops.
func NewDefaultConnection(p ConnectionParams) (database.DBConnection, error) {
	dbConfig, err := DecodeDatabaseConfig(p.Config, config.DefaultDatabaseName)
	if err != nil {
		return nil, err
	}
	var provider database.DBProvider
	for _, candidate := range p.Providers {
		if candidate.Type() == dbConfig.Type {
			provider = candidate
			break
		}
	}
	if provider == nil {
		return nil, fmt.Errorf("no database provider registered for type %q", dbConfig.Type)
	}

	conn, err := provider.GetConnection(config.DefaultDatabaseName)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return conn.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			var lastErr error
			for _, provider := range p.Providers {
				if err := provider.CloseAll(); err != nil {
					lastErr = err
				}
			}
			logger.Debugf("Closed database providers.")
			return lastErr
		},
	})
	return conn, nil
}

// Module exports the gorm connection, its *gorm.DB and the transaction manager.
// Dialect packages contribute their providers to the db_providers group.
var Module = fx.Options(
	fx.Provide(NewDefaultConnection),
	fx.Provide(func(conn database.DBConnection) *gorm.DB { return conn.GormDB() }),
	fx.Provide(fx.Annotate(
		NewGormTransactionManager,
		fx.As(new(tx.TransactionManager)),
	)),
)
