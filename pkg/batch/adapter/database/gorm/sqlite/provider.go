// Package sqlite provides the gorm DBProvider for SQLite databases.
package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
)

// Type is the database type handled by this package.
const Type = "sqlite"

func init() {
	gormadapter.RegisterDialector(Type, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		dsn := ConnectionString(cfg)
		if dsn == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(dsn), nil
	})
}

// BusyTimeoutMillis is how long a connection waits on a locked database file.
const BusyTimeoutMillis = 5000

// ConnectionString returns the SQLite file path with a busy timeout. Path wins over Database.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	path := c.Path
	if path == "" {
		path = c.Database
	}
	if path == "" || strings.Contains(path, "?") {
		return path
	}
	return fmt.Sprintf("%s?_busy_timeout=%d", path, BusyTimeoutMillis)
}

// NewProvider creates the SQLite DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, Type)
}
