// Package mysql provides the gorm DBProvider for MySQL databases.
package mysql

import (
	"fmt"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
)

// Type is the database type handled by this package.
const Type = "mysql"

func init() {
	gormadapter.RegisterDialector(Type, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, fmt.Errorf("mysql requires a database name")
		}
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString builds the DSN with parseTime enabled and UTC as the session location.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	dsn := drivermysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", c.Host, port)
	dsn.DBName = c.Database
	dsn.ParseTime = true
	// Report matched rather than changed rows so a no-op update still finds its row.
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// NewProvider creates the MySQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, Type)
}
