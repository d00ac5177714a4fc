package gorm

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
)

// GormConnection implements database.DBConnection.
type GormConnection struct {
	db   *gorm.DB
	cfg  dbconfig.DatabaseConfig
	name string
}

// NewGormConnection wraps an open gorm handle.
func NewGormConnection(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) *GormConnection {
	return &GormConnection{db: db, cfg: cfg, name: name}
}

func (c *GormConnection) Name() string                    { return c.name }
func (c *GormConnection) Type() string                    { return c.cfg.Type }
func (c *GormConnection) Config() dbconfig.DatabaseConfig { return c.cfg }
func (c *GormConnection) GormDB() *gorm.DB                { return c.db }

// SQLDB returns the underlying *sql.DB.
func (c *GormConnection) SQLDB() (*sql.DB, error) {
	return c.db.DB()
}

// Ping verifies the connection is alive.
func (c *GormConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying *sql.DB.
func (c *GormConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ database.DBConnection = (*GormConnection)(nil)
