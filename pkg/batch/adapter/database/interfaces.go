// Package database defines the connection abstractions the SQL store is built on.
package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
)

// DBConnection is one named, open database connection.
type DBConnection interface {
	// Name returns the configured connection name.
	Name() string
	// Type returns the database type, e.g. "sqlite".
	Type() string
	// Config returns the settings the connection was opened with.
	Config() dbconfig.DatabaseConfig
	// GormDB returns the gorm handle bound to the connection.
	GormDB() *gorm.DB
	// SQLDB returns the underlying *sql.DB.
	SQLDB() (*sql.DB, error)
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Close closes the connection.
	Close() error
}

// DBProvider opens connections of one database type.
type DBProvider interface {
	// Type returns the database type handled by this provider.
	Type() string
	// GetConnection returns the named connection, opening it on first use.
	GetConnection(name string) (DBConnection, error)
	// CloseAll closes every connection opened by this provider.
	CloseAll() error
}

// DBProviderGroup is the fx value group collecting every DBProvider.
const DBProviderGroup = "db_providers"
