// Package migration applies the embedded SQL schema of the sync store with golang-migrate.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// MigrationsTable tracks the applied schema version.
const MigrationsTable = "boxscore_migrations"

// ErrNotSupported is returned for database types without a SQL schema.
var ErrNotSupported = errors.New("migrations are not supported for this database type")

// Migrator applies or reverts the schema of one database. Every call opens its own
// connection, which golang-migrate closes when the call ends.
type Migrator struct {
	cfg      dbconfig.DatabaseConfig
	logLevel string
}

// NewMigrator creates a Migrator for cfg.
func NewMigrator(cfg dbconfig.DatabaseConfig, logLevel string) *Migrator {
	return &Migrator{cfg: cfg, logLevel: logLevel}
}

// NewDefaultMigrator creates a Migrator for the default connection of appCfg.
func NewDefaultMigrator(appCfg *config.Config) (*Migrator, error) {
	dbCfg, err := gormadapter.DecodeDatabaseConfig(appCfg, config.DefaultDatabaseName)
	if err != nil {
		return nil, err
	}
	return NewMigrator(dbCfg, appCfg.Boxscore.System.Logging.Level), nil
}

// Supported reports whether the configured database has a SQL schema.
func (m *Migrator) Supported() bool {
	switch m.cfg.Type {
	case "sqlite", "postgres", "mysql":
		return true
	}
	return false
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(mi *migrate.Migrate) error { return mi.Up() })
}

// Down reverts every applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(mi *migrate.Migrate) error { return mi.Down() })
}

// Version returns the applied schema version and whether it is dirty.
// A database without migrations reports version 0.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := m.run(ctx, "version", func(mi *migrate.Migrate) error {
		v, d, err := mi.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return err
	})
	return version, dirty, err
}

func (m *Migrator) run(ctx context.Context, command string, fn func(*migrate.Migrate) error) error {
	if !m.Supported() {
		return fmt.Errorf("%w: %s", ErrNotSupported, m.cfg.Type)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	migrationFS, err := MigrationsFS(m.cfg.Type)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations for %s: %w", m.cfg.Type, err)
	}
	mi, err := m.instance(migrationFS)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := mi.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warnf("Closing migrate instance: source=%v database=%v", srcErr, dbErr)
		}
	}()

	logger.Infof("Executing migration '%s' (%s, table %s)", command, m.cfg.Type, MigrationsTable)
	if err := fn(mi); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration '%s' failed for %s: %w", command, m.cfg.Type, err)
	}
	logger.Infof("Migration '%s' completed.", command)
	return nil
}

func (m *Migrator) instance(migrationFS fs.FS) (*migrate.Migrate, error) {
	gormDB, err := gormadapter.Open(m.cfg, m.logLevel)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	dbDriver, err := databaseDriver(m.cfg.Type, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	mi, err := migrate.NewWithInstance("iofs", sourceDriver, m.cfg.Type, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mi, nil
}

func databaseDriver(dbType string, sqlDB *sql.DB) (database.Driver, error) {
	switch dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: MigrationsTable})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: MigrationsTable})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: MigrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", dbType)
	}
}
