package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	_ "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/sqlite"
)

func sqliteConfig(t *testing.T) dbconfig.DatabaseConfig {
	return dbconfig.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "boxscore.db"),
	}
}

func tableNames(t *testing.T, cfg dbconfig.DatabaseConfig) []string {
	db, err := gormadapter.Open(cfg, "SILENT")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var names []string
	require.NoError(t, db.Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name").Scan(&names).Error)
	return names
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	m := NewMigrator(cfg, "SILENT")

	require.NoError(t, m.Up(ctx))
	assert.Subset(t, tableNames(t, cfg), []string{
		"job_definitions", "runs", "teams", "players", "games",
		"player_season_stats", "player_game_stats", "team_standings", MigrationsTable,
	})

	version, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Applying again is a no-op.
	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx))
	assert.Equal(t, []string{MigrationsTable}, tableNames(t, cfg))
}

func TestMigrator_VersionOfEmptyDatabase(t *testing.T) {
	version, dirty, err := NewMigrator(sqliteConfig(t), "SILENT").Version(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}

func TestMigrator_RejectsMemoryStore(t *testing.T) {
	m := NewMigrator(dbconfig.DatabaseConfig{Type: dbconfig.TypeMemory}, "SILENT")
	assert.False(t, m.Supported())
	assert.ErrorIs(t, m.Up(context.Background()), ErrNotSupported)
}

func TestMigrationsFS_EveryDialectHasPairs(t *testing.T) {
	for _, dbType := range []string{"sqlite", "postgres", "mysql"} {
		fsys, err := MigrationsFS(dbType)
		require.NoError(t, err, dbType)
		up, err := fsys.Open("000001_create_sync_tables.up.sql")
		require.NoError(t, err, dbType)
		up.Close()
		down, err := fsys.Open("000001_create_sync_tables.down.sql")
		require.NoError(t, err, dbType)
		down.Close()
	}
}
