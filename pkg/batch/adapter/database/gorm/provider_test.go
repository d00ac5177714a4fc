package gorm_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
)

func sqliteAppConfig(t *testing.T) *config.Config {
	cfg := config.NewConfig()
	cfg.Boxscore.System.Logging.Level = "SILENT"
	cfg.Boxscore.Database[config.DefaultDatabaseName] = map[string]interface{}{
		"type": "sqlite",
		"path": filepath.Join(t.TempDir(), "test.db"),
		"pool": map[string]interface{}{"max_open_conns": "2"},
	}
	return cfg
}

func TestDecodeDatabaseConfig(t *testing.T) {
	cfg := sqliteAppConfig(t)
	dbCfg, err := gormadapter.DecodeDatabaseConfig(cfg, config.DefaultDatabaseName)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", dbCfg.Type)
	assert.Equal(t, 2, dbCfg.Pool.MaxOpenConns, "weakly typed values are accepted")

	_, err = gormadapter.DecodeDatabaseConfig(cfg, "reporting")
	assert.Error(t, err)
}

func TestBaseProvider_CachesConnections(t *testing.T) {
	p := sqlite.NewProvider(sqliteAppConfig(t))
	assert.Equal(t, "sqlite", p.Type())

	first, err := p.GetConnection(config.DefaultDatabaseName)
	require.NoError(t, err)
	second, err := p.GetConnection(config.DefaultDatabaseName)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, config.DefaultDatabaseName, first.Name())
	require.NoError(t, first.Ping(context.Background()))

	require.NoError(t, p.CloseAll())
	third, err := p.GetConnection(config.DefaultDatabaseName)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	require.NoError(t, p.CloseAll())
}

func TestBaseProvider_RejectsTypeMismatch(t *testing.T) {
	cfg := sqliteAppConfig(t)
	p := gormadapter.NewBaseProvider(cfg, "postgres")
	_, err := p.GetConnection(config.DefaultDatabaseName)
	assert.ErrorContains(t, err, "provider type mismatch")
}

func TestGetDialectorFactory_Unknown(t *testing.T) {
	_, err := gormadapter.GetDialectorFactory("oracle")
	assert.Error(t, err)
}

type note struct {
	ID   uint `gorm:"primaryKey"`
	Body string
}

func TestGormTransactionManager_CommitAndRollback(t *testing.T) {
	db, err := gormadapter.Open(dbconfig.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "tx.db"),
	}, "SILENT")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&note{}))
	mgr := gormadapter.NewGormTransactionManager(db)
	ctx := context.Background()

	rolled, err := mgr.Begin(ctx)
	require.NoError(t, err)
	txCtx := tx.WithTx(ctx, rolled)
	require.NoError(t, gormadapter.DB(txCtx, db).Create(&note{Body: "discarded"}).Error)
	require.NoError(t, mgr.Rollback(rolled))

	committed, err := mgr.Begin(ctx)
	require.NoError(t, err)
	txCtx = tx.WithTx(ctx, committed)
	require.NoError(t, gormadapter.DB(txCtx, db).Create(&note{Body: "kept"}).Error)
	require.NoError(t, mgr.Commit(committed))

	var bodies []string
	require.NoError(t, gormadapter.DB(ctx, db).Model(&note{}).Pluck("body", &bodies).Error)
	assert.Equal(t, []string{"kept"}, bodies)
}

func TestGormTransactionManager_RejectsForeignTx(t *testing.T) {
	mgr := gormadapter.NewGormTransactionManager(nil)
	assert.Error(t, mgr.Commit(foreignTx{}))
	assert.Error(t, mgr.Rollback(foreignTx{}))
}

type foreignTx struct{}

func (foreignTx) Unwrap() interface{} { return nil }
