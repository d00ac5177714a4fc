package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database"
	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/mysql"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/postgres"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage/gcs"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage/local"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/archive"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/migration"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/syncjob"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	inframetrics "github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/inmemory"
	sqlrepo "github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/sql"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/upstream"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/listener"
	listenermetrics "github.com/giorgioGunawan/boxscore-backend/pkg/batch/listener/metrics"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// DatabaseMemory selects the in-memory store.
const DatabaseMemory = "memory"

// DatabaseType returns the type of the default connection.
func DatabaseType(cfg *config.Config) string {
	conn, _ := cfg.Boxscore.Database[config.DefaultDatabaseName].(map[string]interface{})
	t, _ := conn["type"].(string)
	return strings.ToLower(t)
}

// SetDatabaseType overrides the type of the default connection.
func SetDatabaseType(cfg *config.Config, dbType string) {
	conn, ok := cfg.Boxscore.Database[config.DefaultDatabaseName].(map[string]interface{})
	if !ok {
		conn = map[string]interface{}{}
	}
	conn["type"] = strings.ToLower(dbType)
	cfg.Boxscore.Database[config.DefaultDatabaseName] = conn
}

// storeModule provides the repositories, the transaction manager and a HealthChecker
// for the configured database type. SQL stores are migrated on start.
func storeModule(cfg *config.Config) fx.Option {
	if DatabaseType(cfg) == DatabaseMemory {
		return fx.Options(
			inmemory.Module,
			fx.Provide(func() HealthChecker { return func(context.Context) error { return nil } }),
		)
	}
	return fx.Options(
		sqlite.Module,
		postgres.Module,
		mysql.Module,
		gormadapter.Module,
		sqlrepo.Module,
		migration.Module,
		fx.Provide(func(conn database.DBConnection) HealthChecker { return conn.Ping }),
		fx.Invoke(migrateOnStart),
	)
}

func migrateOnStart(lc fx.Lifecycle, m *migration.Migrator) {
	lc.Append(fx.Hook{OnStart: func(ctx context.Context) error {
		if !m.Supported() {
			return nil
		}
		return m.Up(ctx)
	}})
}

func newEngine(recorder *listenermetrics.AsyncMetricRecorder) *reconcile.Engine {
	return reconcile.NewEngine(reconcile.WithRecorder(recorder))
}

// ExecutorParams are the collaborators of the Executor.
type ExecutorParams struct {
	fx.In
	Jobs      repository.JobDefinitionRepository
	Runs      repository.RunRepository
	Registry  *cancellation.Registry
	TxManager tx.TransactionManager
	Tracer    metrics.Tracer
	Listeners []job.RunListener `group:"run_listeners"`
	Scheduler *config.SchedulerConfig
	Sync      *config.SyncConfig
}

func newExecutor(p ExecutorParams) *job.Executor {
	return job.NewExecutor(job.ExecutorDeps{
		Jobs:      p.Jobs,
		Runs:      p.Runs,
		Registry:  p.Registry,
		TxManager: p.TxManager,
		Tracer:    p.Tracer,
		Listeners: []job.RunListener{listener.Composite(p.Listeners)},
	}, job.WithTimeout(p.Scheduler.Timeout), job.WithProgressEvery(p.Sync.ProgressEvery))
}

// SchedulerParams collect the catalog entries contributed by the job components.
type SchedulerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Executor  *job.Executor
	Jobs      repository.JobDefinitionRepository
	Config    *config.SchedulerConfig
	Entries   []schedule.Entry `group:"job_entries"`
}

// newScheduler registers the catalog on start and stops manual runs on stop.
func newScheduler(p SchedulerParams) *schedule.Scheduler {
	s := schedule.New(p.Executor, p.Jobs, schedule.WithTriggerWorkers(p.Config.TriggerWorkers))
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Register(ctx, p.Entries...); err != nil {
				return fmt.Errorf("register job catalog: %w", err)
			}
			logger.Debugf("Registered %d jobs", len(p.Entries))
			return nil
		},
		OnStop: s.Stop,
	})
	return s
}

func newSweeper(
	runs repository.RunRepository,
	jobs repository.JobDefinitionRepository,
	registry *cancellation.Registry,
	cfg *config.SchedulerConfig,
	recorder *listenermetrics.AsyncMetricRecorder,
) *schedule.Sweeper {
	return schedule.NewSweeper(runs, jobs, registry,
		schedule.WithThreshold(cfg.StuckThreshold),
		schedule.WithInterval(cfg.SweepInterval),
		schedule.WithRecorder(recorder),
	)
}

func newServer(cfg *config.ServerConfig, prom *inframetrics.PrometheusRecorder, health HealthChecker) *Server {
	return NewServer(cfg.Address, NewRouter(prom.Handler(), health))
}

// coreModule is the graph shared by every command.
func coreModule(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		logger.Module,
		config.Module,
		storeModule(cfg),
		inframetrics.Module,
		listener.Module,
		upstream.Module,
		storage.Module,
		local.Module,
		gcs.Module,
		syncjob.Module,
		archive.Module,
		usecase.Module,
		fx.Provide(
			func() *cancellation.Registry { return cancellation.NewRegistry() },
			newEngine,
			newExecutor,
			newScheduler,
			newSweeper,
			newServer,
		),
	)
}

// serveHooks start the interval triggers, the stuck-run sweep and the ops server.
func serveHooks(lc fx.Lifecycle, s *schedule.Scheduler, sw *schedule.Sweeper, srv *Server, cfg *config.SchedulerConfig) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Enabled {
				if err := s.Start(ctx); err != nil {
					return err
				}
			} else {
				logger.Warnf("Scheduler disabled; jobs run only when triggered manually")
			}
			sw.Start(ctx)
			return srv.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			sw.Stop()
			return srv.Stop(ctx)
		},
	})
}
