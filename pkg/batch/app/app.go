// Package app assembles the boxscore-sync application graph with go.uber.org/fx.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// DefaultStopTimeout bounds how long Stop waits for running bodies to observe shutdown.
const DefaultStopTimeout = 30 * time.Second

// Mode selects which parts of the lifecycle are started.
type Mode int

const (
	// ModeCommand opens the store and registers the catalog; nothing fires on its own.
	ModeCommand Mode = iota
	// ModeServe also starts the interval triggers, the sweep and the ops server.
	ModeServe
)

// Application is a built graph plus the services the CLI drives.
type Application struct {
	fx *fx.App

	Config    *config.Config
	Control   *usecase.ControlService
	Overrides *usecase.OverrideService
	Scheduler *schedule.Scheduler
	Server    *Server
}

// New builds the graph for cfg. extra options are appended, which tests use to
// replace providers with fx.Decorate.
func New(cfg *config.Config, mode Mode, extra ...fx.Option) (*Application, error) {
	a := &Application{Config: cfg}
	opts := []fx.Option{
		coreModule(cfg),
		fx.Populate(&a.Control, &a.Overrides, &a.Scheduler, &a.Server),
	}
	if mode == ModeServe {
		opts = append(opts, fx.Invoke(serveHooks))
	}
	opts = append(opts, extra...)

	a.fx = fx.New(opts...)
	if err := a.fx.Err(); err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return a, nil
}

// Start runs the start hooks: migrations, catalog registration and, when serving,
// the triggers and the ops server.
func (a *Application) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

// Stop cancels running bodies and closes every resource.
func (a *Application) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application, blocks until a termination signal and stops it.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	select {
	case sig := <-a.fx.Done():
		logger.Infof("Received %s, shutting down", sig)
	case <-ctx.Done():
		logger.Infof("Context cancelled, shutting down")
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), DefaultStopTimeout)
	defer cancel()
	return a.Stop(stopCtx)
}
