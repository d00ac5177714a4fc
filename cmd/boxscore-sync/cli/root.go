// Package cli implements the boxscore-sync command line.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/app"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// EnvPrefix prefixes the environment variables bound to the global flags,
// e.g. BOXSCORE_CONFIG or BOXSCORE_LOG_LEVEL.
const EnvPrefix = "BOXSCORE"

const (
	flagConfig   = "config"
	flagEnvFile  = "env-file"
	flagLogLevel = "log-level"
	flagDatabase = "database"
	flagOutput   = "output"
)

// runner carries the bound global flags into the subcommands.
type runner struct {
	v *viper.Viper
}

// NewRootCmd builds the command tree with a fresh viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:               "boxscore-sync",
		Short:             "Sync basketball statistics from the upstream provider",
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "Path to the YAML configuration file")
	pf.String(flagEnvFile, "", "Path to a .env file loaded before the configuration")
	pf.String(flagLogLevel, "", "Log level override (DEBUG, INFO, WARN, ERROR, SILENT)")
	pf.String(flagDatabase, "", "Database type override (sqlite, postgres, mysql, memory)")
	pf.StringP(flagOutput, "o", outputTable, "Output format (table, json)")
	for _, name := range []string{flagConfig, flagEnvFile, flagLogLevel, flagDatabase, flagOutput} {
		if err := v.BindPFlag(name, pf.Lookup(name)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", name, err)
		}
	}

	r := &runner{v: v}
	root.AddCommand(
		newServeCmd(r),
		newMigrateCmd(r),
		newJobsCmd(r),
		newRunsCmd(r),
		newOverrideCmd(r),
	)
	return root
}

// loadConfig reads the configuration and applies the global flag overrides.
func (r *runner) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(r.v.GetString(flagConfig), r.v.GetString(flagEnvFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if db := r.v.GetString(flagDatabase); db != "" {
		app.SetDatabaseType(cfg, db)
	}
	if lvl := r.v.GetString(flagLogLevel); lvl != "" {
		cfg.Boxscore.System.Logging.Level = lvl
	}
	config.ApplyLogging(cfg)
	return cfg, nil
}

// withApp starts the application in command mode, runs fn and stops it.
func (r *runner) withApp(ctx context.Context, fn func(ctx context.Context, a *app.Application) error) (err error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(cfg, app.ModeCommand)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.DefaultStopTimeout)
		defer cancel()
		if stopErr := a.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(ctx, a)
}

func (r *runner) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), r.v.GetString(flagOutput))
}
