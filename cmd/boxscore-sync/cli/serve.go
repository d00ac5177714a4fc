package cli

import (
	"github.com/spf13/cobra"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/app"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

func newServeCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the stuck-run sweep and the ops server",
		Long: `Run the scheduler with every active job on its interval trigger, reclaim runs
left behind by a crashed process, and serve /metrics and /healthz until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := r.loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, app.ModeServe)
			if err != nil {
				return err
			}
			logger.Infof("Starting boxscore-sync (database: %s)", app.DatabaseType(cfg))
			return a.Run(cmd.Context())
		},
	}
}
