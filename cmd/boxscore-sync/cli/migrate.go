package cli

import (
	"github.com/spf13/cobra"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/migration"
)

func newMigrateCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	run := func(up bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := r.loadConfig()
			if err != nil {
				return err
			}
			m, err := migration.NewDefaultMigrator(cfg)
			if err != nil {
				return err
			}
			if up {
				err = m.Up(cmd.Context())
			} else {
				err = m.Down(cmd.Context())
			}
			if err != nil {
				return err
			}
			version, dirty, err := m.Version(cmd.Context())
			if err != nil {
				return err
			}
			r.printer(cmd).linef("schema version %d (dirty: %t)", version, dirty)
			return nil
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply every pending migration", Args: cobra.NoArgs, RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back every migration", Args: cobra.NoArgs, RunE: run(false)},
	)
	return cmd
}
