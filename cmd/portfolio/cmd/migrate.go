package cmd

import (
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio/postgres"
	"github.com/xy-planning-network/portfolio/ranger"
)

// migrateCmd applies migrations that have not run yet
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}

		l := cliLogger(cfg)
		l.Info("applying migrations", nil)
		if err := postgres.MigrateUp(db, ranger.Migrations); err != nil {
			return err
		}

		l.Info("migrations applied", nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
