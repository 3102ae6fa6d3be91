package cli

import (
	"github.com/spf13/cobra"

	"github.com/scholarvest/paperscore/internal/infrastructure/database/postgres"
)

func newMigrateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			log, err := root.newLogger(cfg)
			if err != nil {
				return err
			}
			return postgres.Migrate(cfg.Postgres, log)
		},
	}
}
