package main

import (
	"github.com/spf13/cobra"

	"github.com/gauravghatol/CREA-Final-sub001/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := config.ConnectDB(cfg.Database)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			logger.Info("schema migrated", "database", cfg.Database.Name)
			return nil
		},
	}
}
