package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"app/config"
	"app/database"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// The schema is a single idempotent file, so migrating is just applying it
// without starting the server.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "creates or updates the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Init()
		if err != nil {
			return err
		}

		db, err := database.InitDB(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		logrus.WithField("database", cfg.DatabasePath).Info("schema applied")
		return nil
	},
}
