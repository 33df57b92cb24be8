package cmd

import (
	"clipstream/config"
	"clipstream/db"
	"clipstream/logger"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the schema and seed the starter clip catalog",
	Long: `Connects to the database, runs the schema migration and inserts the
starter clips. Seeding is skipped when the clips table already has rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		logger.InitLogger(logger.Config{
			Level: logger.LogLevel(cfg.LogLevel),
		})

		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.MigrateSchema(); err != nil {
			return err
		}

		inserted, err := db.SeedClips()
		if err != nil {
			return err
		}

		logger.Info("Seed finished", logger.Int("inserted", inserted))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
