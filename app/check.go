package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/skyqueue/skyqueue/internal/bluesky"
	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/db"
	"github.com/skyqueue/skyqueue/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configuration, the database and the Bluesky API",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if _, err := db.Open(&cfg); err != nil {
			return errors.Wrap(err, "database check failed")
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database connection test successful")

		client, err := bluesky.New(&cfg.Bluesky)
		if err != nil {
			return errors.Wrap(err, "Bluesky check failed")
		}

		if err := client.Test(context.Background()); err != nil {
			return errors.Wrap(err, "Bluesky check failed")
		}

		log.Info().Msg("all checks passed")

		return nil
	},
}
