package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/logger"
	"github.com/skyqueue/skyqueue/internal/runner"
)

func init() { //nolint: gochecknoinits
	runCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	runCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Log the entry that would be posted without publishing or deleting anything",
	)

	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"",
		"Path to the directory holding main.toml (default ./etc/)",
	)

	rootCmd.AddCommand(runCmd)
}

var (
	configPath string // Path to the configuration file

	err     error
	cfg     config.Config
	devMode bool
	dryRun  bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Execute one posting cycle",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}

			if devMode {
				cfg.DevMode = true
			}

			if dryRun {
				cfg.DryRun = true
			}

			if err = logger.Init(cfg.Log); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r, err := runner.New(&cfg)
			if err != nil {
				return err
			}

			return r.Run(ctx)
		},
	}
)
