package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skyqueue/skyqueue/internal/config"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as JSON, credentials redacted",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		dump, err := config.DumpConfigJSON(cfg)
		if err != nil {
			return err
		}

		fmt.Print(dump)

		return nil
	},
}
