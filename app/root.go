// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skyqueue",
	Short: "skyqueue posts queued messages to Bluesky on a schedule",
	Long: `skyqueue is a queue-backed auto-poster for Bluesky. An external timer
invokes it periodically; each run publishes the queue entry due for the
current hour and removes it from the queue on success.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
