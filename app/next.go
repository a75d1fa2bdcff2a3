package app

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/db"
	"github.com/skyqueue/skyqueue/internal/db/controller/mode"
	"github.com/skyqueue/skyqueue/internal/db/controller/queue"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(nextCmd)
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the posting mode and the queue entry due this hour",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		gdb, err := db.Open(&cfg)
		if err != nil {
			return err
		}

		currentMode, err := mode.Current(gdb)
		if err != nil {
			return err
		}

		now := time.Now()

		fmt.Printf("mode:     %s\n", currentMode)
		fmt.Printf("due time: %s\n", queue.DueTime(now))

		entry, err := queue.NextDue(gdb, now)
		if errors.Is(err, queue.ErrNoEntryDue) {
			fmt.Println("no queue entry due this hour")

			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("entry:    %d %q\n", entry.SortIndex, entry.Message)

		return nil
	},
}
