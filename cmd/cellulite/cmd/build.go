package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/internal/progress"
	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Apply pending updates to the cell index",
		Long: `Drain the pending update queue and reconcile the cell hierarchy.
Interrupting with Ctrl-C cancels the build and rolls the transaction back;
a later build resumes the reconciliation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return runBuild(db, cfg)
		},
	}
}

func runBuild(db *bolt.DB, cfg Config) error {
	var canceled atomic.Bool
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			canceled.Store(true)
		}
	}()

	tracker := progress.NewTracker()
	stopPrinter := startProgressPrinter(tracker)
	defer stopPrinter()

	err := db.Update(func(tx *bolt.Tx) error {
		index, err := cellulite.Open(tx, indexOptions(cfg))
		if err != nil {
			return err
		}
		return index.Build(tx, canceled.Load, trackerReporter{tracker})
	})
	if err != nil {
		tracker.SetError(err.Error())
		return err
	}
	tracker.SetReady()
	stopPrinter()
	fmt.Println("Build complete.")
	return nil
}
