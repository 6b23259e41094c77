package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"resource-index/internal/database"
	"resource-index/internal/index"
	"resource-index/internal/logging"
)

func newWatchCommand() *cobra.Command {
	var (
		interval time.Duration
		dbPath   string
		passes   int
	)
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Build an index of root and print every change found by periodic updates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be > 0")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var db *database.Database
			if dbPath != "" {
				var err error
				db, err = database.New(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			idx, err := index.Build(rootArg(args), opts.indexOptions()...)
			if err != nil {
				return err
			}
			logging.Info("Watching %s (%d paths, interval %v)", idx.Root(), idx.Size(), interval)

			return watch(ctx, cmd, opts, idx, db, interval, passes)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "time between update passes")
	cmd.Flags().StringVar(&dbPath, "db", "", "record non-empty updates in this journal database")
	cmd.Flags().IntVar(&passes, "passes", 0, "stop after this many update passes (0 runs until interrupted)")
	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, opts *Options, idx *index.ResourceIndex, db *database.Database, interval time.Duration, passes int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	asJSON := opts.JSON(out)

	for n := 0; passes == 0 || n < passes; n++ {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		upd, err := idx.Update()
		if err != nil {
			return err
		}
		if upd.IsEmpty() {
			logging.Debug("No changes under %s", idx.Root())
			continue
		}

		rec := database.NewUpdateRecord(idx.Root(), upd, start, time.Since(start))
		if db != nil {
			if _, err := db.RecordUpdate(ctx, rec); err != nil {
				logging.Error("Failed to record update: %v", err)
			}
		}

		if asJSON {
			if err := writeJSONLine(out, rec); err != nil {
				return err
			}
			continue
		}
		renderUpdateText(out, rec)
	}
	return nil
}
