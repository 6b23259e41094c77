package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"resource-index/internal/database"
)

func newJournalCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "journal [id]",
		Short: "List recorded updates, or show one update in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}

			db, err := database.New(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid update id %q", args[0])
				}
				rec, err := db.GetUpdate(cmd.Context(), id)
				if err != nil {
					return err
				}
				if opts.JSON(out) {
					return writeJSON(out, rec)
				}
				renderUpdateText(out, rec)
				return nil
			}

			records, err := db.ListUpdates(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.JSON(out) {
				return writeJSON(out, records)
			}
			renderJournalText(out, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "journal database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of updates to list (0 lists all)")
	return cmd
}
