package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"resource-index/internal/index"
)

func newBuildCommand() *cobra.Command {
	var (
		listPaths      bool
		showDuplicates bool
	)
	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Build an index of root and print its shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			idx, err := index.Build(rootArg(args), opts.indexOptions()...)
			if err != nil {
				return err
			}

			report := newBuildReport(idx, listPaths, showDuplicates)
			out := cmd.OutOrStdout()
			if opts.JSON(out) {
				return writeJSON(out, report)
			}
			renderBuildText(out, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&listPaths, "list", false, "list every tracked path with its resource id")
	cmd.Flags().BoolVar(&showDuplicates, "duplicates", false, "list paths sharing a resource id")
	return cmd
}

func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}
