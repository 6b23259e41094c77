package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"resource-index/internal/startup"
)

// NewRootCommand builds the resindex command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:           "resindex",
		Short:         "Content-addressed index of a directory tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = fmt.Sprintf("%s (%s)", startup.Version, startup.Commit)

	withOptionsContext(cmd, opts)
	bindFlags(cmd, opts)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if opts := optionsFrom(cmd); opts != nil {
			return opts.Prepare()
		}
		return nil
	}

	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newJournalCommand())
	return cmd
}
